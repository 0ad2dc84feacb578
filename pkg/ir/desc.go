package ir

import "math"

// Well-known operation types the engine treats specially.
const (
	TypeData          = "Data"
	TypeRefData       = "RefData"
	TypeConst         = "Const"
	TypeConstant      = "Constant"
	TypeVariable      = "Variable"
	TypeVariableV2    = "VariableV2"
	TypeNetOutput     = "NetOutput"
	TypeNextIteration = "NextIteration"
)

// UnknownTensorBytes is the size assumed for an output whose rank or shape is
// not known. It is deliberately large so unknown outputs sort as expensive.
const UnknownTensorBytes int64 = 2 << 30

// TensorDesc describes one output value of an operation.
type TensorDesc struct {
	// Dims holds the shape; a negative entry is an unknown dimension.
	Dims []int64
	// ElemSize is the size of one element in bytes.
	ElemSize int64
	// UnknownRank marks a tensor whose number of dimensions is unknown.
	UnknownRank bool
}

// Bytes estimates the tensor size. Unknown shapes and overflowing products
// yield UnknownTensorBytes.
func (t TensorDesc) Bytes() int64 {
	if t.UnknownRank {
		return UnknownTensorBytes
	}
	size := t.ElemSize
	if size < 0 {
		return UnknownTensorBytes
	}
	for _, d := range t.Dims {
		if d < 0 {
			return UnknownTensorBytes
		}
		if d != 0 && size > math.MaxInt64/d {
			return UnknownTensorBytes
		}
		size *= d
	}
	return size
}

// OpDesc is the operation descriptor a Node is built from. Attribute storage,
// shape inference and serialization live behind this interface.
type OpDesc interface {
	// Type returns the stable operation type string.
	Type() string
	// InputCount returns the number of data inputs.
	InputCount() int
	// OutputCount returns the number of data outputs.
	OutputCount() int
	// OutputTensor describes data output i.
	OutputTensor(i int) TensorDesc
}

// Op is a plain OpDesc.
type Op struct {
	OpType  string
	Inputs  int
	Outputs []TensorDesc
}

var _ OpDesc = (*Op)(nil)

// NewOp returns an Op with the given number of inputs and outputs of unknown shape.
func NewOp(opType string, inputs, outputs int) *Op {
	op := &Op{OpType: opType, Inputs: inputs, Outputs: make([]TensorDesc, outputs)}
	for i := range op.Outputs {
		op.Outputs[i] = TensorDesc{UnknownRank: true}
	}
	return op
}

func (o *Op) Type() string     { return o.OpType }
func (o *Op) InputCount() int  { return o.Inputs }
func (o *Op) OutputCount() int { return len(o.Outputs) }

func (o *Op) OutputTensor(i int) TensorDesc {
	if i < 0 || i >= len(o.Outputs) {
		return TensorDesc{UnknownRank: true}
	}
	return o.Outputs[i]
}

// EstimateOutputBytes sums the estimated sizes of all data outputs of n,
// saturating at math.MaxInt64.
func EstimateOutputBytes(n *Node) int64 {
	if n == nil || n.desc == nil {
		return 0
	}
	var total int64
	for i := 0; i < n.desc.OutputCount(); i++ {
		b := n.desc.OutputTensor(i).Bytes()
		if total > math.MaxInt64-b {
			return math.MaxInt64
		}
		total += b
	}
	return total
}

// IsConstType reports whether typ produces a compile-time constant.
func IsConstType(typ string) bool {
	return typ == TypeConst || typ == TypeConstant
}

// IsLongLivedType reports whether typ produces a value that lives for the
// whole execution: constants, variables and graph inputs.
func IsLongLivedType(typ string) bool {
	switch typ {
	case TypeConst, TypeConstant, TypeVariable, TypeVariableV2, TypeData, TypeRefData:
		return true
	}
	return false
}

// IsInputType reports whether typ is a graph-input placeholder.
func IsInputType(typ string) bool {
	return typ == TypeData || typ == TypeRefData
}
