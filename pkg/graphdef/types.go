// Package graphdef reads and writes a YAML description of IR graphs.
//
// A description lists nodes with their operation type and output tensors,
// data, control and back edges, graph inputs and outputs, and nested
// subgraphs attached to an owner node:
//
//	name: main
//	nodes:
//	  - {name: x, type: Data, outputs: [{dims: [2, 3], elem_size: 4}]}
//	  - {name: relu, type: Relu, inputs: 1, output_count: 1}
//	edges:
//	  - {from: "x:0", to: "relu:0"}
//	inputs: [x]
//	outputs: ["relu:0"]
//
// Data endpoints are written node:index; control endpoints are bare node
// names.
package graphdef

// Definition describes one graph.
type Definition struct {
	Name      string        `yaml:"name" validate:"required,irname"`
	Nodes     []NodeDef     `yaml:"nodes" validate:"dive"`
	Edges     []EdgeDef     `yaml:"edges,omitempty" validate:"dive"`
	Inputs    []string      `yaml:"inputs,omitempty" validate:"dive,irname"`
	Outputs   []string      `yaml:"outputs,omitempty" validate:"dive,required"`
	Subgraphs []SubgraphDef `yaml:"subgraphs,omitempty" validate:"dive"`
}

// NodeDef describes one node.
type NodeDef struct {
	Name   string `yaml:"name" validate:"required,irname"`
	Type   string `yaml:"type" validate:"required,optype"`
	Inputs int    `yaml:"inputs,omitempty" validate:"gte=0,lte=1024"`
	// Outputs lists output tensors with known shapes.
	Outputs []TensorDef `yaml:"outputs,omitempty" validate:"dive"`
	// OutputCount adds outputs of unknown shape after Outputs.
	OutputCount int `yaml:"output_count,omitempty" validate:"gte=0,lte=1024"`
}

// TensorDef describes one output tensor. A negative dimension is unknown.
type TensorDef struct {
	Dims        []int64 `yaml:"dims,flow,omitempty"`
	ElemSize    int64   `yaml:"elem_size,omitempty" validate:"gte=0"`
	UnknownRank bool    `yaml:"unknown_rank,omitempty"`
}

// EdgeDef describes one edge.
type EdgeDef struct {
	From    string `yaml:"from" validate:"required"`
	To      string `yaml:"to" validate:"required"`
	Control bool   `yaml:"control,omitempty"`
	// Back marks a loop back edge, which does not constrain ordering.
	Back bool `yaml:"back,omitempty"`
}

// SubgraphDef attaches a nested graph to an owner node.
type SubgraphDef struct {
	Owner string     `yaml:"owner" validate:"required,irname"`
	Graph Definition `yaml:"graph"`
}
