package pools

import (
	"sync"
)

// Size classes for pooled slices.
const (
	SmallSize  = 16
	MediumSize = 64
	LargeSize  = 256
	HugeSize   = 4096

	// maxPooledCap bounds what Put accepts back.
	maxPooledCap = 1 << 16
)

// SlicePool pools slices of T by capacity class.
type SlicePool[T any] struct {
	small  sync.Pool // <= SmallSize elements
	medium sync.Pool // <= MediumSize elements
	large  sync.Pool // <= LargeSize elements
	huge   sync.Pool // <= HugeSize elements
}

// NewSlicePool creates a new slice pool.
func NewSlicePool[T any]() *SlicePool[T] {
	newClass := func(c int) sync.Pool {
		return sync.Pool{
			New: func() any {
				s := make([]T, 0, c)
				return &s
			},
		}
	}
	return &SlicePool[T]{
		small:  newClass(SmallSize),
		medium: newClass(MediumSize),
		large:  newClass(LargeSize),
		huge:   newClass(HugeSize),
	}
}

func (p *SlicePool[T]) class(c int) *sync.Pool {
	switch {
	case c <= SmallSize:
		return &p.small
	case c <= MediumSize:
		return &p.medium
	case c <= LargeSize:
		return &p.large
	case c <= HugeSize:
		return &p.huge
	default:
		return nil
	}
}

// Get returns an empty slice with at least the requested capacity.
func (p *SlicePool[T]) Get(size int) []T {
	pool := p.class(size)
	if pool == nil {
		return make([]T, 0, size)
	}
	sp, ok := pool.Get().(*[]T)
	if !ok || cap(*sp) < size {
		return make([]T, 0, size)
	}
	return (*sp)[:0]
}

// GetSized returns a zeroed slice of exactly size elements.
func (p *SlicePool[T]) GetSized(size int) []T {
	s := p.Get(size)[:size]
	clear(s)
	return s
}

// Put returns a slice to the pool. Elements are cleared so pooled slices do
// not keep graph nodes alive.
func (p *SlicePool[T]) Put(s []T) {
	c := cap(s)
	if c == 0 || c > maxPooledCap {
		return
	}
	s = s[:c]
	clear(s)
	s = s[:0]

	// A slice goes to the largest class it can fully serve.
	var pool *sync.Pool
	switch {
	case c >= HugeSize:
		pool = &p.huge
	case c >= LargeSize:
		pool = &p.large
	case c >= MediumSize:
		pool = &p.medium
	case c >= SmallSize:
		pool = &p.small
	default:
		return
	}
	pool.Put(&s)
}

// Default global pools
var (
	defaultIntPool  = NewSlicePool[int]()
	defaultBytePool = NewSlicePool[byte]()
)

// GetInts returns a zeroed int slice of length size from the default pool.
func GetInts(size int) []int {
	return defaultIntPool.GetSized(size)
}

// PutInts returns an int slice to the default pool.
func PutInts(s []int) {
	defaultIntPool.Put(s)
}

// GetBytes returns a byte slice of length size from the default pool.
func GetBytes(size int) []byte {
	return defaultBytePool.GetSized(size)
}

// PutBytes returns a byte slice to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
