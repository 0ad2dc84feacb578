// Package pools provides object pooling for reducing GC pressure.
//
// The sort engine allocates several scratch structures per graph and per
// sort (ready queues, countdown tables, result orders). This package keeps
// them in size-classed sync.Pools:
//
//   - SlicePool: size-class based pooling for slices of any element type
//   - MapPool: pooling for scratch maps
//
// Default pools for node-sized int slices and byte buffers are provided for
// the sort engine and the dump writer.
package pools
