package pool

import "sync"

// Slice pools for efficient reuse of typed scratch slices built once per
// record during row-to-column transposition.
var (
	uint32SlicePool = sync.Pool{
		New: func() any { return &[]uint32{} },
	}
)

// GetUint32Slice retrieves and resizes a uint32 slice from the pool.
//
// The returned slice will have the exact length specified by the size
// parameter. If the pooled slice has insufficient capacity, a new slice is
// allocated. The caller must call the returned cleanup function to return
// the slice to the pool once it is done referencing it (safe once the
// caller has copied or consumed its contents, e.g. after PatternDict.Intern
// returns).
//
// Example:
//
//	ids, cleanup := pool.GetUint32Slice(len(rec.Info))
//	defer cleanup()
//	// fill ids, intern it, then let cleanup return it to the pool
func GetUint32Slice(size int) ([]uint32, func()) {
	ptr, _ := uint32SlicePool.Get().(*[]uint32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint32, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { uint32SlicePool.Put(ptr) }
}
