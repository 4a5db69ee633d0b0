package voxel

import "sync"

// Arena is the transient-allocation scope a Generator borrows scratch
// buffers from (C5/§6 "From an allocator"). It is backed by a sync.Pool of
// reusable voxel slices, the same pooling idiom this codebase already uses
// for per-frame scratch buffers. Buffers obtained from an Arena must be
// released before the arena goes out of scope; the core never retains an
// arena allocation past the return of the function that requested it.
type Arena struct {
	pool *sync.Pool
}

// NewArena creates an arena whose pooled buffers have at least minCapacity
// of spare capacity, matching a generator's declared TotalBufferSize.
func NewArena(minCapacity int) *Arena {
	if minCapacity < 0 {
		minCapacity = 0
	}
	return &Arena{
		pool: &sync.Pool{
			New: func() any {
				b := make([]Voxel, 0, minCapacity)
				return &b
			},
		},
	}
}

// Alloc returns a zero-length voxel slice with at least the arena's declared
// capacity, ready to be appended to.
func (a *Arena) Alloc() []Voxel {
	bufPtr := a.pool.Get().(*[]Voxel)
	return (*bufPtr)[:0]
}

// Release returns a buffer to the arena's pool for reuse. Callers must not
// touch buf after calling Release.
func (a *Arena) Release(buf []Voxel) {
	buf = buf[:0]
	a.pool.Put(&buf)
}
