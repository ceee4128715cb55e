// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"unsafe"
)

// ConcurrentHeap guards a Heap with a single mutex. Allocation, deallocation
// and the coalescing sweep run as one critical section, so no goroutine can
// observe a header while another one rewrites it.
type ConcurrentHeap struct {
	mtx sync.Mutex
	h   *Heap
}

// NewConcurrentHeap returns a heap that is safe to be accessed concurrently
// from multiple goroutines. h must not be used directly afterwards.
func NewConcurrentHeap(h *Heap) *ConcurrentHeap {
	return &ConcurrentHeap{h: h}
}

// Alloc satisfies the Allocator interface.
func (c *ConcurrentHeap) Alloc(size int) unsafe.Pointer {
	return c.alloc(size, Source{}, 1)
}

// AllocAt satisfies the Allocator interface.
func (c *ConcurrentHeap) AllocAt(size int, src Source) unsafe.Pointer {
	return c.alloc(size, src, 1)
}

func (c *ConcurrentHeap) alloc(size int, src Source, depth int) unsafe.Pointer {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return nil
	}
	return c.h.alloc(size, src, depth+1)
}

// Free satisfies the Allocator interface.
func (c *ConcurrentHeap) Free(ptr unsafe.Pointer) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return &Diagnostic{Err: ErrOutOfArena, Source: callerSource(1), Offset: -1}
	}
	return c.h.free(ptr, Source{}, 1)
}

// FreeAt satisfies the Allocator interface.
func (c *ConcurrentHeap) FreeAt(ptr unsafe.Pointer, src Source) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return &Diagnostic{Err: ErrOutOfArena, Source: src, Offset: -1}
	}
	return c.h.free(ptr, src, 1)
}

// Contains satisfies the Allocator interface.
func (c *ConcurrentHeap) Contains(ptr unsafe.Pointer) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return false
	}
	return c.h.Contains(ptr)
}

// Offset returns the arena offset ptr points at.
func (c *ConcurrentHeap) Offset(ptr unsafe.Pointer) (int, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return -1, false
	}
	return c.h.Offset(ptr)
}

// SizeOf returns the usable payload size of the allocated block starting at ptr.
func (c *ConcurrentHeap) SizeOf(ptr unsafe.Pointer) (int, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0, false
	}
	return c.h.SizeOf(ptr)
}

// Bytes returns the payload of the allocated block at ptr as a slice of n
// bytes. The lock only covers the lookup: the caller owns the block and must
// not free it while the slice is in use.
func (c *ConcurrentHeap) Bytes(ptr unsafe.Pointer, n int) []byte {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return nil
	}
	return c.h.Bytes(ptr, n)
}

// Walk calls fn for every block while holding the lock.
// fn must not call back into c.
func (c *ConcurrentHeap) Walk(fn func(Block) bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return
	}
	c.h.Walk(fn)
}

// Blocks returns a snapshot of all blocks in address order.
func (c *ConcurrentHeap) Blocks() []Block {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return nil
	}
	return c.h.Blocks()
}

// Len returns the number of payload bytes currently held by allocated blocks.
func (c *ConcurrentHeap) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0
	}
	return c.h.Len()
}

// Cap returns the arena size in bytes.
func (c *ConcurrentHeap) Cap() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0
	}
	return c.h.Cap()
}

// Peak returns the highest value Len has reached.
func (c *ConcurrentHeap) Peak() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0
	}
	return c.h.Peak()
}

// Stats returns a snapshot of heap statistics.
func (c *ConcurrentHeap) Stats() Stats {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return Stats{}
	}
	return c.h.Stats()
}

// Check verifies the partition invariants of the wrapped heap.
func (c *ConcurrentHeap) Check() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return nil
	}
	return c.h.Check()
}
