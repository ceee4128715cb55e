// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"log/slog"
	"unsafe"
)

// Heap is a first-fit allocator over a single fixed-capacity arena.
//
// The arena is partitioned into blocks, each a HeaderSize header followed by
// its payload. Alloc hands out the first free block large enough for the
// request, splitting off the remainder when it can hold a header of its own.
// Free marks the block free again and merges every run of adjacent free blocks.
//
// A Heap is not safe for concurrent use; see NewConcurrentHeap.
type Heap struct {
	buf         []byte
	capacity    int
	initialized bool
	warn        WarnFunc

	inUse int // payload bytes held by allocated blocks
	peak  int
}

// New creates a heap with optional configuration. Without options the heap
// manages a DefaultCapacity arena and logs diagnostics through slog.Default.
// New panics if the configured capacity cannot hold a single block header.
func New(opts ...HeapOption) *Heap {
	h := &Heap{
		capacity: DefaultCapacity,
		warn:     defaultWarn,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.capacity < HeaderSize {
		panic("arena: capacity smaller than a block header")
	}
	return h
}

func defaultWarn(d *Diagnostic) {
	slogWarnFunc(slog.Default())(d)
}

// ensureInitialized writes the single free block covering the whole arena the
// first time it runs. Later calls do nothing.
func (h *Heap) ensureInitialized() {
	if h.initialized {
		return
	}
	if h.buf == nil {
		h.buf = make([]byte, h.capacity) // allocate the arena lazily
	}
	writeHeader(h.buf, 0, blockHeader{size: len(h.buf) - HeaderSize, state: StateFree})
	h.initialized = true
}

// Alloc returns a pointer to size usable bytes, or nil when size is not
// positive or no free block is large enough. Out of memory is reported to the
// heap's WarnFunc with the caller's location.
func (h *Heap) Alloc(size int) unsafe.Pointer {
	return h.alloc(size, Source{}, 1)
}

// AllocAt is Alloc with an explicit source location for diagnostics.
func (h *Heap) AllocAt(size int, src Source) unsafe.Pointer {
	return h.alloc(size, src, 1)
}

// alloc performs the allocation. depth is the number of frames between the
// user's call site and alloc, used to resolve the source location lazily.
func (h *Heap) alloc(size int, src Source, depth int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	h.ensureInitialized()

	off, ok := h.firstFit(size)
	if !ok {
		h.report(&Diagnostic{Err: ErrOutOfMemory, Source: src, Size: size, Offset: -1}, depth)
		return nil
	}
	b := h.carve(off, size)

	h.inUse += b.size
	if h.inUse > h.peak {
		h.peak = h.inUse
	}
	return unsafe.Pointer(&h.buf[off+HeaderSize])
}

// firstFit returns the offset of the first free block, in address order,
// whose payload holds at least size bytes. The scan never wraps.
func (h *Heap) firstFit(size int) (int, bool) {
	for off := 0; off < len(h.buf); {
		b, ok := readHeader(h.buf, off)
		if !ok {
			return 0, false
		}
		if b.free() && b.size >= size {
			return off, true
		}
		off += b.footprint()
	}
	return 0, false
}

// carve marks the free block at off allocated for size bytes. When the
// leftover can host a header it becomes a new free block; otherwise the
// leftover stays inside the allocated block so the partition keeps tiling
// the arena.
func (h *Heap) carve(off, size int) blockHeader {
	b, _ := readHeader(h.buf, off)
	if remaining := b.size - size; remaining >= HeaderSize {
		next := off + HeaderSize + size
		writeHeader(h.buf, next, blockHeader{size: remaining - HeaderSize, state: StateFree})
		b.size = size
	}
	b.state = StateAllocated
	writeHeader(h.buf, off, b)
	return b
}

// Free releases the block whose payload starts at ptr. Invalid requests are
// reported to the WarnFunc, returned as a *Diagnostic, and leave the heap
// untouched.
func (h *Heap) Free(ptr unsafe.Pointer) error {
	return h.free(ptr, Source{}, 1)
}

// FreeAt is Free with an explicit source location for diagnostics.
func (h *Heap) FreeAt(ptr unsafe.Pointer, src Source) error {
	return h.free(ptr, src, 1)
}

func (h *Heap) free(ptr unsafe.Pointer, src Source, depth int) error {
	if ptr == nil {
		return h.report(&Diagnostic{Err: ErrNilPointer, Source: src, Offset: -1}, depth)
	}
	h.ensureInitialized()

	pos, inside := h.offsetOf(ptr)
	if !inside {
		return h.report(&Diagnostic{Err: ErrOutOfArena, Source: src, Offset: -1}, depth)
	}
	off, ok := h.blockStart(pos)
	if !ok {
		return h.report(&Diagnostic{Err: ErrUnknownAddress, Source: src, Offset: pos}, depth)
	}

	b, _ := readHeader(h.buf, off)
	if b.free() {
		return h.report(&Diagnostic{Err: ErrRedundantFree, Source: src, Offset: pos}, depth)
	}
	setState(h.buf, off, StateFree)
	h.inUse -= b.size
	h.coalesce()
	return nil
}

// report hands d to the WarnFunc and returns it. It must be called directly
// from alloc or free so the caller's frame can be located.
func (h *Heap) report(d *Diagnostic, depth int) error {
	if d.Source.IsZero() {
		// report, alloc/free, then depth frames up to the caller
		d.Source = callerSource(depth + 2)
	}
	if h.warn != nil {
		h.warn(d)
	}
	return d
}

// Contains reports whether ptr points into the arena.
func (h *Heap) Contains(ptr unsafe.Pointer) bool {
	if ptr == nil || h.buf == nil {
		return false
	}
	_, ok := h.offsetOf(ptr)
	return ok
}

// Offset returns the arena offset ptr points at.
func (h *Heap) Offset(ptr unsafe.Pointer) (int, bool) {
	if ptr == nil || h.buf == nil {
		return -1, false
	}
	return h.offsetOf(ptr)
}

// SizeOf returns the usable payload size of the allocated block starting at
// ptr. It may exceed the requested size when the block could not be split.
func (h *Heap) SizeOf(ptr unsafe.Pointer) (int, bool) {
	if !h.initialized || !h.Contains(ptr) {
		return 0, false
	}
	pos, _ := h.offsetOf(ptr)
	off, ok := h.blockStart(pos)
	if !ok {
		return 0, false
	}
	b, _ := readHeader(h.buf, off)
	if b.free() {
		return 0, false
	}
	return b.size, true
}

// Bytes returns the payload of the allocated block at ptr as a slice of n
// bytes. It returns nil when ptr is not an allocated block start or n exceeds
// the block's payload.
func (h *Heap) Bytes(ptr unsafe.Pointer, n int) []byte {
	size, ok := h.SizeOf(ptr)
	if !ok || n < 0 || n > size {
		return nil
	}
	pos, _ := h.offsetOf(ptr)
	return h.buf[pos : pos+n : pos+size]
}

// Len returns the number of payload bytes currently held by allocated blocks.
func (h *Heap) Len() int {
	return h.inUse
}

// Cap returns the arena size in bytes, headers included.
func (h *Heap) Cap() int {
	return h.capacity
}

// Peak returns the highest value Len has reached.
func (h *Heap) Peak() int {
	return h.peak
}
