// SPDX-License-Identifier: Apache-2.0

// Package arena implements a first-fit heap over a single fixed-capacity
// memory arena, with malloc/free style allocation and deallocation.
//
// # Memory Layout
//
// The arena is tiled by blocks. Each block is a HeaderSize byte header
// followed directly by its payload:
//
//	offset 0            16                 16+n
//	       | size | state | payload (n bytes) | next header ...
//
// At first use the arena holds a single free block covering everything but
// its header. Alloc walks the blocks in address order and takes the first
// free one that is large enough, splitting off the rest as a new free block
// when the rest can hold a header. If it cannot, the rest stays part of the
// allocation, so the blocks always add up to exactly the arena's capacity.
//
// Free accepts only pointers returned by Alloc. Nil pointers, pointers
// outside the arena, pointers that are not a payload start and already freed
// blocks are rejected without touching the heap. After every successful
// Free the whole arena is swept once and runs of adjacent free blocks are
// merged.
//
// # Basic Usage
//
//	h := arena.New(arena.WithCapacity(4096))
//
//	p := h.Alloc(128)
//	if p == nil {
//		// out of memory
//	}
//	buf := h.Bytes(p, 128)
//	...
//	if err := h.Free(p); err != nil {
//		// errors.Is(err, arena.ErrRedundantFree), ...
//	}
//
// # Diagnostics
//
// Out of memory and every rejected Free are reported to a WarnFunc together
// with the caller's source location; by default they are logged through
// log/slog at warn level. Use AllocAt and FreeAt to pass an explicit Source.
//
// # Thread Safety
//
// Heap is not safe for concurrent use. NewConcurrentHeap wraps a heap with a
// single mutex that covers allocation, deallocation and coalescing.
//
// # Important Notes
//
//   - The capacity is fixed; the heap never grows.
//   - Payloads carry no alignment guarantee beyond what HeaderSize implies.
//     Allocate and AllocateSlice hand a misaligned block back and fall back
//     to the Go heap.
//   - The garbage collector does not scan the arena. Do not store Go
//     pointers in memory obtained from a Heap.
package arena
