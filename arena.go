// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"
)

// Allocator is an interface that describes a heap with individual deallocation.
type Allocator interface {
	// Alloc allocates size bytes and returns a pointer to them, or nil when
	// size is not positive or the request cannot be satisfied.
	Alloc(size int) unsafe.Pointer

	// AllocAt is Alloc with an explicit source location for diagnostics.
	AllocAt(size int, src Source) unsafe.Pointer

	// Free releases memory previously returned by Alloc.
	// Invalid pointers and double frees are rejected with an error that
	// wraps one of the package's sentinel errors.
	Free(ptr unsafe.Pointer) error

	// FreeAt is Free with an explicit source location for diagnostics.
	FreeAt(ptr unsafe.Pointer, src Source) error

	// Contains reports whether ptr points into memory managed by the allocator.
	Contains(ptr unsafe.Pointer) bool

	// Len returns the number of bytes currently held by live allocations.
	Len() int

	// Cap returns the total capacity of the allocator in bytes.
	Cap() int

	// Peak returns the highest value Len has reached.
	Peak() int
}

// depthAllocator is implemented by allocators that can resolve the user's
// call site lazily when a diagnostic is emitted. depth counts the frames
// between the user's call site and alloc.
type depthAllocator interface {
	alloc(size int, src Source, depth int) unsafe.Pointer
}

// allocFrom allocates size bytes from a on behalf of a caller depth frames
// above allocFrom.
func allocFrom(a Allocator, size int, depth int) unsafe.Pointer {
	if da, ok := a.(depthAllocator); ok {
		return da.alloc(size, Source{}, depth+1)
	}
	return a.AllocAt(size, callerSource(depth+1))
}

// allocAligned allocates size bytes whose address is a multiple of align.
// Payloads carry no alignment guarantee, so a misaligned block is handed back
// and nil is returned.
func allocAligned(a Allocator, size int, align uintptr, depth int) unsafe.Pointer {
	ptr := allocFrom(a, size, depth+1)
	if ptr == nil {
		return nil
	}
	if align > 1 && uintptr(ptr)%align != 0 {
		_ = a.Free(ptr)
		return nil
	}
	return ptr
}

// Allocate allocates memory for a value of type T using the provided Allocator.
// If the allocator is non-nil and has a suitably aligned block, the returned
// *T lives in its arena. Otherwise it allocates memory using Go's built-in
// new function.
// T must not contain Go pointers: the garbage collector does not scan the arena.
func Allocate[T any](a Allocator) *T {
	if a != nil {
		var x T
		if ptr := allocAligned(a, int(unsafe.Sizeof(x)), unsafe.Alignof(x), 1); ptr != nil {
			p := (*T)(ptr)
			*p = x
			return p
		}
	}
	return new(T)
}

// Release frees a value obtained from Allocate. Values that Allocate had to
// place on the Go heap are left to the garbage collector.
func Release[T any](a Allocator, p *T) error {
	if a == nil || p == nil || !a.Contains(unsafe.Pointer(p)) {
		return nil
	}
	return a.Free(unsafe.Pointer(p))
}
