// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"
)

const growThreshold = 256

// AllocateSlice creates a slice of type T with a given length and capacity,
// using the provided Allocator for memory allocation.
// If the allocator is non-nil and has a suitably aligned block, the slice is
// backed by its arena. Otherwise, it returns a slice using Go's built-in make
// function.
// T must not contain Go pointers.
func AllocateSlice[T any](a Allocator, len, cap int) []T {
	return allocateSlice[T](a, len, cap, 1)
}

func allocateSlice[T any](a Allocator, len, cap int, depth int) []T {
	if a != nil {
		var x T
		bufSize := int(unsafe.Sizeof(x)) * cap
		if ptr := (*T)(allocAligned(a, bufSize, unsafe.Alignof(x), depth+1)); ptr != nil {
			s := unsafe.Slice(ptr, cap)
			clear(s)
			return s[:len]
		}
	}
	return make([]T, len, cap)
}

// FreeSlice returns the backing array of s to the allocator when it was
// allocated there. Other slices are ignored.
func FreeSlice[T any](a Allocator, s []T) error {
	if a == nil || cap(s) == 0 {
		return nil
	}
	ptr := unsafe.Pointer(unsafe.SliceData(s[:cap(s)]))
	if !a.Contains(ptr) {
		return nil
	}
	return a.Free(ptr)
}

// SliceAppend appends elements to a slice of type T using a provided Allocator
// for memory allocation if needed. When the slice has to grow, its old
// backing array is freed if it came from the allocator.
func SliceAppend[T any](a Allocator, s []T, data ...T) []T {
	return sliceAppend(a, s, 1, data...)
}

func sliceAppend[T any](a Allocator, s []T, depth int, data ...T) []T {
	if a == nil {
		return append(s, data...)
	}
	s = growSlice(a, s, len(data), depth+1)
	s = append(s, data...)
	return s
}

func growSlice[T any](a Allocator, s []T, dataLen int, depth int) []T {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s
	}
	s2 := allocateSlice[T](a, len(s), newCap, depth+1)
	copy(s2, s)
	_ = FreeSlice(a, s)
	return s2
}
