// SPDX-License-Identifier: Apache-2.0

package arena_test

import (
	"errors"
	"fmt"

	arena "github.com/wundergraph/go-heaparena"
)

func Example() {
	h := arena.New(arena.WithCapacity(256), arena.WithWarnFunc(nil))

	a := h.Alloc(32)
	b := h.Alloc(32)
	copy(h.Bytes(a, 5), "hello")

	_ = h.Free(a)
	_ = h.Free(b)

	for _, blk := range h.Blocks() {
		fmt.Println(blk.Offset, blk.Size, blk.State)
	}
	// Output:
	// 0 240 free
}

func ExampleHeap_Free() {
	h := arena.New(arena.WithWarnFunc(func(d *arena.Diagnostic) {
		fmt.Println("warning:", d.Err)
	}))

	p := h.Alloc(16)
	fmt.Println(h.Free(p) == nil)

	err := h.Free(p)
	fmt.Println(errors.Is(err, arena.ErrRedundantFree))
	// Output:
	// true
	// warning: arena: redundant free
	// true
}

func ExampleNewBuffer() {
	h := arena.New(arena.WithCapacity(1024))
	buf := arena.NewBuffer(h)

	fmt.Fprintf(buf, "%d blocks", 3)
	fmt.Println(buf.String(), h.Len() > 0)

	_ = buf.Release()
	fmt.Println(h.Len())
	// Output:
	// 3 blocks true
	// 0
}
