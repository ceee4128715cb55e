// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"fmt"
)

// Block describes one block of the arena partition.
type Block struct {
	Offset int // arena offset of the header
	Size   int // payload bytes
	State  BlockState
}

// Footprint returns the arena bytes covered by the block, header included.
func (b Block) Footprint() int {
	return HeaderSize + b.Size
}

// Walk calls fn for every block in address order until fn returns false.
// The heap must not be modified from fn.
func (h *Heap) Walk(fn func(Block) bool) {
	h.ensureInitialized()
	for off := 0; off < len(h.buf); {
		b, ok := readHeader(h.buf, off)
		if !ok {
			return
		}
		if !fn(Block{Offset: off, Size: b.size, State: b.state}) {
			return
		}
		off += b.footprint()
	}
}

// Blocks returns a snapshot of the partition in address order.
func (h *Heap) Blocks() []Block {
	var blocks []Block
	h.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}

// Stats contains statistical information about a heap.
type Stats struct {
	Capacity    int     // Arena size in bytes
	InUse       int     // Payload bytes held by allocated blocks
	Peak        int     // High-water mark of InUse
	FreeBytes   int     // Payload bytes held by free blocks
	Blocks      int     // Number of blocks in the partition
	FreeBlocks  int     // Number of free blocks
	LargestFree int     // Largest free payload, the biggest request that can succeed
	Utilization float64 // InUse / Capacity (0.0-1.0)
}

// Stats returns a snapshot of heap statistics.
func (h *Heap) Stats() Stats {
	s := Stats{
		Capacity: h.capacity,
		InUse:    h.inUse,
		Peak:     h.peak,
	}
	h.Walk(func(b Block) bool {
		s.Blocks++
		if b.State == StateFree {
			s.FreeBlocks++
			s.FreeBytes += b.Size
			s.LargestFree = max(s.LargestFree, b.Size)
		}
		return true
	})
	if s.Capacity > 0 {
		s.Utilization = float64(s.InUse) / float64(s.Capacity)
	}
	return s
}

// Check verifies that the blocks tile the arena exactly, that no two free
// blocks are adjacent and that the in-use accounting matches the headers.
func (h *Heap) Check() error {
	h.ensureInitialized()
	var (
		off      int
		inUse    int
		prevFree bool
	)
	for off < len(h.buf) {
		b, ok := readHeader(h.buf, off)
		if !ok {
			return fmt.Errorf("%w: bad header at offset %d", ErrCorrupt, off)
		}
		if b.free() {
			if prevFree {
				return fmt.Errorf("%w: adjacent free blocks at offset %d", ErrCorrupt, off)
			}
		} else {
			inUse += b.size
		}
		prevFree = b.free()
		off += b.footprint()
	}
	if off != len(h.buf) {
		return fmt.Errorf("%w: partition ends at %d, arena is %d bytes", ErrCorrupt, off, len(h.buf))
	}
	if inUse != h.inUse {
		return fmt.Errorf("%w: headers hold %d allocated bytes, accounting says %d", ErrCorrupt, inUse, h.inUse)
	}
	return nil
}
