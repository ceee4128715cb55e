// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"
)

// isOutsideArena reports whether addr lies before the arena start or at or
// after its end.
func (h *Heap) isOutsideArena(addr uintptr) bool {
	if len(h.buf) == 0 {
		return true
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(h.buf)))
	return addr < start || addr-start >= uintptr(len(h.buf))
}

// offsetOf converts ptr into an arena offset.
func (h *Heap) offsetOf(ptr unsafe.Pointer) (int, bool) {
	addr := uintptr(ptr)
	if h.isOutsideArena(addr) {
		return -1, false
	}
	return int(addr - uintptr(unsafe.Pointer(unsafe.SliceData(h.buf)))), true
}

// blockStart walks the partition from offset 0 and returns the header offset
// of the block whose payload starts at pos.
func (h *Heap) blockStart(pos int) (int, bool) {
	for off := 0; off < len(h.buf); {
		b, ok := readHeader(h.buf, off)
		if !ok {
			return 0, false
		}
		if off+HeaderSize == pos {
			return off, true
		}
		if off+HeaderSize > pos {
			// blocks are visited in address order
			return 0, false
		}
		off += b.footprint()
	}
	return 0, false
}
