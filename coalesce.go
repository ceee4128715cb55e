// SPDX-License-Identifier: Apache-2.0

package arena

// coalesce sweeps the whole partition once, left to right. Every free block
// absorbs the run of free blocks directly after it, so each maximal run ends
// up as a single block after one pass.
func (h *Heap) coalesce() {
	for off := 0; off < len(h.buf); {
		b, ok := readHeader(h.buf, off)
		if !ok {
			return
		}
		next := off + b.footprint()
		if b.free() {
			merged := b.size
			for next < len(h.buf) {
				nb, ok := readHeader(h.buf, next)
				if !ok || !nb.free() {
					break
				}
				merged += nb.footprint()
				next += nb.footprint()
			}
			if merged != b.size {
				setSize(h.buf, off, merged)
			}
		}
		off = next
	}
}
