// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"encoding/binary"
)

// HeaderSize is the number of bytes every block header occupies in the arena.
// The payload of a block starts immediately after its header.
const HeaderSize = 16

// header field offsets
const (
	sizeOffset  = 0
	stateOffset = 8
)

// BlockState tells whether a block's payload is handed out to a caller.
type BlockState uint32

const (
	StateAllocated BlockState = iota
	StateFree
)

func (s BlockState) String() string {
	switch s {
	case StateAllocated:
		return "allocated"
	case StateFree:
		return "free"
	default:
		return "invalid"
	}
}

// MarshalText renders the state by name.
func (s BlockState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type blockHeader struct {
	size  int // payload bytes following the header
	state BlockState
}

func (b blockHeader) free() bool {
	return b.state == StateFree
}

// footprint is the number of arena bytes the block covers, header included.
func (b blockHeader) footprint() int {
	return HeaderSize + b.size
}

// readHeader decodes the header stored at off. It reports false when a header
// at off would not fit in buf or when the stored fields cannot describe a
// block inside buf.
func readHeader(buf []byte, off int) (blockHeader, bool) {
	if off < 0 || off > len(buf)-HeaderSize {
		return blockHeader{}, false
	}
	raw := buf[off : off+HeaderSize]
	size := binary.LittleEndian.Uint64(raw[sizeOffset:])
	state := BlockState(binary.LittleEndian.Uint32(raw[stateOffset:]))
	if size > uint64(len(buf)-off-HeaderSize) || state > StateFree {
		return blockHeader{}, false
	}
	return blockHeader{size: int(size), state: state}, true
}

func writeHeader(buf []byte, off int, b blockHeader) {
	raw := buf[off : off+HeaderSize]
	binary.LittleEndian.PutUint64(raw[sizeOffset:], uint64(b.size))
	binary.LittleEndian.PutUint32(raw[stateOffset:], uint32(b.state))
	clear(raw[stateOffset+4:])
}

// setState rewrites only the state field of the header at off.
func setState(buf []byte, off int, s BlockState) {
	binary.LittleEndian.PutUint32(buf[off+stateOffset:], uint32(s))
}

// setSize rewrites only the payload size field of the header at off.
func setSize(buf []byte, off int, size int) {
	binary.LittleEndian.PutUint64(buf[off+sizeOffset:], uint64(size))
}
