// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderLayout(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xff
	}
	writeHeader(buf, 16, blockHeader{size: 0x20, state: StateFree})

	require.Equal(t, []byte{
		0x20, 0, 0, 0, 0, 0, 0, 0, // payload size
		1, 0, 0, 0, // state
		0, 0, 0, 0, // reserved
	}, buf[16:32])

	b, ok := readHeader(buf, 16)
	require.True(t, ok)
	require.Equal(t, blockHeader{size: 0x20, state: StateFree}, b)
	require.Equal(t, 0x30, b.footprint())
}

func TestReadHeaderBounds(t *testing.T) {
	buf := make([]byte, 64)
	writeHeader(buf, 0, blockHeader{size: 48, state: StateAllocated})

	_, ok := readHeader(buf, 0)
	require.True(t, ok)

	// header would cross the end of the buffer
	_, ok = readHeader(buf, 49)
	require.False(t, ok)
	_, ok = readHeader(buf, -1)
	require.False(t, ok)

	// payload larger than what is left
	setSize(buf, 0, 49)
	_, ok = readHeader(buf, 0)
	require.False(t, ok)

	// unknown state
	setSize(buf, 0, 48)
	setState(buf, 0, BlockState(7))
	_, ok = readHeader(buf, 0)
	require.False(t, ok)
}

func TestBlockStateString(t *testing.T) {
	require.Equal(t, "allocated", StateAllocated.String())
	require.Equal(t, "free", StateFree.String())
	require.Equal(t, "invalid", BlockState(9).String())

	text, err := StateFree.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "free", string(text))
}
