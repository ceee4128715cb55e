// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newBufferHeap(t *testing.T, capacity int) *Heap {
	t.Helper()
	h, _ := newRecordedHeap(t, WithCapacity(capacity))
	return h
}

func TestBufferBasicOperations(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))

	// Test initial state
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Cap())
	require.Equal(t, "", buf.String())
	require.Equal(t, []byte{}, buf.Bytes())

	n, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", buf.String())

	require.NoError(t, buf.WriteByte(' '))
	require.Equal(t, "hello ", buf.String())

	n, err = buf.WriteString("world")
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 11, buf.Len())
	require.Equal(t, "hello world", buf.String())
}

func TestBufferReadOperations(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))
	_, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)

	p := make([]byte, 5)
	n, err := buf.Read(p)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), p)
	require.Equal(t, " world", buf.String())

	c, err := buf.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(' '), c)
	require.Equal(t, "world", buf.String())

	p = make([]byte, 10)
	n, err = buf.Read(p)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), p[:n])
	require.Equal(t, 0, buf.Len())

	n, err = buf.Read(p)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 0, n)

	_, err = buf.ReadByte()
	require.Equal(t, io.EOF, err)
}

func TestBufferNext(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))
	_, err := buf.WriteString("hello world")
	require.NoError(t, err)

	require.Equal(t, []byte("hello"), buf.Next(5))
	require.Equal(t, " world", buf.String())

	// more than available
	require.Equal(t, []byte(" world"), buf.Next(10))
	require.Equal(t, 0, buf.Len())

	require.Equal(t, []byte{}, buf.Next(5))
	require.Equal(t, []byte{}, buf.Next(-1))
}

func TestBufferTruncate(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))
	_, err := buf.WriteString("hello world")
	require.NoError(t, err)

	buf.Truncate(5)
	require.Equal(t, "hello", buf.String())

	// truncation counts from the read offset
	buf.Next(1)
	buf.Truncate(2)
	require.Equal(t, "el", buf.String())

	buf.Truncate(0)
	require.Equal(t, "", buf.String())

	require.Panics(t, func() { buf.Truncate(-1) })
	require.Panics(t, func() { buf.Truncate(10) })
}

func TestBufferResetKeepsStorage(t *testing.T) {
	h := newBufferHeap(t, 1024)
	buf := NewBuffer(h)
	_, err := buf.WriteString("hello world")
	require.NoError(t, err)
	inUse := h.Len()

	buf.Reset()
	require.Equal(t, 0, buf.Len())
	require.Equal(t, []byte{}, buf.Bytes())
	require.Equal(t, inUse, h.Len())

	_, err = buf.WriteString("new data")
	require.NoError(t, err)
	require.Equal(t, "new data", buf.String())
	require.Equal(t, inUse, h.Len())
}

func TestBufferStorageComesFromHeap(t *testing.T) {
	h := newBufferHeap(t, 1024)
	buf := NewBuffer(h)

	_, err := buf.WriteString("test data")
	require.NoError(t, err)
	require.True(t, h.Contains(unsafe.Pointer(unsafe.SliceData(buf.buf))))
}

func TestBufferGrowthFreesOldStorage(t *testing.T) {
	h := newBufferHeap(t, 4096)
	buf := NewBuffer(h)

	for i := 0; i < 30; i++ {
		_, err := buf.WriteString(strings.Repeat("x", 50))
		require.NoError(t, err)
	}
	require.Equal(t, 1500, buf.Len())
	require.Equal(t, buf.Cap(), h.Len())
	require.NoError(t, h.Check())

	require.NoError(t, buf.Release())
	require.Equal(t, 0, buf.Cap())
	requireSingleFreeBlock(t, h)
}

func TestBufferHeapExhaustion(t *testing.T) {
	h, rec := newRecordedHeap(t, WithCapacity(64))
	buf := NewBuffer(h)

	largeData := strings.Repeat("a", 200)
	_, err := buf.Write([]byte(largeData))
	require.NoError(t, err) // falls back to standard allocation
	require.Equal(t, largeData, buf.String())
	require.False(t, h.Contains(unsafe.Pointer(unsafe.SliceData(buf.buf))))
	require.Len(t, rec.diags, 1)
	require.ErrorIs(t, rec.diags[0], ErrOutOfMemory)

	require.NoError(t, buf.Release())
}

func TestBufferDiagnosticSource(t *testing.T) {
	h, rec := newRecordedHeap(t, WithCapacity(64))
	buf := NewBuffer(h)

	here := Here()
	_, _ = buf.WriteString(strings.Repeat("a", 200))
	require.Len(t, rec.diags, 1)
	require.Equal(t, "buffer_test.go", filepath.Base(rec.diags[0].Source.File))
	require.Equal(t, here.Line+1, rec.diags[0].Source.Line)
}

func TestBufferWithoutHeap(t *testing.T) {
	buf := NewBuffer(nil)

	_, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, "hello world", buf.String())

	p := make([]byte, 5)
	n, err := buf.Read(p)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, " world", buf.String())
	require.NoError(t, buf.Release())
}

func TestBufferCompactsAfterRead(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))
	_, err := buf.WriteString("hello world")
	require.NoError(t, err)
	buf.Next(6)

	_, err = buf.WriteString("!")
	require.NoError(t, err)
	require.Equal(t, "world!", buf.String())
	require.Equal(t, 0, buf.r)
}

func TestBufferWriteTo(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))
	_, err := buf.WriteString("hello world")
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(11), n)
	require.Equal(t, "hello world", out.String())
	require.Equal(t, 0, buf.Len())

	n, err = buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestBufferReadFrom(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))

	n, err := buf.ReadFrom(strings.NewReader("hello "))
	require.NoError(t, err)
	require.Equal(t, int64(6), n)

	n, err = buf.ReadFrom(bytes.NewReader([]byte("world")))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, "hello world", buf.String())

	n, err = buf.ReadFrom(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestBufferReadFromLargeData(t *testing.T) {
	h := newBufferHeap(t, 64*1024)
	buf := NewBuffer(h)

	largeData := strings.Repeat("abcdefghijklmnopqrstuvwxyz", 200)
	n, err := buf.ReadFrom(strings.NewReader(largeData))
	require.NoError(t, err)
	require.Equal(t, int64(len(largeData)), n)
	require.Equal(t, largeData, buf.String())
	require.True(t, h.Contains(unsafe.Pointer(unsafe.SliceData(buf.buf))))
	require.NoError(t, h.Check())
}

// errorReader is a test helper that returns an error after reading a certain number of bytes
type errorReader struct {
	data   []byte
	pos    int
	errPos int
}

func (er *errorReader) Read(p []byte) (n int, err error) {
	if er.pos >= er.errPos {
		return 0, errors.New("test error")
	}

	remaining := er.errPos - er.pos
	if len(p) > remaining {
		p = p[:remaining]
	}

	n = copy(p, er.data[er.pos:])
	er.pos += n
	return n, nil
}

func TestBufferReadFromWithError(t *testing.T) {
	buf := NewBuffer(newBufferHeap(t, 1024))

	n, err := buf.ReadFrom(&errorReader{data: []byte("hello"), errPos: 3})
	require.EqualError(t, err, "test error")
	require.Equal(t, int64(3), n)
	require.Equal(t, "hel", buf.String())
}

func TestBufferInterfaces(t *testing.T) {
	var (
		_ io.Writer     = (*Buffer)(nil)
		_ io.Reader     = (*Buffer)(nil)
		_ io.ByteReader = (*Buffer)(nil)
		_ io.WriterTo   = (*Buffer)(nil)
		_ io.ReaderFrom = (*Buffer)(nil)
	)
}
