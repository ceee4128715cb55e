// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"errors"
	"io"
)

// minRead is the spare capacity ReadFrom makes room for before each read.
const minRead = 512

// Buffer is a bytes.Buffer-like struct backed by an Allocator.
// It implements io.Writer, io.Reader, io.ByteReader, io.WriterTo and
// io.ReaderFrom. When the buffer grows, its previous storage is freed back
// to the allocator. Call Release to return the storage once done.
type Buffer struct {
	heap Allocator
	buf  []byte
	r    int // read offset into buf
}

// NewBuffer creates a new Buffer backed by the given allocator.
// If heap is nil, it will fall back to standard Go allocation.
func NewBuffer(heap Allocator) *Buffer {
	return &Buffer{heap: heap}
}

// Write implements io.Writer interface.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.compact()
	b.buf = sliceAppend(b.heap, b.buf, 1, p...)
	return len(p), nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	b.compact()
	b.buf = sliceAppend(b.heap, b.buf, 1, c)
	return nil
}

// WriteString writes a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	b.compact()
	b.buf = sliceAppend(b.heap, b.buf, 1, []byte(s)...)
	return len(s), nil
}

// WriteTo implements io.WriterTo. It drains the buffer into w.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if b.Len() == 0 {
		return 0, nil
	}
	m, err := w.Write(b.buf[b.r:])
	b.r += m
	n = int64(m)
	if err == nil && b.Len() > 0 {
		err = io.ErrShortWrite
	}
	return n, err
}

// Read reads up to len(p) bytes from the buffer into p.
// It returns io.EOF once the buffer has no unread bytes.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.Len() == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, b.buf[b.r:])
	b.r += n
	return n, nil
}

// ReadByte reads and returns the next byte from the buffer.
func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// Bytes returns a slice of length b.Len() holding the unread portion of the buffer.
// The slice is valid for use only until the next buffer modification.
func (b *Buffer) Bytes() []byte {
	if b.Len() == 0 {
		return []byte{}
	}
	return b.buf[b.r:]
}

// String returns the contents of the unread portion of the buffer as a string.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Len returns the number of bytes of the unread portion of the buffer.
func (b *Buffer) Len() int {
	return len(b.buf) - b.r
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset resets the buffer to be empty but keeps its storage.
func (b *Buffer) Reset() {
	b.r = 0
	if b.buf != nil {
		b.buf = b.buf[:0]
	}
}

// Release resets the buffer and frees its storage back to the allocator.
func (b *Buffer) Release() error {
	err := FreeSlice(b.heap, b.buf)
	b.buf = nil
	b.r = 0
	return err
}

// Truncate discards all but the first n unread bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.Len() {
		panic("arena: truncation out of range")
	}
	b.buf = b.buf[:b.r+n]
}

// Next returns a slice containing the next n bytes from the buffer,
// advancing the buffer as if the bytes had been returned by Read.
// The slice is valid for use only until the next buffer modification.
func (b *Buffer) Next(n int) []byte {
	n = min(max(n, 0), b.Len())
	if n == 0 {
		return []byte{}
	}
	data := b.buf[b.r : b.r+n]
	b.r += n
	return data
}

// ReadFrom implements io.ReaderFrom interface.
// It reads data from r until EOF or error, writing it to the buffer.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	b.compact()
	for {
		if cap(b.buf)-len(b.buf) < minRead {
			b.buf = growSlice(b.heap, b.buf, minRead, 1)
		}
		m, er := r.Read(b.buf[len(b.buf):cap(b.buf)])
		if m < 0 {
			panic("arena: reader returned negative count from Read")
		}
		b.buf = b.buf[:len(b.buf)+m]
		n += int64(m)
		if er != nil {
			if errors.Is(er, io.EOF) {
				return n, nil
			}
			return n, er
		}
	}
}

// compact moves the unread bytes to the front once everything before the
// read offset has been consumed.
func (b *Buffer) compact() {
	if b.r == 0 {
		return
	}
	m := copy(b.buf, b.buf[b.r:])
	b.buf = b.buf[:m]
	b.r = 0
}
