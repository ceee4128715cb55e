//go:build !unix

// Package membuf provides arena backing memory that does not come from the Go heap.
package membuf

import "fmt"

// Anonymous allocates size bytes from the Go heap when mmap is not available.
func Anonymous(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("membuf: invalid size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}
