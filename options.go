// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"log/slog"
)

// DefaultCapacity is the arena size used when no capacity or buffer is configured.
const DefaultCapacity = 4096

// HeapOption represents a configuration option for a Heap.
type HeapOption func(*Heap)

// WithCapacity sets the fixed arena size in bytes. The arena buffer is
// allocated lazily on first use.
func WithCapacity(size int) HeapOption {
	return func(h *Heap) {
		h.capacity = size
		h.buf = nil
	}
}

// WithBuffer makes the heap manage buf instead of allocating its own arena.
// The capacity becomes len(buf). The caller must not touch buf afterwards
// other than through pointers handed out by the heap.
func WithBuffer(buf []byte) HeapOption {
	return func(h *Heap) {
		h.buf = buf
		h.capacity = len(buf)
	}
}

// WithLogger routes diagnostics to logger at warn level.
func WithLogger(logger *slog.Logger) HeapOption {
	return func(h *Heap) {
		h.warn = slogWarnFunc(logger)
	}
}

// WithWarnFunc sets the diagnostic sink. A nil fn silences diagnostics.
func WithWarnFunc(fn WarnFunc) HeapOption {
	return func(h *Heap) {
		h.warn = fn
	}
}
