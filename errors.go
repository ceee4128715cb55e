// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

var (
	// ErrOutOfMemory indicates that no free block is large enough for the request.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrNilPointer indicates a Free call with a nil pointer.
	ErrNilPointer = errors.New("arena: free of nil pointer")

	// ErrOutOfArena indicates a pointer that lies outside the arena bounds.
	ErrOutOfArena = errors.New("arena: pointer not in arena")

	// ErrUnknownAddress indicates a pointer inside the arena that is not the
	// payload start of any block.
	ErrUnknownAddress = errors.New("arena: pointer is not a block start")

	// ErrRedundantFree indicates a Free call on a block that is already free.
	ErrRedundantFree = errors.New("arena: redundant free")

	// ErrCorrupt indicates that the block partition no longer tiles the arena.
	ErrCorrupt = errors.New("arena: corrupt block list")
)

// Source is the code location an allocation or free was requested from.
// It only enriches diagnostics.
type Source struct {
	File string
	Line int
}

// Here returns the location of its caller.
func Here() Source {
	return callerSource(1)
}

func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0
}

func (s Source) String() string {
	if s.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(s.File), s.Line)
}

func callerSource(skip int) Source {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Source{}
	}
	return Source{File: file, Line: line}
}

// Diagnostic describes a rejected or failed heap operation. It is handed to
// the heap's WarnFunc and returned from Free.
type Diagnostic struct {
	Err    error
	Source Source
	// Size is the requested size for allocation failures.
	Size int
	// Offset is the arena offset of the pointer involved, or -1 when the
	// pointer has no position inside the arena.
	Offset int
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s (%s)", d.Err, d.Source)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// WarnFunc receives every diagnostic the heap emits. Its outcome never
// influences the heap.
type WarnFunc func(d *Diagnostic)

// slogWarnFunc logs diagnostics at warn level.
func slogWarnFunc(logger *slog.Logger) WarnFunc {
	return func(d *Diagnostic) {
		attrs := []any{
			slog.String("file", d.Source.File),
			slog.Int("line", d.Source.Line),
		}
		if d.Size > 0 {
			attrs = append(attrs, slog.Int("size", d.Size))
		}
		if d.Offset >= 0 {
			attrs = append(attrs, slog.Int("offset", d.Offset))
		}
		logger.Warn(d.Err.Error(), attrs...)
	}
}
