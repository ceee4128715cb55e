// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"unsafe"

	arena "github.com/wundergraph/go-heaparena"
)

type allocation struct {
	ptr  unsafe.Pointer
	size int
}

// Result summarises a script run.
type Result struct {
	Allocs      int `json:"allocs"`
	Frees       int `json:"frees"`
	Diagnostics int `json:"diagnostics"`
}

// Runner executes parsed ops against a heap and writes a report to out.
type Runner struct {
	heap    *arena.Heap
	out     io.Writer
	jsonOut bool

	named map[string]allocation
	stray [1]byte // a byte that is never part of the arena
}

// NewRunner creates a runner for heap. When jsonOut is set, dump and stats
// are written as JSON documents.
func NewRunner(heap *arena.Heap, out io.Writer, jsonOut bool) *Runner {
	return &Runner{
		heap:    heap,
		out:     out,
		jsonOut: jsonOut,
		named:   make(map[string]allocation),
	}
}

// Run executes ops in order. Heap diagnostics are counted and reported but do
// not stop the run; script errors such as unknown names do.
func (r *Runner) Run(ops []Op) (Result, error) {
	var res Result
	for _, op := range ops {
		var err error
		switch op.Kind {
		case OpAlloc:
			err = r.alloc(op, &res)
		case OpFree:
			err = r.free(op, &res)
		case OpDump:
			err = r.dump()
		case OpStats:
			err = r.stats()
		case OpCheck:
			err = r.check(op, &res)
		default:
			err = fmt.Errorf("unsupported op %s", op.Kind)
		}
		if err != nil {
			return res, fmt.Errorf("line %d: %w", op.Line, err)
		}
	}
	return res, nil
}

func (r *Runner) alloc(op Op, res *Result) error {
	res.Allocs++
	ptr := r.heap.AllocAt(op.Size, r.source(op))
	if ptr == nil {
		if op.Size > 0 {
			res.Diagnostics++
		}
		return r.printf("%d: alloc %s %d -> nil\n", op.Line, op.Name, op.Size)
	}
	r.named[op.Name] = allocation{ptr: ptr, size: op.Size}
	off, _ := r.heap.Offset(ptr)
	return r.printf("%d: alloc %s %d -> offset %d\n", op.Line, op.Name, op.Size, off)
}

func (r *Runner) free(op Op, res *Result) error {
	ptr, err := r.resolve(op)
	if err != nil {
		return err
	}
	res.Frees++
	target := op.Name
	if op.Delta != 0 {
		target = fmt.Sprintf("%s%+d", op.Name, op.Delta)
	}
	if err := r.heap.FreeAt(ptr, r.source(op)); err != nil {
		res.Diagnostics++
		var d *arena.Diagnostic
		if errors.As(err, &d) {
			err = d.Err
		}
		return r.printf("%d: free %s -> %v\n", op.Line, target, err)
	}
	return r.printf("%d: free %s -> ok\n", op.Line, target)
}

func (r *Runner) resolve(op Op) (unsafe.Pointer, error) {
	switch op.Name {
	case TargetNil:
		return nil, nil
	case TargetStray:
		return unsafe.Pointer(&r.stray[0]), nil
	}
	a, ok := r.named[op.Name]
	if !ok {
		return nil, fmt.Errorf("unknown allocation %q", op.Name)
	}
	if op.Delta >= a.size {
		return nil, fmt.Errorf("offset %d is outside %q (%d bytes)", op.Delta, op.Name, a.size)
	}
	if off, _ := r.heap.Offset(a.ptr); off+op.Delta < 0 {
		return nil, fmt.Errorf("offset %d is before the start of the arena", op.Delta)
	}
	return unsafe.Add(a.ptr, op.Delta), nil
}

func (r *Runner) source(op Op) arena.Source {
	return arena.Source{File: "script", Line: op.Line}
}

func (r *Runner) dump() error {
	blocks := r.heap.Blocks()
	if r.jsonOut {
		return r.writeJSON(map[string]any{"blocks": blocks})
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tHEADER\tPAYLOAD\tSTATE")
	for _, b := range blocks {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", b.Offset, arena.HeaderSize, b.Size, b.State)
	}
	return tw.Flush()
}

func (r *Runner) stats() error {
	s := r.heap.Stats()
	if r.jsonOut {
		return r.writeJSON(s)
	}
	return r.printf("capacity=%d in_use=%d peak=%d free=%d blocks=%d free_blocks=%d largest_free=%d utilization=%.2f\n",
		s.Capacity, s.InUse, s.Peak, s.FreeBytes, s.Blocks, s.FreeBlocks, s.LargestFree, s.Utilization)
}

func (r *Runner) check(op Op, res *Result) error {
	if err := r.heap.Check(); err != nil {
		res.Diagnostics++
		return r.printf("%d: check -> %v\n", op.Line, err)
	}
	return r.printf("%d: check -> ok\n", op.Line)
}

func (r *Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Runner) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(r.out, format, args...)
	return err
}
