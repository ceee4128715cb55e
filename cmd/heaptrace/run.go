package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	arena "github.com/wundergraph/go-heaparena"
	"github.com/wundergraph/go-heaparena/internal/membuf"
	"github.com/wundergraph/go-heaparena/internal/trace"
)

var (
	runCapacity int
	runMmap     bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVarP(&runCapacity, "capacity", "c", arena.DefaultCapacity, "Arena capacity in bytes")
	cmd.Flags().BoolVar(&runMmap, "mmap", false, "Back the arena with anonymous mmap memory")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [script]",
		Short: "Run an allocation script",
		Long: `The run command executes an allocation script, reading it from stdin
when no file is given.

Script commands:
  alloc NAME SIZE   allocate SIZE bytes and remember the pointer as NAME
  free NAME[+N]     free NAME, optionally N bytes past its start
  free nil          free a nil pointer
  free stray        free a pointer that is not in the arena
  dump              print the block partition
  stats             print heap statistics
  check             verify partition invariants

Example:
  heaptrace run script.txt
  echo "alloc a 100
  free a
  free a
  dump" | heaptrace run --capacity 1024`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runScript(in, cmd.OutOrStdout(), newLogger(cmd.ErrOrStderr()))
		},
	}
}

func runScript(in io.Reader, out io.Writer, logger *slog.Logger) error {
	if runCapacity < arena.HeaderSize {
		return fmt.Errorf("capacity must be at least %d bytes", arena.HeaderSize)
	}
	ops, err := trace.Parse(in)
	if err != nil {
		return err
	}

	opts := []arena.HeapOption{arena.WithCapacity(runCapacity), arena.WithLogger(logger)}
	if runMmap {
		buf, release, err := membuf.Anonymous(runCapacity)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(); err != nil {
				logger.Error("failed to release arena", "error", err)
			}
		}()
		opts = append(opts, arena.WithBuffer(buf))
	}
	heap := arena.New(opts...)

	res, err := trace.NewRunner(heap, out, jsonOut).Run(ops)
	logger.Debug("script finished",
		slog.Int("ops", len(ops)),
		slog.Int("allocs", res.Allocs),
		slog.Int("frees", res.Frees),
		slog.Int("diagnostics", res.Diagnostics))
	return err
}
