package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "heaptrace",
	Short: "Replay allocation scripts against a first-fit arena heap",
	Long: `heaptrace runs scripts of alloc/free commands against a fixed-capacity
first-fit heap and prints the resulting block partition, statistics and
diagnostics such as out of memory, invalid pointers and double frees.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics at debug detail")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output dump and stats in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger returns the logger heap diagnostics are written to.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
