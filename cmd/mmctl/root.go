package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "mmctl",
	Short: "Replay allocation traces against the heapkit allocator",
	Long: `mmctl replays malloc-lab style allocation traces against the heapkit
segregated free list allocator, checks every block it hands out, and reports
space utilization. It can also dump the block chain after a replay and verify
saved heap snapshots.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseArena maps an --arena flag value to an arena kind.
func parseArena(s string) (arena.Kind, error) {
	switch strings.ToLower(s) {
	case "memory", "mem", "":
		return arena.Memory, nil
	case "anonymous", "anon", "mmap":
		return arena.Anonymous, nil
	case "file":
		return arena.File, nil
	default:
		return 0, fmt.Errorf("unknown arena %q (must be memory, anonymous, or file)", s)
	}
}
