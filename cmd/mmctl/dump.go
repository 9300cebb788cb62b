package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/driver"
)

var (
	dumpFreeOnly bool
	dumpStats    bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().BoolVar(&dumpFreeOnly, "free-only", false, "Show only free blocks")
	cmd.Flags().BoolVar(&dumpStats, "stats", false, "Print allocator counters after the chain")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <trace>",
		Short: "Replay a trace and print the resulting block chain",
		Long: `The dump command replays a trace and prints every block of the heap in
address order with its size, status and, for free blocks, its size class.

Example:
  mmctl dump short1.rep
  mmctl dump short1.rep --free-only --stats
  mmctl dump short1.rep --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

type dumpBlock struct {
	Offset    int  `json:"offset"`
	Size      int  `json:"size"`
	Allocated bool `json:"allocated"`
	Class     int  `json:"class"`
}

type dumpOutput struct {
	HeapSize int                   `json:"heap_size"`
	Blocks   []dumpBlock           `json:"blocks"`
	Buckets  [alloc.NumClasses]int `json:"buckets"`
	Stats    *alloc.Stats          `json:"stats,omitempty"`
}

func runDump(args []string) error {
	s, err := replay(args[0], driver.Config{})
	if err != nil {
		return err
	}
	defer s.Close()
	h := s.Heap()

	blocks, err := h.Blocks()
	if err != nil {
		return fmt.Errorf("failed to walk heap: %w", err)
	}

	out := dumpOutput{HeapSize: h.Size(), Buckets: h.Buckets()}
	for _, b := range blocks {
		if dumpFreeOnly && b.Allocated {
			continue
		}
		out.Blocks = append(out.Blocks, dumpBlock{
			Offset:    int(b.Ptr),
			Size:      b.Size,
			Allocated: b.Allocated,
			Class:     b.Class,
		})
	}
	if dumpStats {
		st := h.Stats()
		out.Stats = &st
	}

	if jsonOut {
		return printJSON(out)
	}

	printInfo("%-12s %10s  %-6s %s\n", "offset", "size", "status", "class")
	for _, b := range out.Blocks {
		if b.Allocated {
			printInfo("0x%-10X %10d  %-6s\n", b.Offset, b.Size, "used")
			continue
		}
		printInfo("0x%-10X %10d  %-6s %d\n", b.Offset, b.Size, "free", b.Class)
	}
	printInfo("\n%d blocks, heap size %d bytes\n", len(out.Blocks), out.HeapSize)

	if dumpStats && !quiet {
		fmt.Fprintln(os.Stdout)
		h.PrintStats(os.Stdout)
	}
	return nil
}
