package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/driver"
	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	runCheck    bool
	runArena    string
	runDir      string
	runLimit    int
	runParallel int
	runSnapshot string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runCheck, "check", false, "Validate the whole heap after every op")
	cmd.Flags().StringVar(&runArena, "arena", "memory", "Arena backing (memory, anonymous, file)")
	cmd.Flags().StringVar(&runDir, "dir", "", "Directory for file arena heaps (default: OS temp dir)")
	cmd.Flags().IntVar(&runLimit, "limit", 0, "Maximum heap size in bytes (0 for the arena default)")
	cmd.Flags().IntVar(&runParallel, "parallel", 0, "Traces replayed at once (0 for GOMAXPROCS)")
	cmd.Flags().StringVar(&runSnapshot, "snapshot", "", "Save a compressed heap image after replay (single trace only)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>...",
		Short: "Replay traces and report utilization",
		Long: `The run command replays one or more allocation traces, each on a fresh
heap, checking alignment, bounds, overlap and payload integrity for every
block the allocator returns. Traces run concurrently.

Example:
  mmctl run traces/*.rep
  mmctl run short1.rep --check
  mmctl run binary.rep --arena file --snapshot binary.heap.br
  mmctl run traces/*.rep --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

func runRun(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := parseArena(runArena)
	if err != nil {
		return err
	}
	cfg := driver.Config{Arena: kind, Dir: runDir, Limit: runLimit, Check: runCheck}

	if runSnapshot != "" {
		if len(args) != 1 {
			return errors.New("--snapshot needs exactly one trace")
		}
		return runWithSnapshot(ctx, args[0], cfg)
	}

	traces := make([]*trace.Trace, 0, len(args))
	for _, path := range args {
		tr, err := trace.ParseFile(path)
		if err != nil {
			return err
		}
		traces = append(traces, tr)
	}

	results, runErr := driver.RunAll(ctx, traces, cfg, runParallel)

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
		return runErr
	}

	printResults(results)
	if runErr != nil {
		printError("%v\n", runErr)
	}
	return runErr
}

func runWithSnapshot(ctx context.Context, path string, cfg driver.Config) error {
	s, err := replay(path, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Finish(ctx)
	if err != nil {
		return err
	}
	if err := writeSnapshot(runSnapshot, s.Arena().Bytes()); err != nil {
		return err
	}
	printVerbose("Snapshot written to %s (%d bytes uncompressed)\n", runSnapshot, res.HeapSize)

	if jsonOut {
		return printJSON([]*driver.Result{res})
	}
	printResults([]*driver.Result{res})
	return nil
}

func printResults(results []*driver.Result) {
	printInfo("%-20s %-9s %8s %10s %10s %7s %12s\n", "trace", "arena", "ops", "peak", "heap", "util", "time")
	for _, r := range results {
		status := fmt.Sprintf("%6.1f%%", r.Utilization*100)
		if r.Error != "" {
			status = "   FAIL"
		}
		printInfo("%-20s %-9s %8d %10d %10d %7s %12s\n",
			r.Trace, r.Arena, r.Ops, r.PeakPayload, r.HeapSize, status, r.Duration)
		if r.HeapFile != "" {
			printVerbose("  heap file: %s\n", r.HeapFile)
		}
	}
	printInfo("\nMean utilization: %.1f%%\n", driver.Utilization(results)*100)
}
