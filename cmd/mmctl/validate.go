package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/driver"
	"github.com/joshuapare/heapkit/internal/trace"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <trace>",
		Short: "Check a trace and replay it with full heap checking",
		Long: `The validate command checks that a trace is well formed (no free of a
dead id, no double allocation), then replays it validating the entire heap
after every op.

Example:
  mmctl validate short1.rep
  mmctl validate short1.rep --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
	return cmd
}

func runValidate(args []string) error {
	path := args[0]
	printVerbose("Validating trace: %s\n", path)

	tr, err := trace.ParseFile(path)
	if err != nil {
		return err
	}

	traceErr := tr.Check()
	var heapErr error
	if traceErr == nil {
		s, err := replay(path, driver.Config{Check: true})
		if err != nil {
			heapErr = err
		} else {
			s.Close()
		}
	}

	result := map[string]interface{}{
		"file":  path,
		"ops":   len(tr.Ops),
		"valid": traceErr == nil && heapErr == nil,
	}
	if traceErr != nil {
		result["error"] = traceErr.Error()
	} else if heapErr != nil {
		result["error"] = heapErr.Error()
	}

	if jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
		if traceErr != nil {
			return traceErr
		}
		return heapErr
	}

	printInfo("\nValidating %s...\n\n", path)

	if traceErr != nil {
		printInfo("  ✗ Trace: %v\n", traceErr)
		printInfo("\nResult: ✗ INVALID\n")
		return traceErr
	}
	printInfo("  ✓ Trace well formed (%d ops)\n", len(tr.Ops))

	if heapErr != nil {
		printInfo("  ✗ Heap: %v\n", heapErr)
		printInfo("\nResult: ✗ INVALID\n")
		return heapErr
	}
	printInfo("  ✓ Heap consistent after every op\n")
	printInfo("\nResult: ✓ VALID\n")
	return nil
}
