package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/alloc"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "classes",
		Short: "List the allocator's size classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	})
}

type classRange struct {
	Class int `json:"class"`
	Min   int `json:"min_payload"`
	Max   int `json:"max_payload"` // -1 for unbounded
}

func runClasses() error {
	classes := make([]classRange, 0, alloc.NumClasses)
	for i := range alloc.NumClasses {
		lo, hi := alloc.ClassBounds(i)
		classes = append(classes, classRange{Class: i, Min: lo, Max: hi})
	}

	if jsonOut {
		return printJSON(classes)
	}

	printInfo("%-6s %s\n", "class", "payload bytes")
	for _, c := range classes {
		switch {
		case c.Max < 0:
			printInfo("%-6d >= %d\n", c.Class, c.Min)
		case c.Min == c.Max:
			printInfo("%-6d %d\n", c.Class, c.Min)
		default:
			printInfo("%-6d %d-%d\n", c.Class, c.Min, c.Max)
		}
	}
	return nil
}
