package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/cmd/heapexplorer/logger"
	"github.com/joshuapare/heapkit/internal/driver"
	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	args := os.Args[1:]
	debugMode := false
	checkMode := false

	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "--debug", "-d":
			debugMode = true
		case "--check", "-c":
			checkMode = true
		default:
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: debugMode,
		Level:   slog.LevelDebug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	if filteredArgs[0] == "--help" || filteredArgs[0] == "-h" {
		printHelp()
		os.Exit(0)
	}

	if filteredArgs[0] == "--version" || filteredArgs[0] == "-v" {
		fmt.Printf("heapexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	tracePath := filteredArgs[0]
	logger.Info("starting heapexplorer", "path", tracePath, "debug", debugMode, "log", logger.Path())

	tr, err := trace.ParseFile(tracePath)
	if err != nil {
		logger.Error("failed to load trace", "path", tracePath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := NewModel(tr, driver.Config{Check: checkMode, Logger: logger.L})

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			logger.Warn("error closing heap", "error", err)
		}
	}

	logger.Info("heapexplorer exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options] <trace-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapexplorer - Step through an allocation trace and watch the heap")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapexplorer [options] <trace-file>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Replays a malloc-lab style trace one op at a time on a fresh heap,")
	fmt.Println("  showing the block chain and the occupancy of every size class.")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    n/space     Replay the next op")
	fmt.Println("    p           Undo the last op")
	fmt.Println("    e           Replay to the end")
	fmt.Println("    r           Restart the trace")
	fmt.Println("    ↑/k, ↓/j    Move the cursor")
	fmt.Println("    Tab         Switch between blocks and free lists")
	fmt.Println("    v           Validate the heap")
	fmt.Println("    c           Copy the selected block")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -c, --check    Validate the heap after every op")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.heapexplorer/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("For non-interactive replays, use the 'mmctl' command instead.")
}
