// Package logger is the explorer's debug log. Everything is discarded
// unless Init is called with Enabled set, in which case JSON records go to
// a dated file under ~/.heapexplorer/logs.
package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger. It discards everything until Init enables it.
var L = slog.New(slog.DiscardHandler)

// path is the file L writes to, empty when logging is off.
var path string

const (
	logPrefix     = "heapexplorer-"
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 14
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	LogDir  string     // Default: ~/.heapexplorer/logs
	Level   slog.Level // Minimum level
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) error {
	if !opts.Enabled {
		L = slog.New(slog.DiscardHandler)
		path = ""
		return nil
	}

	logDir := opts.LogDir
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		logDir = filepath.Join(home, ".heapexplorer", "logs")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}
	pruneLogs(logDir, time.Now().AddDate(0, 0, -retentionDays))

	name := filepath.Join(logDir, logPrefix+time.Now().Format(dateLayout)+logSuffix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	L = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level}))
	path = name
	return nil
}

// Path returns the current log file, or "" when logging is off.
func Path() string { return path }

// pruneLogs removes dated log files older than cutoff.
func pruneLogs(logDir string, cutoff time.Time) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		day, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, logPrefix), logSuffix))
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
