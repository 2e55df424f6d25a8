package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/huangsam/skillmine/schema"
)

// Color variables for console output.
var (
	DoneColor    = color.New(color.FgGreen, color.Bold)   // finished repositories
	FailedColor  = color.New(color.FgRed, color.Bold)     // failed repositories
	PendingColor = color.New(color.FgYellow)              // partially processed repositories
	SkippedColor = color.New(color.FgCyan)                // claimed or filtered repositories
	HeaderColor  = color.New(color.FgMagenta, color.Bold) // section headers
)

// GetColorState returns a colored state label for console output (table).
func GetColorState(state schema.RepoState) string {
	text := string(state)
	switch state {
	case schema.StateDone:
		return DoneColor.Sprint(text)
	case schema.StateFailed:
		return FailedColor.Sprint(text)
	case schema.StateRawStatsCollected, schema.StateScored:
		return PendingColor.Sprint(text)
	default:
		return SkippedColor.Sprint(text)
	}
}

// logger is the process-wide structured logger.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Logger returns the process-wide structured logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// ConfigureLogger replaces the process-wide logger.
// format is "text" or "json"; level is debug, info, warn or error.
func ConfigureLogger(w io.Writer, format, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format %q. must be text or json", format)
	}
	logger.Store(slog.New(handler))
	return nil
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", FailedColor.Sprint("Fatal"), msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	Logger().Warn(msg, "error", err)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the commit-stat cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".skillmine_cache.db"
	}
	return filepath.Join(homeDir, ".skillmine_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for the run ledger.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".skillmine_runs.db"
	}
	return filepath.Join(homeDir, ".skillmine_runs.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// TruncatePath truncates a path to a maximum width with an ellipsis prefix.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}
