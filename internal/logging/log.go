// Package logging builds the structured loggers used by the harness.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// LevelEnv overrides the default log level.
const LevelEnv = "E2E_LOG_LEVEL"

// Options configures a logger.
type Options struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string
	// Output defaults to os.Stderr.
	Output io.Writer
	// Prefix is the component name shown before each line.
	Prefix string
	// TimeFormat defaults to time.RFC3339.
	TimeFormat string
	// ReportTimestamp adds timestamps to log lines.
	ReportTimestamp bool
}

// DefaultOptions returns the options used by Default.
func DefaultOptions() Options {
	return Options{
		Level:           "info",
		Output:          os.Stderr,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: isTerminal(os.Stderr),
	}
}

// ParseLevel converts a level name to a log.Level. Unknown names map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info", "":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger with the given options.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	timeFormat := opts.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      timeFormat,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

// Default creates a stderr logger, honouring E2E_LOG_LEVEL.
func Default() *log.Logger {
	opts := DefaultOptions()
	if level := os.Getenv(LevelEnv); level != "" {
		opts.Level = level
	}
	return New(opts)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *log.Logger {
	return New(Options{Output: io.Discard, Level: "error"})
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
