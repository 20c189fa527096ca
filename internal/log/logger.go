package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: one line per request, task outcomes
	LevelDebug        // -vv: upstream calls, extraction decisions
	LevelTrace        // -vvv: full payload details
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Custom slog levels mapped to our verbosity
const (
	slogLevelTrace = slog.Level(-8) // Below debug
)

var levelNames = map[string]int{
	"quiet": LevelQuiet,
	"info":  LevelInfo,
	"debug": LevelDebug,
	"trace": LevelTrace,
}

var (
	verbosity int
	logger    *slog.Logger
)

// Initialize sets up the global logger with the specified verbosity level
// and output format. It is meant to be called once at startup, before any
// request is served.
func Initialize(level int, format string, w io.Writer) {
	verbosity = level

	// Map our verbosity to slog levels
	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(handler)
}

// ParseLevel converts a level name (quiet, info, debug, trace) to a verbosity.
func ParseLevel(name string) (int, error) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LevelQuiet, fmt.Errorf("unknown log level %q (want quiet, info, debug or trace)", name)
	}
	return level, nil
}

// ValidFormat reports whether format names a supported output format.
func ValidFormat(format string) bool {
	return format == FormatText || format == FormatJSON
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	if verbosity >= LevelInfo {
		logger.Info(msg, args...)
	}
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	if verbosity >= LevelDebug {
		logger.Debug(msg, args...)
	}
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	if verbosity >= LevelTrace {
		logger.Log(context.Background(), slogLevelTrace, msg, args...)
	}
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// IsInfo returns true if info-level logging is enabled
func IsInfo() bool {
	return verbosity >= LevelInfo
}

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool {
	return verbosity >= LevelDebug
}

// IsTrace returns true if trace-level logging is enabled
func IsTrace() bool {
	return verbosity >= LevelTrace
}

// Verbosity returns the current verbosity level
func Verbosity() int {
	return verbosity
}

// Logger returns the underlying slog logger, for libraries that accept one
// (net/http's ErrorLog via slog.NewLogLogger).
func Logger() *slog.Logger {
	return logger
}

func init() {
	// Default initialization with quiet mode to stderr
	verbosity = LevelQuiet
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
