// Package logging provides the process-wide *slog.Logger used by every
// pipeline stage.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// logger holds the package-level logger instance. Defaults to nil,
// which causes L() to install and return a discard logger.
var logger atomic.Pointer[slog.Logger]

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Set installs sl as the package-level logger. Pass nil to disable
// logging. Safe for concurrent use.
func Set(sl *slog.Logger) {
	if sl == nil {
		logger.Store(newDiscardLogger())
		return
	}
	logger.Store(sl)
}

// L returns the package-level logger, installing a discard logger on
// first use if none has been set. Safe for concurrent use.
func L() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		logger.Store(l)
	}
	return l
}

// ParseLevel parses a RUST_LOG-style level string
// (off|error|warn|info|debug). An empty string is treated as "info".
// The off level is reported via the enabled=false return; callers should
// install a discard logger rather than an slog.Level in that case.
func ParseLevel(s string) (level slog.Level, enabled bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelInfo, true, nil
	case "off":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	default:
		return 0, false, fmt.Errorf("logging: unrecognized level %q", s)
	}
}

// Init installs the package-level logger from a RUST_LOG-style level
// string, writing text-formatted records to stderr.
func Init(levelStr string) error {
	level, enabled, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	if !enabled {
		Set(nil)
		return nil
	}
	Set(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
