// Package logging builds the process logger: human-readable tint output on
// stderr, info level by default and debug with --verbose.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// EnvLevel overrides the level when set to a slog level name (debug, info, warn, error).
const EnvLevel = "KEYLOAD_LOG_LEVEL"

// New returns a logger writing to w.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if raw := os.Getenv(EnvLevel); raw != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(raw)); err == nil {
			level = l
		}
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
