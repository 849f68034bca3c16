// Package rlog centralizes rolymo's logging setup: one charmbracelet/log
// logger per process, leveled by the -v/--verbosity flag.
package rlog

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New builds a logger writing to w (os.Stderr in production, io.Discard
// or a buffer in tests) at the given verbosity: 0 is Info, negative
// values raise the level toward Warn/Error (quiet), positive values
// lower it toward Debug (verbose).
func New(w io.Writer, verbosity int) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	logger.SetLevel(levelFor(verbosity))
	return logger
}

// Default builds rolymo's standard stderr logger at Info level.
func Default() *log.Logger {
	return New(os.Stderr, 0)
}

func levelFor(verbosity int) log.Level {
	switch {
	case verbosity <= -2:
		return log.ErrorLevel
	case verbosity == -1:
		return log.WarnLevel
	case verbosity == 0:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}
