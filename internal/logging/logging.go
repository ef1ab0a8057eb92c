// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Level maps the -v count to a level: none is warn, -v info, -vv debug.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// New returns a text logger tagged with a fresh run id.
func New(w io.Writer, verbosity int) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     Level(verbosity),
		AddSource: verbosity > 2,
	})
	return slog.New(h).With("run", uuid.NewString())
}

// Discard drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
