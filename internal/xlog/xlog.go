// Package xlog centralizes the slog.Logger construction every pipeline
// stage uses, following the teacher's runtime/lexer.New and
// cli/internal/parser.New convention: a text handler over stderr with the
// timestamp attribute dropped, at info level unless switched to debug level
// by an environment variable or the CLI's --verbose flag (SPEC_FULL.md §A.1).
package xlog

import (
	"log/slog"
	"os"
)

// New builds a logger for the named pipeline component. verbose forces
// debug level regardless of the HQL_DEBUG environment variable.
func New(component string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose || os.Getenv("HQL_DEBUG") != "" {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler).With("component", component)
}
