package logger

import (
	"log/slog"
	"os"
)

// NewHandler creates the process-wide slog handler. Nil options get a
// sensible default level.
func NewHandler(opts *slog.HandlerOptions) slog.Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}

	return slog.NewJSONHandler(os.Stdout, opts)
}
