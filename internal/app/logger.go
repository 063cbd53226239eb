package app

import (
	"io"
	"log/slog"

	"github.com/Jm20010201/tesseract-planning/internal/config"
)

// newLogger builds an isolated slog.Logger for one App instance; the global
// default logger is left untouched. Unknown level names fall back to info so
// a library host with a partially filled AppConfig still gets sensible logs.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
