package app

import (
	"io"
	"log/slog"

	"github.com/dshills/lmlassist/internal/config"
)

// NewLogger returns a slog logger writing cfg's format at cfg's level.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
