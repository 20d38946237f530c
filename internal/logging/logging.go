// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"log/slog"

	"github.com/daimatz/jclass/internal/config"
)

// New returns a logger writing to w in the configured format. verbose
// forces debug level.
func New(w io.Writer, cfg config.LogConfig, verbose bool) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}
