package app

import (
	"io"
	"log/slog"

	"github.com/flemzord/cronsync/internal/config"
	"github.com/flemzord/cronsync/internal/security"
)

// NewLogger builds the process logger: a text or JSON handler on w, wrapped
// so that every record passes through redactor.
func NewLogger(w io.Writer, cfg config.LogConfig, redactor *security.Redactor) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}
