package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a stdout logger from cfg with optional context extractors.
// Records also go to Sentry when cfg.Sentry.DSN is set.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, extractors...)
}

// NewWithWriter is New writing to w.
func NewWithWriter(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	base := newHandler(w, cfg)
	if sentryHandler := newSentryHandler(cfg.Sentry, base); sentryHandler != nil {
		base = fanoutHandler{base, sentryHandler}
	}
	return slog.New(newContextHandler(base, extractors...))
}

// NewNope returns a logger that discards everything. Components fall back to it
// when constructed without a logger.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
