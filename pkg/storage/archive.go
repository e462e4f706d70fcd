package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
)

// Target is one destination of an Archive.
type Target struct {
	Name    string
	Storage Storage
	Prefix  string
}

// Archive writes rendered menus to every configured target.
type Archive struct {
	targets []Target
	logger  *slog.Logger
}

// NewArchive returns an Archive over targets. Targets with a nil Storage are skipped.
func NewArchive(logger *slog.Logger, targets ...Target) *Archive {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Archive{logger: logger}
	for _, t := range targets {
		if t.Storage != nil {
			a.targets = append(a.targets, t)
		}
	}
	return a
}

// Enabled reports whether at least one target is configured.
func (a *Archive) Enabled() bool {
	return a != nil && len(a.targets) > 0
}

// Key returns the object key for a menu date under prefix: "<prefix>/<date>.html".
func Key(prefix, date string) string {
	return path.Join(prefix, date+".html")
}

// Save writes html for date to all targets. Every target is attempted; the keys of
// successful writes are returned along with the joined failures.
func (a *Archive) Save(ctx context.Context, date string, html []byte) ([]string, error) {
	if !a.Enabled() {
		return nil, nil
	}

	var keys []string
	var errs []error
	for _, t := range a.targets {
		key := Key(t.Prefix, date)
		_, err := t.Storage.Put(ctx, key, bytes.NewReader(html), int64(len(html)),
			WithContentType("text/html; charset=utf-8"),
			WithCacheControl("no-cache"),
		)
		if err != nil {
			a.logger.WarnContext(ctx, "archive write failed",
				slog.String("target", t.Name),
				slog.String("key", key),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		a.logger.DebugContext(ctx, "menu archived", slog.String("target", t.Name), slog.String("key", key))
		keys = append(keys, key)
	}

	if len(errs) > 0 {
		return keys, errors.Join(append([]error{ErrArchiveFailed}, errs...)...)
	}
	return keys, nil
}
