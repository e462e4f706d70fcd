package subscriber

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Source kinds.
const (
	KindSheets = "sheets"
	KindCSV    = "csv"
	KindStatic = "static"
)

// Config selects and configures the subscriber source.
type Config struct {
	Kind        string `env:"SUBSCRIBERS_SOURCE" envDefault:"sheets"`
	EmailColumn string `env:"SUBSCRIBERS_EMAIL_COLUMN" envDefault:"Email Address"`
	OptInColumn string `env:"SUBSCRIBERS_OPT_IN_COLUMN" envDefault:"Subscribed"`

	SheetID         string `env:"SUBSCRIBERS_SHEET_ID"`
	SheetRange      string `env:"SUBSCRIBERS_SHEET_RANGE" envDefault:"Form Responses 1"`
	SheetsAPIKey    string `env:"SUBSCRIBERS_SHEETS_API_KEY"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// CSV is a file path or an http(s) URL of a CSV export.
	CSV string `env:"SUBSCRIBERS_CSV"`

	Static []string `env:"SUBSCRIBERS_STATIC" envSeparator:","`

	Timeout time.Duration `env:"SUBSCRIBERS_TIMEOUT" envDefault:"30s"`
}

// Columns returns the configured header names.
func (c Config) Columns() Columns {
	return Columns{Email: c.EmailColumn, OptIn: c.OptInColumn}
}

// Validate checks that the selected source has what it needs.
func (c Config) Validate() error {
	switch strings.ToLower(c.Kind) {
	case KindSheets, "":
		if c.SheetID == "" {
			return fmt.Errorf("%w: SUBSCRIBERS_SHEET_ID is required for the sheets source", ErrInvalidConfig)
		}
		if c.CredentialsFile == "" && c.SheetsAPIKey == "" {
			return fmt.Errorf("%w: sheets source needs GOOGLE_APPLICATION_CREDENTIALS or SUBSCRIBERS_SHEETS_API_KEY", ErrInvalidConfig)
		}
	case KindCSV:
		if c.CSV == "" {
			return fmt.Errorf("%w: SUBSCRIBERS_CSV is required for the csv source", ErrInvalidConfig)
		}
	case KindStatic:
		if len(c.Static) == 0 {
			return fmt.Errorf("%w: SUBSCRIBERS_STATIC is empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Kind)
	}
	return nil
}

// New builds the Source selected by cfg.Kind.
func New(ctx context.Context, cfg Config, opts ...SheetsOption) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Kind) {
	case KindCSV:
		return NewCSV(cfg.CSV, cfg.Columns(), cfg.Timeout), nil
	case KindStatic:
		return NewStatic(cfg.Static...), nil
	default:
		return NewSheets(ctx, SheetsConfig{
			SpreadsheetID:   cfg.SheetID,
			Range:           cfg.SheetRange,
			CredentialsFile: cfg.CredentialsFile,
			APIKey:          cfg.SheetsAPIKey,
			Columns:         cfg.Columns(),
			Timeout:         cfg.Timeout,
		}, opts...)
	}
}
