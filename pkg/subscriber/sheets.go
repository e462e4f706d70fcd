package subscriber

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	sheetsBaseURL        = "https://sheets.googleapis.com/v4/spreadsheets"
	sheetsReadonlyScope  = "https://www.googleapis.com/auth/spreadsheets.readonly"
	defaultSheetsTimeout = 30 * time.Second
)

// SheetsConfig locates a Google Sheets range.
type SheetsConfig struct {
	SpreadsheetID string
	Range         string

	// CredentialsJSON is a service-account key. When empty, CredentialsFile is read.
	CredentialsJSON []byte
	CredentialsFile string

	// APIKey reads a publicly shared sheet without a service account.
	APIKey string

	Columns Columns
	Timeout time.Duration
}

// SheetsOption configures a SheetsSource.
type SheetsOption func(*sheetsOptions)

type sheetsOptions struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient replaces the authenticated client; credentials are then ignored.
func WithHTTPClient(client *http.Client) SheetsOption {
	return func(o *sheetsOptions) {
		o.httpClient = client
	}
}

// WithBaseURL overrides the Sheets API endpoint.
func WithBaseURL(u string) SheetsOption {
	return func(o *sheetsOptions) {
		o.baseURL = u
	}
}

// SheetsSource reads subscribers from a spreadsheet range via the Sheets v4 values API.
type SheetsSource struct {
	http *resty.Client
	cfg  SheetsConfig
}

type valueRange struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// NewSheets builds a SheetsSource. Without an injected client it authenticates
// with a read-only service-account token, or with APIKey when no credentials are set.
func NewSheets(ctx context.Context, cfg SheetsConfig, opts ...SheetsOption) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" || cfg.Range == "" {
		return nil, fmt.Errorf("%w: spreadsheet id and range are required", ErrInvalidConfig)
	}

	o := sheetsOptions{baseURL: sheetsBaseURL}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		client, err := sheetsClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		o.httpClient = client
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSheetsTimeout
	}

	rc := resty.NewWithClient(o.httpClient).
		SetBaseURL(o.baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rc.SetQueryParam("key", cfg.APIKey)
	}

	return &SheetsSource{http: rc, cfg: cfg}, nil
}

func sheetsClient(ctx context.Context, cfg SheetsConfig) (*http.Client, error) {
	key := cfg.CredentialsJSON
	if len(key) == 0 && cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read credentials: %w", ErrInvalidConfig, err)
		}
		key = data
	}
	if len(key) == 0 {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: credentials or api key required", ErrInvalidConfig)
		}
		// resty sets the timeout and transport on the client it wraps.
		return &http.Client{}, nil
	}

	creds, err := google.CredentialsFromJSON(ctx, key, sheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %w", ErrInvalidConfig, err)
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

// Subscribers reads the configured range; the first row is the header.
func (s *SheetsSource) Subscribers(ctx context.Context) ([]Subscriber, error) {
	var vr valueRange
	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&vr).
		Get("/" + url.PathEscape(s.cfg.SpreadsheetID) + "/values/" + url.PathEscape(s.cfg.Range))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: sheets api returned %s", ErrFetchFailed, resp.Status())
	}

	rows := make([][]string, len(vr.Values))
	for i, r := range vr.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			if v != nil {
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	return ParseRows(rows, s.cfg.Columns)
}
