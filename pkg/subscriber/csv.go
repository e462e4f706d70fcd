package subscriber

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// CSVSource reads a CSV export from a local file or an http(s) URL.
type CSVSource struct {
	http     *resty.Client
	location string
	cols     Columns
}

// NewCSV returns a source for location, a file path or an http(s) URL.
func NewCSV(location string, cols Columns, timeout time.Duration) *CSVSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CSVSource{
		http:     resty.New().SetTimeout(timeout),
		location: location,
		cols:     cols,
	}
}

// Subscribers reads and parses the whole export.
func (s *CSVSource) Subscribers(ctx context.Context) ([]Subscriber, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := readCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ParseRows(rows, s.cols)
}

func (s *CSVSource) read(ctx context.Context) ([]byte, error) {
	if isURL(s.location) {
		resp, err := s.http.R().SetContext(ctx).Get(s.location)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailed, s.location, resp.Status())
		}
		return resp.Body(), nil
	}

	data, err := os.ReadFile(s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return data, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("subscriber: parse csv: %w", err)
	}
	// Excel exports prefix the first header with a UTF-8 BOM.
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
