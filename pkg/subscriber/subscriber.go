package subscriber

import (
	"context"
	"fmt"
	"strings"
)

// Subscriber is one signup row.
type Subscriber struct {
	Email      string
	Subscribed bool
}

// Source yields the current subscriber list.
type Source interface {
	Subscribers(ctx context.Context) ([]Subscriber, error)
}

// Default header names, matching a Google Forms response sheet.
const (
	DefaultEmailColumn = "Email Address"
	DefaultOptInColumn = "Subscribed"
)

// Columns names the header cells holding the address and the opt-in answer.
// Matching is case-insensitive and ignores surrounding whitespace.
type Columns struct {
	Email string
	OptIn string
}

func (c Columns) withDefaults() Columns {
	if strings.TrimSpace(c.Email) == "" {
		c.Email = DefaultEmailColumn
	}
	if strings.TrimSpace(c.OptIn) == "" {
		c.OptIn = DefaultOptInColumn
	}
	return c
}

var truthy = map[string]struct{}{
	"yes":  {},
	"y":    {},
	"true": {},
	"1":    {},
	"x":    {},
}

// IsTruthy reports whether an opt-in cell means "subscribed".
func IsTruthy(v string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// ParseRows converts a header row plus data rows into subscribers.
// Rows with an empty email are skipped; short rows read missing cells as empty.
func ParseRows(rows [][]string, cols Columns) ([]Subscriber, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	cols = cols.withDefaults()

	emailIdx, optInIdx := -1, -1
	for i, h := range rows[0] {
		switch {
		case emailIdx < 0 && strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(cols.Email)):
			emailIdx = i
		case optInIdx < 0 && strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(cols.OptIn)):
			optInIdx = i
		}
	}
	if emailIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Email)
	}
	if optInIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.OptIn)
	}

	out := make([]Subscriber, 0, len(rows)-1)
	for _, row := range rows[1:] {
		email := strings.TrimSpace(cell(row, emailIdx))
		if email == "" {
			continue
		}
		out = append(out, Subscriber{
			Email:      email,
			Subscribed: IsTruthy(cell(row, optInIdx)),
		})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
