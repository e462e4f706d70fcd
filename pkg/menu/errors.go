package menu

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the payload has no day entry for the requested date.
	ErrNotFound = errors.New("menu: date not found in vendor response")

	// ErrNoPayload indicates a nil payload was passed to the normalizer.
	ErrNoPayload = errors.New("menu: no payload")

	// ErrInvalidDate indicates a date string could not be parsed.
	ErrInvalidDate = errors.New("menu: invalid date")

	// ErrMalformedPayload indicates the matching day entry has an unusable item list.
	ErrMalformedPayload = errors.New("menu: malformed vendor payload")
)

// SkipReason classifies why an item record was left out of the menu.
type SkipReason string

const (
	SkipBlankName       SkipReason = "blank_name"
	SkipMissingField    SkipReason = "missing_field"
	SkipInvalidCalories SkipReason = "invalid_calories"
	SkipMalformed       SkipReason = "malformed"
)

// ItemParseError describes a single skipped item record.
// It is recovered inside the normalizer and only reported through Result.Skipped.
type ItemParseError struct {
	Err    error
	Name   string
	Field  string
	Reason SkipReason
	Index  int
}

func (e *ItemParseError) Error() string {
	msg := fmt.Sprintf("menu: item %d skipped (%s)", e.Index, e.Reason)
	if e.Name != "" {
		msg += fmt.Sprintf(" name=%q", e.Name)
	}
	if e.Field != "" {
		msg += " field=" + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ItemParseError) Unwrap() error {
	return e.Err
}
