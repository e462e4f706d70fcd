package subscriber

import "errors"

var (
	// ErrMissingColumn is returned when the header row lacks the email or opt-in column.
	ErrMissingColumn = errors.New("subscriber: required column not found")

	// ErrEmptySheet is returned when the source has no header row.
	ErrEmptySheet = errors.New("subscriber: source has no rows")

	// ErrFetchFailed is returned when a remote source cannot be read.
	ErrFetchFailed = errors.New("subscriber: failed to fetch source")

	// ErrInvalidConfig is returned when no usable source is configured.
	ErrInvalidConfig = errors.New("subscriber: invalid configuration")
)
