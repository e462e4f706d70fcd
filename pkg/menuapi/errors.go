package menuapi

import (
	"errors"
	"fmt"
)

// Sentinel errors. A *FetchError matches exactly one of the kind sentinels via errors.Is.
var (
	// ErrClientError indicates the request or response is unusable; retrying cannot help.
	ErrClientError = errors.New("menuapi: client error")

	// ErrTransient indicates a network failure or a 5xx response.
	ErrTransient = errors.New("menuapi: transient error")

	// ErrTimeout indicates the retry budget ran out before a successful response.
	ErrTimeout = errors.New("menuapi: retry budget exhausted")

	// ErrNoMenus indicates a successful response without any menu entity.
	ErrNoMenus = errors.New("menuapi: response contains no menus")

	// ErrInvalidConfig indicates the client configuration is incomplete.
	ErrInvalidConfig = errors.New("menuapi: invalid configuration")
)

// Kind classifies a fetch failure.
type Kind int

const (
	KindClientError Kind = iota + 1
	KindTransient
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindClientError:
		return "client_error"
	case KindTransient:
		return "transient_error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// FetchError is returned by Client.Fetch.
type FetchError struct {
	Err        error
	Kind       Kind
	StatusCode int
	Attempts   int
}

func (e *FetchError) Error() string {
	msg := "menuapi: " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrClientError:
		return e.Kind == KindClientError
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}
