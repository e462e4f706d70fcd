package health

import "errors"

// Sentinel errors for the health package.
var (
	// ErrCheckTimeout is returned when a health check exceeds its timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)
