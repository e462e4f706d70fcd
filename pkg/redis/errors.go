package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrFailedToParseURL   = errors.New("redis: failed to parse connection URL")
	ErrConnectionFailed   = errors.New("redis: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")

	// ErrNoClient means the cache backend is redis but no client was opened.
	ErrNoClient = errors.New("redis: client not configured")
	// ErrReadOnly means the server is a replica; the payload cache cannot write to it.
	ErrReadOnly = errors.New("redis: server is read-only")
)
