package job

import "errors"

var (
	ErrUnknownTask     = errors.New("job: unknown task")
	ErrInvalidPayload  = errors.New("job: invalid payload")
	ErrInvalidSchedule = errors.New("job: invalid cron schedule")
	ErrAlreadyStarted  = errors.New("job: already started")
	ErrNotStarted      = errors.New("job: not started")
	ErrPoolRequired    = errors.New("job: pool is required")

	// ErrNoRetry marks a task failure that must not be retried.
	ErrNoRetry = errors.New("job: failure is final")
)
