package menuapi

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Clock abstracts time for the retry loop.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Default retry settings.
const (
	DefaultBaseDelay  = time.Second
	DefaultMaxElapsed = time.Hour
)

// Policy is an exponential backoff bounded by total elapsed time, not attempt count.
// The delay starts at BaseDelay and doubles after every failed attempt. A retry is
// abandoned when the time already spent plus the next delay would exceed MaxElapsed.
type Policy struct {
	// IsRetryable decides whether an attempt error may be retried.
	// Nil means IsRetryable (transient errors only).
	IsRetryable func(error) bool

	BaseDelay  time.Duration
	MaxElapsed time.Duration

	// MaxDelay caps a single delay. Zero disables the cap.
	MaxDelay time.Duration

	// JitterPercent randomizes each delay by up to +/- this percentage (0-100).
	JitterPercent uint64
}

// DefaultPolicy returns a 1s base delay with a one hour budget.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:  DefaultBaseDelay,
		MaxElapsed: DefaultMaxElapsed,
	}
}

// IsRetryable reports whether err is a transient fetch failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

func (p Policy) withDefaults() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = DefaultMaxElapsed
	}
	if p.JitterPercent > 100 {
		p.JitterPercent = 100
	}
	return p
}

func (p Policy) retryable(err error) bool {
	if p.IsRetryable != nil {
		return p.IsRetryable(err)
	}
	return IsRetryable(err)
}

// delays returns a fresh delay sequence. It never stops on its own; the elapsed
// budget is enforced by the caller against its Clock.
func (p Policy) delays() retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	if p.JitterPercent > 0 {
		b = retry.WithJitterPercent(p.JitterPercent, b)
	}
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return b
}
