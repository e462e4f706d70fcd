package job

import (
	"context"
	"log/slog"
	"time"
)

type config struct {
	registry   *taskRegistry
	queues     map[string]int
	logger     *slog.Logger
	location   *time.Location
	schedules  []scheduleConfig
	maxWorkers int
	runOnStart bool

	jobTimeout           time.Duration
	scheduledMaxAttempts int
}

func newConfig() *config {
	return &config{
		registry:             newTaskRegistry(),
		queues:               make(map[string]int),
		scheduledMaxAttempts: defaultScheduledMaxAttempts,
	}
}

type scheduleConfig struct {
	handler  scheduledHandler
	name     string
	schedule string
}

type scheduledHandler func(context.Context) error

// Option configures the job manager.
type Option func(*config)

// WithTask registers a task handler. Go cannot infer P from Handle, so name it.
//
//	func (t *SendMenu) Name() string { return "send_menu" }
//	func (t *SendMenu) Handle(ctx context.Context, p SendMenuPayload) error { ... }
//
//	job.WithTask[tasks.SendMenuPayload](tasks.NewSendMenu(runner, loc))
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), newTaskWrapper[P, T](task))
	}
}

// WithScheduledTask registers a periodic task. Schedule returns a 5-field cron
// expression (min hour day month weekday).
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     task.Name(),
			schedule: task.Schedule(),
			handler:  task.Handle,
		})
	}
}

// WithLocation evaluates cron schedules in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		c.location = loc
	}
}

// WithRunOnStart makes periodic jobs fire once when the manager starts.
func WithRunOnStart(enabled bool) Option {
	return func(c *config) {
		c.runOnStart = enabled
	}
}

// WithQueue configures a named queue with the given number of workers.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger for job processing.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Defaults to 4.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithJobTimeout bounds a single task execution. Zero keeps River's one-minute
// default, so tasks that wait on long retry budgets must raise it.
func WithJobTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}

// WithScheduledMaxAttempts sets how many times a periodic job runs before it is
// discarded. Defaults to 1: the next tick is the retry.
func WithScheduledMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.scheduledMaxAttempts = n
		}
	}
}
