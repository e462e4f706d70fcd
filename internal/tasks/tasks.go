// Package tasks adapts pipeline runs to background jobs.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/menumail/internal/pipeline"
	"github.com/dmitrymomot/menumail/pkg/job"
	"github.com/dmitrymomot/menumail/pkg/logger"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/menuapi"
)

const (
	DailyMenuName = "daily_menu"
	SendMenuName  = "send_menu"

	// SendMenuUniqueFor is how long an ad-hoc run for one date is deduplicated.
	SendMenuUniqueFor = 10 * time.Minute

	sendMenuMaxAttempts = 3

	// jobHeadroom is added to the fetch retry budget when sizing the job timeout,
	// leaving time to render, archive and send after the last fetch attempt.
	jobHeadroom = 5 * time.Minute
)

// JobTimeout returns how long one pipeline job may run given the fetch retry budget.
func JobTimeout(p menuapi.Policy) time.Duration {
	return p.MaxElapsed + jobHeadroom
}

// Runner executes one pipeline run. *pipeline.Runner implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// Enqueuer inserts jobs. *job.Manager and *job.Enqueuer implement it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) (*job.Enqueued, error)
}

// DailyMenu delivers today's menu on a cron schedule.
type DailyMenu struct {
	runner   Runner
	logger   *slog.Logger
	schedule string
}

// NewDailyMenu returns the scheduled task. A nil logger discards output.
func NewDailyMenu(runner Runner, schedule string, log *slog.Logger) *DailyMenu {
	if log == nil {
		log = logger.NewNope()
	}
	return &DailyMenu{runner: runner, schedule: schedule, logger: log}
}

func (t *DailyMenu) Name() string     { return DailyMenuName }
func (t *DailyMenu) Schedule() string { return t.schedule }

// Handle runs the pipeline for today. A date already delivered is not an error.
func (t *DailyMenu) Handle(ctx context.Context) error {
	report, err := t.runner.Run(ctx, pipeline.Request{})
	if err != nil {
		return final(err)
	}
	t.logger.InfoContext(ctx, "scheduled menu run done",
		slog.String("date", report.Date),
		slog.String("status", string(report.Status)),
	)
	return nil
}

// SendMenuPayload selects the date of an ad-hoc run. An empty Date means today.
type SendMenuPayload struct {
	Date   string `json:"date,omitempty"`
	Force  bool   `json:"force,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// SendMenu runs the pipeline for the date in its payload.
type SendMenu struct {
	runner   Runner
	location *time.Location
}

// NewSendMenu returns the ad-hoc task. Dates are parsed in loc.
func NewSendMenu(runner Runner, loc *time.Location) *SendMenu {
	if loc == nil {
		loc = time.UTC
	}
	return &SendMenu{runner: runner, location: loc}
}

func (t *SendMenu) Name() string { return SendMenuName }

// Handle parses the payload date and runs the pipeline.
func (t *SendMenu) Handle(ctx context.Context, p SendMenuPayload) error {
	req, err := p.Request(t.location)
	if err != nil {
		return errors.Join(job.ErrInvalidPayload, err)
	}
	if _, err = t.runner.Run(ctx, req); err != nil {
		return final(err)
	}
	return nil
}

// final marks failures that another attempt cannot fix: the menu API already
// spent its whole retry budget, or rejected the request outright.
func final(err error) error {
	if errors.Is(err, menuapi.ErrTimeout) || errors.Is(err, menuapi.ErrClientError) {
		return errors.Join(job.ErrNoRetry, err)
	}
	return err
}

// Request converts the payload into a pipeline request.
func (p SendMenuPayload) Request(loc *time.Location) (pipeline.Request, error) {
	req := pipeline.Request{Force: p.Force, DryRun: p.DryRun}
	if p.Date == "" {
		return req, nil
	}
	date, err := menu.ParseDate(p.Date, loc)
	if err != nil {
		return pipeline.Request{}, err
	}
	req.Date = date
	return req, nil
}

// EnqueueSendMenu schedules an ad-hoc run. Requests for the same date within
// SendMenuUniqueFor are reported as duplicates instead of inserted twice.
func EnqueueSendMenu(ctx context.Context, e Enqueuer, p SendMenuPayload) (*job.Enqueued, error) {
	if p.Date != "" {
		if _, err := menu.ParseDate(p.Date, time.UTC); err != nil {
			return nil, err
		}
	}
	key := p.Date
	if key == "" {
		key = "today"
	}
	return e.Enqueue(ctx, SendMenuName, p,
		job.UniqueFor(SendMenuUniqueFor),
		job.UniqueKey(SendMenuName+":"+key),
		job.MaxAttempts(sendMenuMaxAttempts),
	)
}
