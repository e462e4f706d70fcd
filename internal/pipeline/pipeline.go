// Package pipeline runs one daily menu delivery: resolve the date, fetch and
// normalize the vendor payload, render the email, load subscribers and dispatch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/emails"
	"github.com/dmitrymomot/menumail/pkg/cache"
	"github.com/dmitrymomot/menumail/pkg/logger"
	"github.com/dmitrymomot/menumail/pkg/mailer"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/menuapi"
	"github.com/dmitrymomot/menumail/pkg/notifier"
	"github.com/dmitrymomot/menumail/pkg/subscriber"
)

var (
	ErrMissingDependency = errors.New("pipeline: missing dependency")
	ErrFetch             = errors.New("pipeline: fetch failed")
	ErrNormalize         = errors.New("pipeline: normalize failed")
	ErrRender            = errors.New("pipeline: render failed")
	ErrSubscribers       = errors.New("pipeline: subscriber load failed")
	ErrDispatch          = errors.New("pipeline: dispatch failed")
	ErrDeliveryLog       = errors.New("pipeline: delivery log failed")

	// Reasons recorded on skipped deliveries.
	errEmptyMenu    = errors.New("menu has no items")
	errNoRecipients = errors.New("no subscribed recipients")
)

// MenuSource fetches the raw vendor payload. *menuapi.Client implements it.
type MenuSource interface {
	Request(dateKey string) menuapi.FetchRequest
	Fetch(ctx context.Context, req menuapi.FetchRequest) (*menu.RawPayload, error)
}

// Composer renders an email without recipients. *mailer.Mailer implements it.
type Composer interface {
	Compose(params mailer.ComposeParams) (*mailer.Email, error)
}

// Dispatcher delivers a message to subscribers. *notifier.Notifier implements it.
type Dispatcher interface {
	Notify(ctx context.Context, subs []subscriber.Subscriber, msg notifier.Message) (notifier.Result, error)
}

// Archiver persists rendered HTML. *storage.Archive implements it.
type Archiver interface {
	Save(ctx context.Context, date string, html []byte) ([]string, error)
}

// DeliveryLog records runs per menu date. *delivery.Repository implements it.
type DeliveryLog interface {
	Begin(ctx context.Context, runID uuid.UUID, date time.Time, force bool) (*delivery.Delivery, error)
	Finish(ctx context.Context, id uuid.UUID, out delivery.Outcome) error
}

// Deps are the collaborators of a Runner. Archive, Deliveries and Cache are optional.
type Deps struct {
	Source      MenuSource
	Normalizer  *menu.Normalizer
	Composer    Composer
	Subscribers subscriber.Source
	Dispatcher  Dispatcher
	Archive     Archiver
	Deliveries  DeliveryLog
	Cache       *cache.Loader[*menu.RawPayload]
}

// Runner executes pipeline runs. It is safe for concurrent use.
type Runner struct {
	deps      Deps
	logger    *slog.Logger
	location  *time.Location
	now       func() time.Time
	venue     string
	cacheKey  string
	skipEmpty bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLocation sets the time zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithVenue sets the venue name shown in the subject and footer.
func WithVenue(venue string) Option {
	return func(r *Runner) {
		r.venue = venue
	}
}

// WithSkipEmpty controls whether a menu without items is still sent.
func WithSkipEmpty(skip bool) Option {
	return func(r *Runner) {
		r.skipEmpty = skip
	}
}

// WithCacheNamespace prefixes payload cache keys, usually with the vendor location id.
func WithCacheNamespace(ns string) Option {
	return func(r *Runner) {
		r.cacheKey = ns
	}
}

// New creates a Runner. Source, Normalizer, Composer, Subscribers and Dispatcher are required.
func New(deps Deps, opts ...Option) (*Runner, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("%w: menu source", ErrMissingDependency)
	case deps.Normalizer == nil:
		return nil, fmt.Errorf("%w: normalizer", ErrMissingDependency)
	case deps.Composer == nil:
		return nil, fmt.Errorf("%w: composer", ErrMissingDependency)
	case deps.Subscribers == nil:
		return nil, fmt.Errorf("%w: subscriber source", ErrMissingDependency)
	case deps.Dispatcher == nil:
		return nil, fmt.Errorf("%w: dispatcher", ErrMissingDependency)
	}

	r := &Runner{
		deps:      deps,
		logger:    logger.NewNope(),
		location:  time.Local,
		now:       time.Now,
		skipEmpty: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Request selects the menu date of a run.
type Request struct {
	// Date is the base calendar date. Zero means today in the runner's location.
	Date   time.Time
	Offset int
	DryRun bool
	// Force sends even when the date was already delivered.
	Force bool
}

// Prepared is a rendered menu email that has not been sent.
type Prepared struct {
	Date     time.Time
	DateKey  string
	Menu     menu.Menu
	Skipped  []*menu.ItemParseError
	Email    *mailer.Email
	CacheHit bool
}

// Report summarizes a run.
type Report struct {
	RunID       string
	DeliveryID  string
	Date        string
	Status      delivery.Status
	Subject     string
	ArchiveKeys []string
	Items       int
	Skipped     int
	Total       int
	Recipients  int
	OptedOut    int
	Duplicates  int
	Duration    time.Duration
	CacheHit    bool
	Sent        bool
	// AlreadyDelivered is set when the run was a no-op because the date was sent before.
	AlreadyDelivered bool
	// InProgress is set when the run was a no-op because another run holds the date.
	InProgress bool

	started time.Time
}

// Day resolves the menu date of req in the runner's location.
func (r *Runner) Day(req Request) time.Time {
	base := req.Date
	if base.IsZero() {
		base = r.now().In(r.location)
	}
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, r.location)
	return menu.Shift(base, req.Offset)
}

// Preview fetches, normalizes and renders the menu for req without touching
// subscribers, the archive or the delivery log.
func (r *Runner) Preview(ctx context.Context, req Request) (*Prepared, error) {
	day := r.Day(req)
	ctx = logger.WithMenuDate(ctx, menu.Resolve(day, 0))
	return r.prepare(ctx, day)
}

// Run executes one delivery. A date already delivered is a no-op unless req.Force is set.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	start := r.now()
	runID := uuid.New()
	day := r.Day(req)
	dateKey := menu.Resolve(day, 0)

	ctx = logger.WithRunID(ctx, runID.String())
	ctx = logger.WithMenuDate(ctx, dateKey)

	report := &Report{RunID: runID.String(), Date: dateKey, started: start}
	r.logger.InfoContext(ctx, "menu run started",
		slog.Bool("dry_run", req.DryRun),
		slog.Bool("force", req.Force),
	)

	var rec *delivery.Delivery
	if r.deps.Deliveries != nil && !req.DryRun {
		var err error
		rec, err = r.deps.Deliveries.Begin(ctx, runID, day, req.Force)
		switch {
		case errors.Is(err, delivery.ErrAlreadyDelivered):
			report.Status = delivery.StatusSkipped
			report.AlreadyDelivered = true
			report.Duration = r.now().Sub(start)
			r.logger.InfoContext(ctx, "menu already delivered, nothing to do")
			return report, nil
		case errors.Is(err, delivery.ErrInProgress):
			report.Status = delivery.StatusSkipped
			report.InProgress = true
			report.Duration = r.now().Sub(start)
			r.logger.WarnContext(ctx, "another run for this date is in progress, nothing to do")
			return report, nil
		}
		if err != nil {
			return r.fail(ctx, report, nil, errors.Join(ErrDeliveryLog, err))
		}
		report.DeliveryID = rec.ID.String()
	}

	var (
		prepared *Prepared
		subs     []subscriber.Subscriber
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prepared, err = r.prepare(gctx, day)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = r.deps.Subscribers.Subscribers(gctx)
		if err != nil {
			return errors.Join(ErrSubscribers, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return r.fail(ctx, report, rec, err)
	}

	report.Items = prepared.Menu.Len()
	report.Skipped = len(prepared.Skipped)
	report.Subject = prepared.Email.Subject
	report.CacheHit = prepared.CacheHit

	if prepared.Menu.IsEmpty() && r.skipEmpty {
		report.Status = delivery.StatusSkipped
		r.logger.WarnContext(ctx, "menu has no items, skipping dispatch", slog.Int("skipped", report.Skipped))
		return r.finish(ctx, report, rec, errEmptyMenu)
	}

	report.ArchiveKeys = r.archive(ctx, dateKey, prepared.Email.HTML)

	if req.DryRun {
		recipients, optedOut, duplicates := notifier.Recipients(subs)
		report.Status = delivery.StatusDryRun
		report.Total = len(subs)
		report.Recipients = len(recipients)
		report.OptedOut = optedOut
		report.Duplicates = duplicates
		r.logger.InfoContext(ctx, "dry run, dispatch skipped", slog.Int("recipients", report.Recipients))
		return r.finish(ctx, report, rec, nil)
	}

	res, err := r.deps.Dispatcher.Notify(ctx, subs, notifier.Message{
		Tags:    mailer.Tags{"menu_date": dateKey},
		Subject: prepared.Email.Subject,
		HTML:    prepared.Email.HTML,
		Text:    prepared.Email.Text,
	})
	report.Total = res.Total
	report.Recipients = len(res.Recipients)
	report.OptedOut = res.OptedOut
	report.Duplicates = res.Duplicates
	if err != nil {
		return r.fail(ctx, report, rec, errors.Join(ErrDispatch, err))
	}

	report.Sent = res.Sent
	if !res.Sent {
		report.Status = delivery.StatusSkipped
		return r.finish(ctx, report, rec, errNoRecipients)
	}
	report.Status = delivery.StatusSent
	return r.finish(ctx, report, rec, nil)
}

// prepare runs the menu path: fetch, normalize, render.
func (r *Runner) prepare(ctx context.Context, day time.Time) (*Prepared, error) {
	dateKey := menu.Resolve(day, 0)

	payload, hit, err := r.fetch(ctx, dateKey)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	res, err := r.deps.Normalizer.Normalize(payload, menu.ResolveDateTime(day, 0))
	if err != nil {
		return nil, errors.Join(ErrNormalize, err)
	}

	email, err := r.deps.Composer.Compose(mailer.ComposeParams{
		Template: emails.DailyMenu,
		Data:     emails.Data(menu.Display(day), res.Menu, r.venue),
		Tags:     mailer.Tags{"menu_date": dateKey},
	})
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	return &Prepared{
		Date:     day,
		DateKey:  dateKey,
		Menu:     res.Menu,
		Skipped:  res.Skipped,
		Email:    email,
		CacheHit: hit,
	}, nil
}

func (r *Runner) fetch(ctx context.Context, dateKey string) (*menu.RawPayload, bool, error) {
	req := r.deps.Source.Request(dateKey)
	if r.deps.Cache == nil {
		p, err := r.deps.Source.Fetch(ctx, req)
		return p, false, err
	}

	key := dateKey
	if r.cacheKey != "" {
		key = r.cacheKey + ":" + dateKey
	}
	p, hit, err := r.deps.Cache.Load(ctx, key, func(ctx context.Context) (*menu.RawPayload, error) {
		return r.deps.Source.Fetch(ctx, req)
	})
	if hit {
		r.logger.DebugContext(ctx, "menu payload served from cache", slog.String("key", key))
	}
	return p, hit, err
}

// archive stores html and returns the keys written. Failures are logged by the archive.
func (r *Runner) archive(ctx context.Context, dateKey, html string) []string {
	if r.deps.Archive == nil {
		return nil
	}
	keys, err := r.deps.Archive.Save(ctx, dateKey, []byte(html))
	if err != nil {
		r.logger.WarnContext(ctx, "menu archive incomplete", slog.Any("error", err))
	}
	return keys
}

func (r *Runner) fail(ctx context.Context, report *Report, rec *delivery.Delivery, err error) (*Report, error) {
	report.Status = delivery.StatusFailed
	report.Duration = r.now().Sub(report.started)
	r.logger.ErrorContext(ctx, "menu run failed", slog.Any("error", err))
	if rec != nil {
		if ferr := r.deps.Deliveries.Finish(context.WithoutCancel(ctx), rec.ID, r.outcome(report, err)); ferr != nil {
			r.logger.ErrorContext(ctx, "failed to record delivery", slog.Any("error", ferr))
		}
	}
	return report, err
}

func (r *Runner) finish(ctx context.Context, report *Report, rec *delivery.Delivery, note error) (*Report, error) {
	report.Duration = r.now().Sub(report.started)
	if rec != nil {
		if err := r.deps.Deliveries.Finish(ctx, rec.ID, r.outcome(report, note)); err != nil {
			r.logger.ErrorContext(ctx, "failed to record delivery", slog.Any("error", err))
		}
	}
	r.logger.InfoContext(ctx, "menu run finished",
		slog.String("status", string(report.Status)),
		slog.Int("items", report.Items),
		slog.Int("skipped", report.Skipped),
		slog.Int("recipients", report.Recipients),
		slog.Bool("cache_hit", report.CacheHit),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

func (r *Runner) outcome(report *Report, err error) delivery.Outcome {
	out := delivery.Outcome{
		Status:         report.Status,
		RecipientCount: report.Recipients,
		ItemCount:      report.Items,
		SkippedCount:   report.Skipped,
		Err:            err,
	}
	if len(report.ArchiveKeys) > 0 {
		out.ArchiveKey = report.ArchiveKeys[0]
	}
	return out
}
