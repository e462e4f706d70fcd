package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/menumail/internal/config"
	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/emails"
	"github.com/dmitrymomot/menumail/internal/pipeline"
	"github.com/dmitrymomot/menumail/internal/server"
	"github.com/dmitrymomot/menumail/pkg/cache"
	"github.com/dmitrymomot/menumail/pkg/db"
	"github.com/dmitrymomot/menumail/pkg/job"
	"github.com/dmitrymomot/menumail/pkg/logger"
	"github.com/dmitrymomot/menumail/pkg/mailer"
	"github.com/dmitrymomot/menumail/pkg/mailer/resend"
	"github.com/dmitrymomot/menumail/pkg/mailer/smtp"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/menuapi"
	"github.com/dmitrymomot/menumail/pkg/notifier"
	"github.com/dmitrymomot/menumail/pkg/redis"
	"github.com/dmitrymomot/menumail/pkg/storage"
	"github.com/dmitrymomot/menumail/pkg/subscriber"
)

// app holds the process-wide resources of one command invocation.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	loc     *time.Location
	pool    *pgxpool.Pool
	redis   goredis.UniversalClient
	closers []func(context.Context) error
}

func newApp(cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log,
		logger.RunIDExtractor(),
		logger.MenuDateExtractor(),
		server.RequestIDExtractor(),
	).With(slog.String("env", cfg.Env))

	return &app{cfg: cfg, log: log, loc: loc}, nil
}

// connect opens the optional Postgres and Redis connections. requireDB fails
// when DATABASE_URL is not set.
func (a *app) connect(ctx context.Context, requireDB bool) error {
	if a.cfg.DB.Enabled() {
		pool, err := db.Connect(ctx, a.cfg.DB)
		if err != nil {
			return err
		}
		a.pool = pool
		a.closers = append(a.closers, db.Shutdown(pool))
	} else if requireDB {
		return fmt.Errorf("%w: DATABASE_URL is required", config.ErrInvalidConfig)
	}

	if a.cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, a.cfg.Redis)
		if err != nil {
			return err
		}
		a.redis = client
		a.closers = append(a.closers, redis.Shutdown(client))
	}
	return nil
}

// migrate applies the delivery schema and the job queue schema.
func (a *app) migrate(ctx context.Context) error {
	if err := db.Migrate(ctx, a.pool, delivery.Migrations(), a.cfg.DB.MigrationsTable, a.log); err != nil {
		return err
	}
	return job.Migrate(ctx, a.pool, a.log)
}

// runMode selects how much of the pipeline runner wires.
type runMode int

const (
	// modePreview renders only: no subscribers, archive, sender or delivery log.
	modePreview runMode = iota
	// modeDryRun loads subscribers and archives the email but never sends it.
	modeDryRun
	// modeSend wires everything.
	modeSend
)

// runner wires the pipeline for mode.
func (a *app) runner(ctx context.Context, mode runMode) (*pipeline.Runner, error) {
	client, err := menuapi.New(a.cfg.MenuAPI, menuapi.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		client.Close()
		return nil
	})

	var sender mailer.Sender = mailer.SenderFunc(func(context.Context, *mailer.Email) error {
		return errors.New("mail provider not configured")
	})
	if mode == modeSend {
		if sender, err = a.sender(); err != nil {
			return nil, err
		}
	}

	var subs subscriber.Source = subscriber.NewStatic()
	if mode != modePreview {
		if subs, err = subscriber.New(ctx, a.cfg.Subscribers); err != nil {
			return nil, err
		}
	}

	ml := mailer.New(sender, emails.NewRenderer(a.cfg.MealOrder), a.cfg.Mail)

	deps := pipeline.Deps{
		Source:      client,
		Normalizer:  menu.NewNormalizer(menu.WithDayListField(client.DayListField()), menu.WithLogger(a.log)),
		Composer:    ml,
		Subscribers: subs,
		Dispatcher: notifier.New(ml, ml.From(),
			notifier.WithBCC(a.cfg.Notify.BCC),
			notifier.WithLogger(a.log),
		),
	}

	payloads, err := cache.New[*menu.RawPayload](a.cfg.Cache, a.redis)
	if err != nil {
		return nil, err
	}
	if payloads != nil {
		deps.Cache = cache.NewLoader(payloads, a.cfg.Cache.TTL)
		a.closers = append(a.closers, func(context.Context) error { return payloads.Close() })
	}

	if mode != modePreview {
		archive, err := a.archive()
		if err != nil {
			return nil, err
		}
		deps.Archive = archive
	}
	if mode == modeSend && a.pool != nil {
		deps.Deliveries = delivery.NewRepository(a.pool)
	}

	return pipeline.New(deps,
		pipeline.WithLogger(a.log),
		pipeline.WithLocation(a.loc),
		pipeline.WithVenue(a.cfg.Venue),
		pipeline.WithSkipEmpty(a.cfg.SkipEmpty),
		pipeline.WithCacheNamespace(client.LocationID()),
	)
}

func (a *app) sender() (mailer.Sender, error) {
	switch strings.ToLower(a.cfg.MailProvider) {
	case config.ProviderResend:
		return resend.New(a.cfg.Resend)
	case config.ProviderSMTP:
		return smtp.New(a.cfg.SMTP)
	case config.ProviderLog:
		return mailer.SenderFunc(func(ctx context.Context, e *mailer.Email) error {
			a.log.InfoContext(ctx, "email not sent (log provider)",
				slog.String("subject", e.Subject),
				slog.Int("recipients", e.Recipients()),
				slog.Int("html_bytes", len(e.HTML)),
			)
			return nil
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown MAIL_PROVIDER %q", config.ErrInvalidConfig, a.cfg.MailProvider)
	}
}

func (a *app) archive() (*storage.Archive, error) {
	var targets []storage.Target
	if a.cfg.ArchiveDir != "" {
		local, err := storage.NewLocal(a.cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		targets = append(targets, storage.Target{Name: "local", Storage: local})
	}
	if a.cfg.S3.Enabled() {
		s3, err := storage.New(a.cfg.S3)
		if err != nil {
			return nil, err
		}
		targets = append(targets, storage.Target{Name: "s3", Storage: s3, Prefix: s3.Prefix()})
	}
	return storage.NewArchive(a.log, targets...), nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Error("failed to release resource", slog.Any("error", err))
		}
	}
	a.closers = nil
}
