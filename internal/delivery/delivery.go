// Package delivery records pipeline runs in Postgres and guards against sending
// the same day's menu twice.
package delivery

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/menumail/pkg/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations for the delivery log.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

var (
	ErrAlreadyDelivered = errors.New("delivery: menu already delivered for this date")
	ErrInProgress       = errors.New("delivery: another run for this date is in progress")
	ErrNotFound         = errors.New("delivery: not found")
)

const (
	// DefaultStaleAfter is how long a running row blocks other runs for its date.
	// It outlives the longest job a worker will execute.
	DefaultStaleAfter = 2 * time.Hour

	defaultListLimit = 20
	maxListLimit     = 200

	uniqueViolation = "23505"
	abandonedError  = "abandoned: run did not finish"
)

// Status of a delivery row.
type Status string

const (
	StatusRunning Status = "running"
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusDryRun  Status = "dry_run"
	StatusFailed  Status = "failed"
)

// Delivery is one row of menu_deliveries.
type Delivery struct {
	ID             uuid.UUID `db:"id" json:"id"`
	RunID          uuid.UUID `db:"run_id" json:"run_id"`
	MenuDate       time.Time `db:"menu_date" json:"-"`
	Status         Status    `db:"status" json:"status"`
	RecipientCount int       `db:"recipient_count" json:"recipient_count"`
	ItemCount      int       `db:"item_count" json:"item_count"`
	SkippedCount   int       `db:"skipped_count" json:"skipped_count"`
	ArchiveKey     string    `db:"archive_key" json:"archive_key,omitempty"`
	Error          string    `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Date returns the menu date as YYYY-MM-DD.
func (d Delivery) Date() string {
	return d.MenuDate.Format(time.DateOnly)
}

// Outcome is the final state written by Finish.
type Outcome struct {
	Status         Status
	RecipientCount int
	ItemCount      int
	SkippedCount   int
	ArchiveKey     string
	Err            error
}

// Repository reads and writes menu_deliveries.
type Repository struct {
	pool       *pgxpool.Pool
	staleAfter time.Duration
}

// Option configures a Repository.
type Option func(*Repository)

// WithStaleAfter overrides DefaultStaleAfter.
func WithStaleAfter(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// NewRepository returns a Repository over pool.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool, staleAfter: DefaultStaleAfter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const selectColumns = `id, run_id, menu_date, status, recipient_count, item_count, skipped_count,
	COALESCE(archive_key, '') AS archive_key, COALESCE(error, '') AS error, created_at, updated_at`

// Begin inserts a running row for date.
//
// A running row younger than the stale window blocks every other run for the
// date, forced or not, with ErrInProgress. Older running rows are marked failed
// first. Without force a sent row fails the call with ErrAlreadyDelivered.
// Concurrent Begins for one date are serialized with a transaction-scoped
// advisory lock, and a partial unique index allows one running row per date.
func (r *Repository) Begin(ctx context.Context, runID uuid.UUID, date time.Time, force bool) (*Delivery, error) {
	day := date.Format(time.DateOnly)

	var out *Delivery
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('menu_deliveries:' || $1))`, day); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE menu_deliveries SET status = $2, error = $3, updated_at = now()
			 WHERE menu_date = $1::date AND status = $4 AND updated_at < now() - make_interval(secs => $5)`,
			day, StatusFailed, abandonedError, StatusRunning, r.staleAfter.Seconds(),
		); err != nil {
			return err
		}

		var running, sent bool
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(bool_or(status = $2), false), COALESCE(bool_or(status = $3), false)
			 FROM menu_deliveries WHERE menu_date = $1::date`,
			day, StatusRunning, StatusSent,
		).Scan(&running, &sent)
		if err != nil {
			return err
		}
		switch {
		case running:
			return ErrInProgress
		case sent && !force:
			return ErrAlreadyDelivered
		}

		rows, err := tx.Query(ctx,
			`INSERT INTO menu_deliveries (id, run_id, menu_date, status)
			 VALUES ($1, $2, $3::date, $4)
			 RETURNING `+selectColumns,
			uuid.New(), runID, day, StatusRunning,
		)
		if err != nil {
			return err
		}
		d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Delivery])
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	switch {
	case errors.Is(err, ErrAlreadyDelivered), errors.Is(err, ErrInProgress):
		return nil, err
	case isUniqueViolation(err):
		return nil, ErrInProgress
	case err != nil:
		return nil, fmt.Errorf("delivery: begin: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Finish records the outcome of a run started with Begin.
func (r *Repository) Finish(ctx context.Context, id uuid.UUID, out Outcome) error {
	var errText *string
	if out.Err != nil {
		s := out.Err.Error()
		errText = &s
	}
	var archiveKey *string
	if out.ArchiveKey != "" {
		archiveKey = &out.ArchiveKey
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE menu_deliveries
		 SET status = $2, recipient_count = $3, item_count = $4, skipped_count = $5,
		     archive_key = $6, error = $7, updated_at = now()
		 WHERE id = $1`,
		id, out.Status, out.RecipientCount, out.ItemCount, out.SkippedCount, archiveKey, errText,
	)
	if err != nil {
		return fmt.Errorf("delivery: finish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a delivery by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM menu_deliveries WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delivery: get: %w", err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Delivery])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delivery: get: %w", err)
	}
	return d, nil
}

// List returns the most recent deliveries, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]*Delivery, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM menu_deliveries ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("delivery: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Delivery])
	if err != nil {
		return nil, fmt.Errorf("delivery: list: %w", err)
	}
	return out, nil
}
