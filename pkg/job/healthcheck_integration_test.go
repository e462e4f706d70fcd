//go:build integration

package job

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// schemaPool returns a pool whose search_path is a new empty schema.
func schemaPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL is not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schema := fmt.Sprintf("jobs_readyz_%d", rand.Uint32())
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE") })

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestHealthcheck_Schema(t *testing.T) {
	pool := schemaPool(t)
	ctx := context.Background()

	m, err := NewManager(pool)
	require.NoError(t, err)
	m.started = true

	err = Healthcheck(m)(ctx)
	require.ErrorIs(t, err, ErrHealthcheckFailed)
	require.ErrorIs(t, err, errSchemaMissing)

	require.NoError(t, Migrate(ctx, pool, nil))
	require.NoError(t, Healthcheck(m)(ctx))
}
