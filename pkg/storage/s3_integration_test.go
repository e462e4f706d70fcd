//go:build integration

package storage_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menumail/pkg/storage"
)

// Runs against an S3-compatible service such as MinIO. Start it with docker-compose up -d.
func newTestStorage(t *testing.T) *storage.S3Storage {
	t.Helper()

	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}

	s, err := storage.New(storage.Config{
		Endpoint:  endpoint,
		AccessKey: "admin",
		SecretKey: "admin123",
		Bucket:    "uploads",
		Region:    "us-east-1",
		PathStyle: true,
		Prefix:    "menus",
	})
	require.NoError(t, err)
	return s
}

func TestS3Integration_Archive(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	archive := storage.NewArchive(nil, storage.Target{Name: "s3", Storage: s, Prefix: s.Prefix()})
	keys, err := archive.Save(ctx, "2024-03-07", []byte("<p>integration</p>"))
	require.NoError(t, err)
	require.Equal(t, []string{"menus/2024-03-07.html"}, keys)
	t.Cleanup(func() { _ = s.Delete(ctx, keys[0]) })

	exists, err := s.Exists(ctx, keys[0])
	require.NoError(t, err)
	require.True(t, exists)

	data, err := storage.ReadAll(ctx, s, keys[0])
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("<p>integration</p>"), data))

	exists, err = s.Exists(ctx, "menus/missing.html")
	require.NoError(t, err)
	require.False(t, exists)
}
