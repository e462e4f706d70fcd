package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingStorage struct{ Storage }

func (failingStorage) Put(context.Context, string, io.Reader, int64, ...Option) (*FileInfo, error) {
	return nil, errors.New("disk full")
}

func TestKey(t *testing.T) {
	t.Parallel()
	require.Equal(t, "menus/2024-03-07.html", Key("menus", "2024-03-07"))
	require.Equal(t, "2024-03-07.html", Key("", "2024-03-07"))
}

func TestArchive_Save(t *testing.T) {
	t.Parallel()

	t.Run("writes every target", func(t *testing.T) {
		t.Parallel()

		a, err := NewLocal(t.TempDir())
		require.NoError(t, err)
		b, err := NewLocal(t.TempDir())
		require.NoError(t, err)

		archive := NewArchive(nil,
			Target{Name: "local", Storage: a},
			Target{Name: "mirror", Storage: b, Prefix: "menus"},
		)
		require.True(t, archive.Enabled())

		keys, err := archive.Save(context.Background(), "2024-03-07", []byte("<p>menu</p>"))
		require.NoError(t, err)
		require.Equal(t, []string{"2024-03-07.html", "menus/2024-03-07.html"}, keys)

		data, err := ReadAll(context.Background(), b, "menus/2024-03-07.html")
		require.NoError(t, err)
		require.Equal(t, "<p>menu</p>", string(data))
	})

	t.Run("failure does not stop other targets", func(t *testing.T) {
		t.Parallel()

		ok, err := NewLocal(t.TempDir())
		require.NoError(t, err)

		archive := NewArchive(nil,
			Target{Name: "s3", Storage: failingStorage{}},
			Target{Name: "local", Storage: ok},
		)

		keys, err := archive.Save(context.Background(), "2024-03-07", []byte("x"))
		require.ErrorIs(t, err, ErrArchiveFailed)
		require.ErrorContains(t, err, "s3: disk full")
		require.Equal(t, []string{"2024-03-07.html"}, keys)
	})

	t.Run("no targets", func(t *testing.T) {
		t.Parallel()

		archive := NewArchive(nil, Target{Name: "s3"})
		require.False(t, archive.Enabled())

		keys, err := archive.Save(context.Background(), "2024-03-07", []byte("x"))
		require.NoError(t, err)
		require.Empty(t, keys)
	})
}
