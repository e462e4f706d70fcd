package subscriber_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menumail/pkg/subscriber"
)

var (
	_ subscriber.Source = (*subscriber.SheetsSource)(nil)
	_ subscriber.Source = (*subscriber.CSVSource)(nil)
	_ subscriber.Source = (*subscriber.StaticSource)(nil)
)

func TestIsTruthy(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"yes", "YES", " Yes ", "y", "Y", "true", "True", "1", "x", "X"} {
		assert.True(t, subscriber.IsTruthy(v), v)
	}
	for _, v := range []string{"", "no", "n", "false", "0", "maybe", "yess"} {
		assert.False(t, subscriber.IsTruthy(v), v)
	}
}

func TestParseRows(t *testing.T) {
	t.Parallel()

	t.Run("locates columns by name", func(t *testing.T) {
		t.Parallel()
		rows := [][]string{
			{"Timestamp", " email address ", "Name", "SUBSCRIBED"},
			{"2024-01-01", "a@example.com", "A", "Yes"},
			{"2024-01-02", "b@example.com", "B", "No"},
			{"2024-01-03", "  ", "C", "Yes"},
			{"2024-01-04", " c@example.com "},
		}
		subs, err := subscriber.ParseRows(rows, subscriber.Columns{})
		require.NoError(t, err)
		assert.Equal(t, []subscriber.Subscriber{
			{Email: "a@example.com", Subscribed: true},
			{Email: "b@example.com", Subscribed: false},
			{Email: "c@example.com", Subscribed: false},
		}, subs)
	})

	t.Run("custom columns", func(t *testing.T) {
		t.Parallel()
		rows := [][]string{
			{"Mail", "Opt In"},
			{"a@example.com", "x"},
		}
		subs, err := subscriber.ParseRows(rows, subscriber.Columns{Email: "mail", OptIn: "opt in"})
		require.NoError(t, err)
		assert.Equal(t, []subscriber.Subscriber{{Email: "a@example.com", Subscribed: true}}, subs)
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()
		subs, err := subscriber.ParseRows([][]string{{"Email Address", "Subscribed"}}, subscriber.Columns{})
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.ParseRows(nil, subscriber.Columns{})
		require.ErrorIs(t, err, subscriber.ErrEmptySheet)
	})

	t.Run("missing email column", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.ParseRows([][]string{{"Name", "Subscribed"}}, subscriber.Columns{})
		require.ErrorIs(t, err, subscriber.ErrMissingColumn)
	})

	t.Run("missing opt-in column", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.ParseRows([][]string{{"Email Address"}}, subscriber.Columns{})
		require.ErrorIs(t, err, subscriber.ErrMissingColumn)
	})
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	src := subscriber.NewStatic("a@example.com", " ", " b@example.com ")
	subs, err := src.Subscribers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []subscriber.Subscriber{
		{Email: "a@example.com", Subscribed: true},
		{Email: "b@example.com", Subscribed: true},
	}, subs)

	subs[0].Email = "changed"
	again, err := src.Subscribers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again[0].Email)
}

const csvExport = "\ufeffEmail Address,Subscribed\na@example.com,yes\nb@example.com,no\n,yes\n"

func TestCSVSource(t *testing.T) {
	t.Parallel()

	want := []subscriber.Subscriber{
		{Email: "a@example.com", Subscribed: true},
		{Email: "b@example.com", Subscribed: false},
	}

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "subs.csv")
		require.NoError(t, os.WriteFile(path, []byte(csvExport), 0o600))

		subs, err := subscriber.NewCSV(path, subscriber.Columns{}, 0).Subscribers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, subs)
	})

	t.Run("url", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(csvExport))
		}))
		defer srv.Close()

		subs, err := subscriber.NewCSV(srv.URL+"/export.csv", subscriber.Columns{}, 0).Subscribers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, subs)
	})

	t.Run("url error status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := subscriber.NewCSV(srv.URL, subscriber.Columns{}, 0).Subscribers(context.Background())
		require.ErrorIs(t, err, subscriber.ErrFetchFailed)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.NewCSV(filepath.Join(t.TempDir(), "nope.csv"), subscriber.Columns{}, 0).
			Subscribers(context.Background())
		require.ErrorIs(t, err, subscriber.ErrFetchFailed)
	})
}

func TestSheetsSource(t *testing.T) {
	t.Parallel()

	t.Run("reads range", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.URL.Query().Get("key")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"range": "Form Responses 1!A1:C4",
				"majorDimension": "ROWS",
				"values": [
					["Timestamp", "Email Address", "Subscribed"],
					["1/1/2024", "a@example.com", "Yes"],
					["1/2/2024", "b@example.com", "No"],
					["1/3/2024", "c@example.com"]
				]
			}`))
		}))
		defer srv.Close()

		src, err := subscriber.NewSheets(context.Background(), subscriber.SheetsConfig{
			SpreadsheetID: "sheet-1",
			Range:         "Form Responses 1",
			APIKey:        "public-key",
		}, subscriber.WithHTTPClient(srv.Client()), subscriber.WithBaseURL(srv.URL))
		require.NoError(t, err)

		subs, err := src.Subscribers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/sheet-1/values/Form Responses 1", gotPath)
		assert.Equal(t, "public-key", gotKey)
		assert.Equal(t, []subscriber.Subscriber{
			{Email: "a@example.com", Subscribed: true},
			{Email: "b@example.com", Subscribed: false},
			{Email: "c@example.com", Subscribed: false},
		}, subs)
	})

	t.Run("api error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		src, err := subscriber.NewSheets(context.Background(), subscriber.SheetsConfig{
			SpreadsheetID: "sheet-1",
			Range:         "A:B",
		}, subscriber.WithHTTPClient(srv.Client()), subscriber.WithBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = src.Subscribers(context.Background())
		require.ErrorIs(t, err, subscriber.ErrFetchFailed)
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.NewSheets(context.Background(), subscriber.SheetsConfig{
			SpreadsheetID: "sheet-1",
			Range:         "A:B",
		})
		require.ErrorIs(t, err, subscriber.ErrInvalidConfig)
	})

	t.Run("rejects malformed credentials", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.NewSheets(context.Background(), subscriber.SheetsConfig{
			SpreadsheetID:   "sheet-1",
			Range:           "A:B",
			CredentialsJSON: []byte("not json"),
		})
		require.ErrorIs(t, err, subscriber.ErrInvalidConfig)
	})

	t.Run("requires sheet id", func(t *testing.T) {
		t.Parallel()
		_, err := subscriber.NewSheets(context.Background(), subscriber.SheetsConfig{Range: "A:B", APIKey: "k"})
		require.ErrorIs(t, err, subscriber.ErrInvalidConfig)
	})
}

func TestSheetsSource_APIKeyOwnClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":[["Email Address","Subscribed"],["a@example.com","yes"]]}`))
	}))
	defer srv.Close()

	timeout, transport := http.DefaultClient.Timeout, http.DefaultClient.Transport

	src, err := subscriber.NewSheets(context.Background(), subscriber.SheetsConfig{
		SpreadsheetID: "sheet-1",
		Range:         "Form Responses 1",
		APIKey:        "public-key",
		Timeout:       7 * time.Second,
	}, subscriber.WithBaseURL(srv.URL))
	require.NoError(t, err)

	subs, err := src.Subscribers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []subscriber.Subscriber{{Email: "a@example.com", Subscribed: true}}, subs)

	assert.Equal(t, timeout, http.DefaultClient.Timeout)
	assert.Equal(t, transport, http.DefaultClient.Transport)
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("static", func(t *testing.T) {
		t.Parallel()
		src, err := subscriber.New(context.Background(), subscriber.Config{
			Kind:   subscriber.KindStatic,
			Static: []string{"a@example.com"},
		})
		require.NoError(t, err)
		assert.IsType(t, &subscriber.StaticSource{}, src)
	})

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		src, err := subscriber.New(context.Background(), subscriber.Config{Kind: "CSV", CSV: "subs.csv"})
		require.NoError(t, err)
		assert.IsType(t, &subscriber.CSVSource{}, src)
	})

	tests := []struct {
		name string
		cfg  subscriber.Config
	}{
		{name: "unknown kind", cfg: subscriber.Config{Kind: "ldap"}},
		{name: "sheets without id", cfg: subscriber.Config{Kind: subscriber.KindSheets, SheetsAPIKey: "k"}},
		{name: "sheets without auth", cfg: subscriber.Config{Kind: subscriber.KindSheets, SheetID: "s"}},
		{name: "csv without location", cfg: subscriber.Config{Kind: subscriber.KindCSV}},
		{name: "static without addresses", cfg: subscriber.Config{Kind: subscriber.KindStatic}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := subscriber.New(context.Background(), tt.cfg)
			require.ErrorIs(t, err, subscriber.ErrInvalidConfig)
		})
	}
}
