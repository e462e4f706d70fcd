package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menumail/internal/config"
	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/pipeline"
)

const vendorPayload = `{"Menus":[{"OrderDays":[
	{"Date":"2024-03-07T00:00:00","MenuItems":[
		{"FormalName":"Pizza","Meal":"Lunch","Course":"Entree","Description":"","Ingredients":"","Calories":"400"}
	]}
]}]}`

func newTestApp(t *testing.T, vars map[string]string) *app {
	t.Helper()

	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(vendorPayload))
	}))
	t.Cleanup(vendor.Close)

	environ := map[string]string{
		"MENU_API_URL":       vendor.URL,
		"MENU_API_KEY":       "secret",
		"MENU_TIMEZONE":      "UTC",
		"MENU_VENUE":         "Cafe 9",
		"SUBSCRIBERS_SOURCE": "static",
		"SUBSCRIBERS_STATIC": "a@example.com,b@example.com",
		"ARCHIVE_DIR":        t.TempDir(),
		"MAIL_PROVIDER":      "resend",
		"MAIL_FROM_EMAIL":    "menu@example.com",
		"LOG_LEVEL":          "error",
	}
	for k, v := range vars {
		environ[k] = v
	}
	cfg, err := env.ParseAsWithOptions[config.Config](env.Options{Environment: environ})
	require.NoError(t, err)

	a, err := newApp(&cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func TestApp_Runner(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	t.Run("dry run counts subscribers and archives", func(t *testing.T) {
		t.Parallel()

		// RESEND_API_KEY is unset: a dry run must not build the mail provider.
		a := newTestApp(t, nil)
		runner, err := a.runner(context.Background(), modeDryRun)
		require.NoError(t, err)

		report, err := runner.Run(context.Background(), pipeline.Request{Date: date, DryRun: true})
		require.NoError(t, err)

		assert.Equal(t, delivery.StatusDryRun, report.Status)
		assert.Equal(t, 1, report.Items)
		assert.Equal(t, 2, report.Total)
		assert.Equal(t, 2, report.Recipients)
		assert.False(t, report.Sent)
		require.Equal(t, []string{"2024-03-07.html"}, report.ArchiveKeys)

		html, err := os.ReadFile(filepath.Join(a.cfg.ArchiveDir, "2024-03-07.html"))
		require.NoError(t, err)
		assert.Contains(t, string(html), "Pizza")
	})

	t.Run("preview renders without subscribers", func(t *testing.T) {
		t.Parallel()

		// An unconfigured sheets source fails validation if it is ever built.
		a := newTestApp(t, map[string]string{"SUBSCRIBERS_SOURCE": "sheets"})
		runner, err := a.runner(context.Background(), modePreview)
		require.NoError(t, err)

		prepared, err := runner.Preview(context.Background(), pipeline.Request{Date: date})
		require.NoError(t, err)
		assert.Equal(t, "Thursday, March 7 at Cafe 9", prepared.Email.Subject)
	})

	t.Run("send needs a mail provider", func(t *testing.T) {
		t.Parallel()

		a := newTestApp(t, map[string]string{"MAIL_PROVIDER": "pigeon"})
		_, err := a.runner(context.Background(), modeSend)
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}
