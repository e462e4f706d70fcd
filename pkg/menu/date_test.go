package menu

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		date   time.Time
		offset int
		want   string
	}{
		{"same day", base, 0, "2024-03-07"},
		{"next day", base, 1, "2024-03-08"},
		{"previous day", base, -1, "2024-03-06"},
		{"month rollover", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, "2024-02-01"},
		{"leap day", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 1, "2024-02-29"},
		{"year rollover", time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), 1, "2024-01-01"},
		{"single digit month and day", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 0, "2025-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Resolve(tt.date, tt.offset))
		})
	}
}

func TestResolve_AlwaysZeroPadded(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 366 {
		got := Resolve(day, i)
		require.Regexp(t, pattern, got)
	}
}

func TestResolveDateTime(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 7, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-07T00:00:00", ResolveDateTime(day, 0))
	assert.Equal(t, "2024-03-10T00:00:00", ResolveDateTime(day, 3))
}

func TestResolve_KeepsLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CST", -6*60*60)
	// 02:00 UTC on the 8th is still the 7th in CST.
	utc := time.Date(2024, 3, 8, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-07", Resolve(utc.In(loc), 0))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		got, err := ParseDate(" 2024-03-07 ", nil)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("invalid calendar date", func(t *testing.T) {
		t.Parallel()
		_, err := ParseDate("2024-02-30", time.UTC)
		require.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := ParseDate("tomorrow", time.UTC)
		require.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	got := Display(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, DisplayFields{DayName: "Thursday", Month: "March", Day: 7}, got)
}
