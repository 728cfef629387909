package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	return loc
}

func TestParseDateLocal(t *testing.T) {
	loc := saoPaulo(t)

	tests := []struct {
		name    string
		dateStr string
		wantErr bool
	}{
		{name: "valid date string", dateStr: "2026-01-23"},
		{name: "invalid date string", dateStr: "invalid", wantErr: true},
		{name: "empty string", dateStr: "", wantErr: true},
		{name: "brazilian format is rejected", dateStr: "23/01/2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDateLocal(tt.dateStr, loc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	parsed, err := ParseDateLocal("2026-01-23", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, parsed.Location())
	assert.Equal(t, 0, parsed.Hour())
	assert.Equal(t, 23, parsed.Day())
}

func TestParseDateRange(t *testing.T) {
	loc := saoPaulo(t)

	start, end, err := ParseDateRange("2026-03-01", "2026-03-31", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 999999999, loc), end)

	start, end, err = ParseDateRange("", "", loc)
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	_, _, err = ParseDateRange("2026-03-10", "2026-03-01", loc)
	assert.Error(t, err)
}

func TestStartOfWeek(t *testing.T) {
	loc := saoPaulo(t)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", time.Date(2026, 10, 19, 15, 0, 0, 0, loc), time.Date(2026, 10, 19, 0, 0, 0, 0, loc)},
		{"wednesday", time.Date(2026, 10, 21, 9, 30, 0, 0, loc), time.Date(2026, 10, 19, 0, 0, 0, 0, loc)},
		{"sunday belongs to previous monday", time.Date(2026, 10, 25, 23, 0, 0, 0, loc), time.Date(2026, 10, 19, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartOfWeek(tt.in, loc))
		})
	}
}

func TestStartOfMonth(t *testing.T) {
	loc := saoPaulo(t)
	got := StartOfMonth(time.Date(2026, 2, 17, 8, 0, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), got)
}

func TestFormatDateBR(t *testing.T) {
	ts := time.Date(2026, 1, 5, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "05/01/2026", FormatDateBR(ts))
	assert.Equal(t, "05/01/2026 14:07", FormatDateTimeBR(ts))
	assert.Equal(t, "", FormatDateBR(time.Time{}))
}
