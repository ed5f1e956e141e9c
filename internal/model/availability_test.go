package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, tod.Hour())
	assert.Equal(t, 30, tod.Minute())
	assert.Equal(t, "09:30", tod.String())

	tod, err = ParseTimeOfDay("17:00:00")
	require.NoError(t, err)
	assert.Equal(t, 17, tod.Hour())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("bogus")
	assert.Error(t, err)
}

func TestNewAvailabilityRejectsInvalidWindows(t *testing.T) {
	from := mustTime(t, "09:00")
	to := mustTime(t, "17:00")

	_, err := NewAvailability(time.Weekday(7), time.Friday, from, to)
	assert.Equal(t, apperrors.KindInvalidAvailability, apperrors.KindOf(err))

	_, err = NewAvailability(time.Monday, time.Weekday(-1), from, to)
	assert.Equal(t, apperrors.KindInvalidAvailability, apperrors.KindOf(err))

	// FromTime must be strictly before ToTime.
	_, err = NewAvailability(time.Monday, time.Friday, to, from)
	assert.Equal(t, apperrors.KindInvalidAvailability, apperrors.KindOf(err))

	_, err = NewAvailability(time.Monday, time.Friday, from, from)
	assert.Equal(t, apperrors.KindInvalidAvailability, apperrors.KindOf(err))
}

func TestAvailabilityContains(t *testing.T) {
	avail, err := NewAvailability(time.Monday, time.Friday, mustTime(t, "08:00"), mustTime(t, "17:00"))
	require.NoError(t, err)

	// 2026-03-02 is a Monday.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	at := func(day time.Time, h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside window", at(monday, 9, 0), at(monday, 9, 30), true},
		{"starts at window open", at(monday, 8, 0), at(monday, 8, 30), true},
		{"ends at window close", at(monday, 16, 30), at(monday, 17, 0), true},
		{"starts before open", at(monday, 7, 30), at(monday, 8, 0), false},
		{"ends past close", at(monday, 16, 45), at(monday, 17, 15), false},
		{"saturday outside weekday range", at(monday.AddDate(0, 0, 5), 9, 0), at(monday.AddDate(0, 0, 5), 9, 30), false},
		{"zero-length interval", at(monday, 9, 0), at(monday, 9, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, avail.Contains(tt.start, tt.end))
		})
	}
}

func TestAvailabilityWeekdayWrap(t *testing.T) {
	// Friday through Monday wraps across the week end.
	avail, err := NewAvailability(time.Friday, time.Monday, mustTime(t, "08:00"), mustTime(t, "12:00"))
	require.NoError(t, err)

	// 2026-03-06 is a Friday.
	friday := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	saturday := friday.AddDate(0, 0, 1)
	monday := friday.AddDate(0, 0, 3)
	wednesday := friday.AddDate(0, 0, 5)

	assert.True(t, avail.Contains(friday, friday.Add(30*time.Minute)))
	assert.True(t, avail.Contains(saturday, saturday.Add(30*time.Minute)))
	assert.True(t, avail.Contains(monday, monday.Add(30*time.Minute)))
	assert.False(t, avail.Contains(wednesday, wednesday.Add(30*time.Minute)))
}

func TestAvailabilityMidnightCrossingRejected(t *testing.T) {
	avail, err := NewAvailability(time.Sunday, time.Saturday, mustTime(t, "00:00"), mustTime(t, "23:59"))
	require.NoError(t, err)

	// 23:45 + 30m crosses midnight and can never fit a same-day window.
	lateStart := time.Date(2026, 3, 2, 23, 45, 0, 0, time.UTC)
	assert.False(t, avail.Contains(lateStart, lateStart.Add(30*time.Minute)))
}
