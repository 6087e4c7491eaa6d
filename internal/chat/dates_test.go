package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpcomingDateOptions(t *testing.T) {
	now := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)
	options := upcomingDateOptions(now)

	require.Len(t, options, 7)
	assert.Equal(t, "2026-08-29", options[0].Value)
	assert.Equal(t, "Saturday, August 29", options[0].Text)
	assert.Equal(t, "2026-09-04", options[6].Value)

	for _, opt := range options {
		assert.Equal(t, ActionSelectDate, opt.Action)
		day, err := time.Parse(isoDate, opt.Value)
		require.NoError(t, err)
		assert.True(t, day.After(now), "option %s should be strictly after today", opt.Value)
	}
}

func TestUpcomingDateOptionsCrossMonth(t *testing.T) {
	now := time.Date(2026, time.December, 29, 23, 0, 0, 0, time.UTC)
	options := upcomingDateOptions(now)

	require.Len(t, options, 7)
	assert.Equal(t, "2026-12-30", options[0].Value)
	assert.Equal(t, "2027-01-05", options[6].Value)
}

func TestFormatDisplayDate(t *testing.T) {
	assert.Equal(t, "Tuesday, September 1", formatDisplayDate("2026-09-01"))
	assert.Equal(t, "not-a-date", formatDisplayDate("not-a-date"))
}
