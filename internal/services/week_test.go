package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMondayIndex(t *testing.T) {
	tests := []struct {
		weekday time.Weekday
		want    int
	}{
		{time.Monday, 0},
		{time.Tuesday, 1},
		{time.Wednesday, 2},
		{time.Thursday, 3},
		{time.Friday, 4},
		{time.Saturday, 5},
		{time.Sunday, 6},
	}

	for _, tt := range tests {
		t.Run(tt.weekday.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, MondayIndex(tt.weekday))
		})
	}
}

func TestWeekWindowDayIndex(t *testing.T) {
	window := NewWeekWindow(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), window.End)

	for i := 0; i < DaysPerWeek; i++ {
		day := window.Day(i)
		got, ok := window.DayIndex(day)
		require.True(t, ok)
		assert.Equal(t, i, got)

		// late in the same day still maps to the same slot
		got, ok = window.DayIndex(day.Add(23*time.Hour + 59*time.Minute))
		require.True(t, ok)
		assert.Equal(t, i, got)
	}

	_, ok := window.DayIndex(window.End)
	assert.False(t, ok, "end is exclusive")
	_, ok = window.DayIndex(window.Start.Add(-time.Second))
	assert.False(t, ok)
}

func TestWeekWindowDoesNotSnapToMonday(t *testing.T) {
	thursday := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	window := NewWeekWindow(thursday)

	assert.Equal(t, thursday, window.Start)
	idx, ok := window.DayIndex(thursday)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestStartOfWeek(t *testing.T) {
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, StartOfWeek(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday, StartOfWeek(time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday, StartOfWeek(time.Date(2025, 1, 12, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday.AddDate(0, 0, 7), StartOfWeek(time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)))
}

func TestDayIndexOf(t *testing.T) {
	idx, ok := DayIndexOf(" wednesday ")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = DayIndexOf("FUNDAY")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2025-01-06",
		"2025-01-06T00:00:00Z",
		"2025-01-06T00:00:00.000Z",
		"2025-01-06T00:00:00",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("06/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseWeekStart(t *testing.T) {
	window, err := ParseWeekStart("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), window.Start)

	_, err = ParseWeekStart("soon")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestWeekWindowKeepsClientInstant(t *testing.T) {
	// local Monday midnight at UTC+5:30
	window, err := ParseWeekStart("2025-01-05T18:30:00.000Z")
	require.NoError(t, err)

	start := time.Date(2025, 1, 5, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, start, window.Start)
	assert.Equal(t, start.AddDate(0, 0, 7), window.End)

	sundayLunch := time.Date(2025, 1, 5, 13, 30, 0, 0, time.UTC)
	assert.False(t, window.Contains(sundayLunch), "previous week stays outside")

	idx, ok := window.DayIndex(time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	offset := time.FixedZone("IST", 5*3600+1800)
	local, err := ParseDate("2025-01-06T00:00:00+05:30")
	require.NoError(t, err)
	assert.True(t, NewWeekWindow(local.In(offset)).Start.Equal(start))
}
