package services

import (
	"errors"
	"strings"
	"time"
)

// DaysPerWeek is the length of a week window
const DaysPerWeek = 7

// DayLabels are the weekday keys of a week grid, Monday first.
var DayLabels = [DaysPerWeek]string{
	"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY",
}

var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// WeekWindow is the half-open interval [Start, End) of one planning week
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// NewWeekWindow starts a window at the exact instant weekStart. Clients east
// of UTC send local midnight, which is the previous day in UTC.
func NewWeekWindow(weekStart time.Time) WeekWindow {
	start := weekStart.UTC()
	return WeekWindow{
		Start: start,
		End:   start.AddDate(0, 0, DaysPerWeek),
	}
}

// Contains reports whether t lies in [Start, End)
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayIndex returns the day offset of t from the window start, 0 through 6.
// Dates outside the window have no slot.
func (w WeekWindow) DayIndex(t time.Time) (int, bool) {
	if !w.Contains(t) {
		return 0, false
	}
	return int(t.Sub(w.Start) / (24 * time.Hour)), true
}

// Day returns the start of the day at index i
func (w WeekWindow) Day(i int) time.Time {
	return w.Start.AddDate(0, 0, i)
}

// MondayIndex maps a weekday to a Monday-first index, so Sunday is 6.
func MondayIndex(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}

// StartOfWeek returns midnight UTC of the Monday on or before t
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -MondayIndex(day.Weekday()))
}

// DayIndexOf returns the index of a weekday label such as "MONDAY"
func DayIndexOf(label string) (int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i, l := range DayLabels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseWeekStart parses s into the week window starting at that instant
func ParseWeekStart(s string) (WeekWindow, error) {
	t, err := ParseDate(s)
	if err != nil {
		return WeekWindow{}, err
	}
	return NewWeekWindow(t), nil
}
