package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by cohort tables.
const DateLayout = "2006-01-02"

// DayIndex maps a weekday name to its index (Sunday = 0).
// Matching ignores case and surrounding whitespace.
// PRE: none
// POST: Returns ErrUnrecognizedDay for anything but the seven English day names
func DayIndex(name string) (time.Weekday, error) {
	n := strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), n) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrUnrecognizedDay, name)
}

// DayName returns the weekday name of date ("Monday").
func DayName(date time.Time) string {
	return date.Weekday().String()
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
// PRE: none
// POST: Returns ErrInvalidDate if s is not a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateIn returns the calendar date of t as seen in loc, at UTC midnight.
// Used to compute "today" in the program's time zone.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysUntil returns the non-negative distance in days from one weekday to another.
func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}
