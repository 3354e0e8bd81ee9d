package schedule

import (
	"fmt"
	"sort"
	"time"
)

// DateSpan is a run of consecutive dates without a session.
type DateSpan struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
	Label string // "2nd Jan → 5th Jan"
}

// OpenDateSpans finds the free dates around a week where a session can be added.
// The window runs from the day after the previous week's last session (or
// the week's first session minus 7 days) to the day before the next week's
// first session (or the week's last session plus 7 days). Dates holding a
// session of this week and dates before today are not offered.
// PRE: rows is the full cohort table
// POST: Returns spans in ascending order; empty when the week has no window
func OpenDateSpans(rows []Row, week int, today time.Time) []DateSpan {
	byWeek := func(w int) []time.Time {
		var out []time.Time
		for _, r := range rows {
			if r.WeekNumber != w || r.Date == "" {
				continue
			}
			if d, err := ParseDate(r.Date); err == nil {
				out = append(out, d)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
		return out
	}
	this, prev, next := byWeek(week), byWeek(week-1), byWeek(week+1)

	var start, end time.Time
	switch {
	case len(prev) > 0:
		start = prev[len(prev)-1].AddDate(0, 0, 1)
	case len(this) > 0:
		start = this[0].AddDate(0, 0, -7)
	default:
		return nil
	}
	switch {
	case len(next) > 0:
		end = next[0].AddDate(0, 0, -1)
	case len(this) > 0:
		end = this[len(this)-1].AddDate(0, 0, 7)
	default:
		return nil
	}
	if start.Before(today) {
		start = today
	}
	if end.Before(today) {
		return nil
	}

	taken := make(map[string]bool, len(this))
	for _, d := range this {
		taken[FormatDate(d)] = true
	}

	var spans []DateSpan
	var open *time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !taken[FormatDate(d)] {
			if open == nil {
				s := d
				open = &s
			}
			continue
		}
		if open != nil {
			spans = append(spans, newSpan(*open, d.AddDate(0, 0, -1)))
			open = nil
		}
	}
	if open != nil {
		spans = append(spans, newSpan(*open, end))
	}
	return spans
}

func newSpan(start, end time.Time) DateSpan {
	label := spanDay(start)
	if !start.Equal(end) {
		label = spanDay(start) + " → " + spanDay(end)
	}
	return DateSpan{Start: FormatDate(start), End: FormatDate(end), Label: label}
}

// spanDay renders a date as "2nd Jan".
func spanDay(t time.Time) string {
	return fmt.Sprintf("%d%s %s", t.Day(), ordinalSuffix(t.Day()), t.Format("Jan"))
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
