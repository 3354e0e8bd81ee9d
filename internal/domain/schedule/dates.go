package schedule

import "time"

// SessionDate computes the date of a normal session.
// Session 1 of a week lands on day1, any other session on day2.
// day2 always falls strictly after day1 within the same week cycle.
// PRE: start is a calendar date; week >= 1
// POST: Returns ErrUnrecognizedDay if either day name is unknown
func SessionDate(start time.Time, week, session int, day1, day2 string) (time.Time, error) {
	d1, err := DayIndex(day1)
	if err != nil {
		return time.Time{}, err
	}
	d2, err := DayIndex(day2)
	if err != nil {
		return time.Time{}, err
	}

	day1Offset := daysUntil(start.Weekday(), d1)
	day2Offset := daysUntil(start.Weekday(), d2)
	if day2Offset <= day1Offset {
		day2Offset += 7
	}

	offset := day2Offset
	if session == 1 {
		offset = day1Offset
	}
	return start.AddDate(0, 0, (week-1)*7+offset), nil
}

// ContestDate computes the date of a contest session.
// Contests are anchored on the first Monday on or after start: the Nth
// contest of a week lands on the Nth weekday counting from that week's Monday.
// PRE: start is a calendar date; week >= 1; session >= 1
// POST: Returns the contest date (never fails)
func ContestDate(start time.Time, week, session int) time.Time {
	var toMonday int
	switch wd := start.Weekday(); wd {
	case time.Monday:
		toMonday = 0
	case time.Sunday:
		toMonday = 1
	default:
		toMonday = 8 - int(wd)
	}
	anchor := start.AddDate(0, 0, toMonday)
	return anchor.AddDate(0, 0, (week-1)*7+(session-1))
}
