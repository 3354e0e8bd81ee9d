package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// MoveMode selects the direction a session is moved in.
type MoveMode string

// Move modes.
const (
	MovePostpone MoveMode = "postpone"
	MovePrepone  MoveMode = "prepone"
)

// unboundedMoveDays is how far a session may move when no neighbouring session bounds it.
const unboundedMoveDays = 30

// Move errors
var (
	ErrInvalidMoveMode  = errors.New("move mode must be postpone or prepone")
	ErrNothingToMove    = errors.New("change either date or time")
	ErrSessionUndated   = errors.New("session has no date")
	ErrDateNotAvailable = errors.New("date is not available for this move")
	ErrTimeDirection    = errors.New("time moves in the wrong direction")
)

// ParseMoveMode validates a move mode string.
// PRE: none
// POST: Returns ErrInvalidMoveMode for anything but postpone or prepone
func ParseMoveMode(s string) (MoveMode, error) {
	switch MoveMode(s) {
	case MovePostpone, MovePrepone:
		return MoveMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMoveMode, s)
}

// MoveOptions lists the dates a session may be moved to.
// Postpone offers dates after the session up to the day before the next
// session by date; prepone offers dates from the day after the previous
// session up to the day before the session. Without a neighbour the window
// extends 30 days. Dates already holding another session and dates before
// today are excluded.
// PRE: rows is the full cohort table; id identifies a row in it
// POST: Returns ascending YYYY-MM-DD dates, or ErrSessionNotFound / ErrSessionUndated
func MoveOptions(rows []Row, id int64, mode MoveMode, today time.Time) ([]string, error) {
	target, ok := findRow(rows, id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if target.Date == "" {
		return nil, ErrSessionUndated
	}
	sessionDate, err := ParseDate(target.Date)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool)
	var others []time.Time
	for _, r := range rows {
		if r.ID == id || r.Date == "" {
			continue
		}
		d, err := ParseDate(r.Date)
		if err != nil {
			continue
		}
		taken[FormatDate(d)] = true
		others = append(others, d)
	}
	sort.Slice(others, func(i, j int) bool { return others[i].Before(others[j]) })

	var from, to time.Time
	switch mode {
	case MovePostpone:
		from = sessionDate.AddDate(0, 0, 1)
		to = sessionDate.AddDate(0, 0, unboundedMoveDays)
		for _, d := range others {
			if d.After(sessionDate) {
				to = d.AddDate(0, 0, -1)
				break
			}
		}
	case MovePrepone:
		from = sessionDate.AddDate(0, 0, -unboundedMoveDays)
		to = sessionDate.AddDate(0, 0, -1)
		for i := len(others) - 1; i >= 0; i-- {
			if others[i].Before(sessionDate) {
				from = others[i].AddDate(0, 0, 1)
				break
			}
		}
	default:
		return nil, ErrInvalidMoveMode
	}
	if from.Before(today) {
		from = today
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		s := FormatDate(d)
		if !taken[s] {
			dates = append(dates, s)
		}
	}
	return dates, nil
}

// CheckTimeMove validates a same-day move: postpone must go later, prepone earlier.
// PRE: current and proposed are HH:MM or HH:MM:SS
// POST: Returns ErrTimeDirection when the new time does not move in mode's direction
func CheckTimeMove(current, proposed string, mode MoveMode) error {
	cur, err := NormalizeTime(current)
	if err != nil {
		return err
	}
	next, err := NormalizeTime(proposed)
	if err != nil {
		return err
	}
	switch mode {
	case MovePostpone:
		if next <= cur {
			return fmt.Errorf("%w: postpone on the same date must be after %s", ErrTimeDirection, cur[:5])
		}
	case MovePrepone:
		if next >= cur {
			return fmt.Errorf("%w: prepone on the same date must be before %s", ErrTimeDirection, cur[:5])
		}
	default:
		return ErrInvalidMoveMode
	}
	return nil
}

func findRow(rows []Row, id int64) (Row, bool) {
	for _, r := range rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}
