package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Session type constants. Comparisons are case-insensitive.
const (
	SessionTypeLive       = "live session"
	SessionTypeSelfPaced  = "self paced"
	SessionTypeProject    = "project"
	SessionTypeAssignment = "assignment"
	SessionTypeContest    = "contest"
)

// SessionTypes contains all known session type values.
var SessionTypes = []string{SessionTypeLive, SessionTypeSelfPaced, SessionTypeProject, SessionTypeAssignment, SessionTypeContest}

// DefaultTime is the class time assigned to every generated row (9 PM).
const DefaultTime = "21:00:00"

// Domain errors
var (
	ErrUnrecognizedDay    = errors.New("unrecognized day name")
	ErrNoTemplateData     = errors.New("no template data found")
	ErrInvalidDate        = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTime        = errors.New("time must be in HH:MM or HH:MM:SS format")
	ErrInvalidWeek        = errors.New("week number must be positive")
	ErrInvalidSession     = errors.New("session number must be positive")
	ErrDayMismatch        = errors.New("day does not match date")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidMentor      = errors.New("mentor ID must be positive")
	ErrUnknownSessionType = errors.New("unknown session type")
)

// TemplateRow is a curriculum entry not yet bound to calendar dates.
// A zero WeekNumber or SessionNumber means the template leaves it unset.
type TemplateRow struct {
	ID                     int64
	WeekNumber             int
	SessionNumber          int
	SessionType            string
	SubjectType            string
	SubjectName            string
	SubjectTopic           string
	InitialSessionMaterial string
}

// Row is one scheduled class occurrence in a cohort schedule table.
// Empty strings and zero IDs are stored as NULL.
type Row struct {
	ID                     int64
	WeekNumber             int
	SessionNumber          int
	Date                   string // YYYY-MM-DD
	Time                   string // HH:MM:SS
	Day                    string // Monday, Tuesday, etc.
	SessionType            string
	SubjectType            string
	SubjectName            string
	SubjectTopic           string
	InitialSessionMaterial string
	SessionMaterial        string
	SessionRecording       string
	MentorID               int64
	SwappedMentorID        int64
	TeamsMeetingLink       string
	NotificationSent       bool
	CreatedAt              time.Time
}

// Validate checks that a Row is internally consistent.
// PRE: Row struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Day matches the weekday of Date whenever both are set
func (r *Row) Validate() error {
	if r.WeekNumber <= 0 {
		return ErrInvalidWeek
	}
	if r.SessionNumber <= 0 {
		return ErrInvalidSession
	}
	if r.Date != "" {
		d, err := ParseDate(r.Date)
		if err != nil {
			return err
		}
		if r.Day != "" && !strings.EqualFold(r.Day, DayName(d)) {
			return fmt.Errorf("%w: %s is a %s, not %s", ErrDayMismatch, r.Date, DayName(d), r.Day)
		}
	}
	if r.Time != "" {
		if _, err := NormalizeTime(r.Time); err != nil {
			return err
		}
	}
	if r.MentorID < 0 || r.SwappedMentorID < 0 {
		return ErrInvalidMentor
	}
	return nil
}

// IsCompleted reports whether the class has a recording attached.
// INVARIANT: Row is not mutated
func (r *Row) IsCompleted() bool {
	return r.SessionRecording != ""
}

// HasMeetingLink reports whether the row carries a usable meeting link.
// Blank values and the literal "null" count as missing.
func (r *Row) HasMeetingLink() bool {
	link := strings.TrimSpace(r.TeamsMeetingLink)
	return link != "" && link != "null"
}

// IsSwapped reports whether another mentor substituted for the assigned one.
func (r *Row) IsSwapped() bool {
	return r.SwappedMentorID != 0
}

// IsContest reports whether a session type uses the contest date rule.
func IsContest(sessionType string) bool {
	return strings.EqualFold(sessionType, SessionTypeContest)
}

// IsLiveSession reports whether a session type requires a mentor.
func IsLiveSession(sessionType string) bool {
	return strings.EqualFold(sessionType, SessionTypeLive)
}

// IsKnownSessionType reports whether t is one of SessionTypes.
func IsKnownSessionType(t string) bool {
	for _, s := range SessionTypes {
		if strings.EqualFold(s, t) {
			return true
		}
	}
	return false
}

// NormalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
// PRE: none
// POST: Returns ErrInvalidTime for anything that is not a valid clock time
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
}
