package attendance

import (
	"errors"
	"math"
	"time"

	"mentordesk/internal/domain/mentor"
)

// LowAttendanceThreshold is the percentage below which a mentor is flagged.
const LowAttendanceThreshold = 75.0

// Domain errors
var (
	ErrInvalidMentorID = errors.New("attendance must be associated with a mentor")
	ErrCountMismatch   = errors.New("present + absent must equal total classes")
	ErrNegativeCount   = errors.New("attendance counts cannot be negative")
	ErrPercentRange    = errors.New("attendance percent must be between 0 and 100")
)

// Record is a mentor's derived attendance. It is recomputed from scratch on
// every run and overwritten by mentor ID; there is no history.
type Record struct {
	MentorID          int64
	Name              string
	Email             string
	TotalClasses      int
	Present           int
	Absent            int
	SpecialAttendance int
	AttendancePercent float64
	UpdatedAt         time.Time
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Present + Absent == TotalClasses; SpecialAttendance is never part of TotalClasses
func (r *Record) Validate() error {
	if r.MentorID <= 0 {
		return ErrInvalidMentorID
	}
	if r.TotalClasses < 0 || r.Present < 0 || r.Absent < 0 || r.SpecialAttendance < 0 {
		return ErrNegativeCount
	}
	if r.Present+r.Absent != r.TotalClasses {
		return ErrCountMismatch
	}
	if r.AttendancePercent < 0 || r.AttendancePercent > 100 {
		return ErrPercentRange
	}
	return nil
}

// IsLow reports whether the mentor is below LowAttendanceThreshold.
// A mentor with no completed classes is not flagged.
func (r *Record) IsLow() bool {
	return r.TotalClasses > 0 && r.AttendancePercent < LowAttendanceThreshold
}

// Tally accumulates one mentor's classifications during a run.
type Tally struct {
	Total   int
	Present int
	Absent  int
	Special int
}

// AddAssigned counts a completed class the mentor was assigned to.
// A class with a substitute is an absence, otherwise a presence.
// POST: Total incremented; exactly one of Present/Absent incremented
func (t *Tally) AddAssigned(swapped bool) {
	t.Total++
	if swapped {
		t.Absent++
	} else {
		t.Present++
	}
}

// AddSubstitute counts a completed class the mentor covered for someone else.
// POST: Special incremented; Total unchanged
func (t *Tally) AddSubstitute() {
	t.Special++
}

// Percent returns present/total as a percentage rounded to two decimals.
// POST: Returns 0 when Total is 0
func (t Tally) Percent() float64 {
	if t.Total == 0 {
		return 0
	}
	return math.Round(float64(t.Present)/float64(t.Total)*100*100) / 100
}

// Record builds the persisted record for m.
// PRE: t holds every classification for m from this run
// POST: Returns a Record satisfying Validate
func (t Tally) Record(m mentor.Mentor, now time.Time) Record {
	return Record{
		MentorID:          m.ID,
		Name:              m.DisplayName(),
		Email:             m.Email,
		TotalClasses:      t.Total,
		Present:           t.Present,
		Absent:            t.Absent,
		SpecialAttendance: t.Special,
		AttendancePercent: t.Percent(),
		UpdatedAt:         now,
	}
}
