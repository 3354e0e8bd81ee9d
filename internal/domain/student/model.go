package student

import (
	"errors"
	"strings"

	"mentordesk/internal/domain/cohort"
)

// Domain errors
var (
	ErrEmptyID    = errors.New("student ID is required")
	ErrEmptyName  = errors.New("student name is required")
	ErrEmptyEmail = errors.New("student email is required")
)

// Student is an onboarding roster entry tying a learner to a cohort.
type Student struct {
	ID           string
	Name         string
	Email        string
	CohortType   string
	CohortNumber string
}

// Validate checks that the Student has valid data.
// PRE: Student struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Student) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(s.Email) == "" {
		return ErrEmptyEmail
	}
	return (cohort.Cohort{Type: s.CohortType, Number: s.CohortNumber}).Validate()
}

// Cohort returns the cohort the student is enrolled in.
func (s *Student) Cohort() cohort.Cohort {
	return cohort.Cohort{Type: s.CohortType, Number: s.CohortNumber}
}

// Reachable reports whether the roster entry carries a deliverable address.
func (s *Student) Reachable() bool {
	return strings.Contains(s.Email, "@")
}

// Emails returns the deliverable addresses of a roster, in order.
func Emails(students []Student) []string {
	var out []string
	for _, s := range students {
		if s.Reachable() {
			out = append(out, strings.TrimSpace(s.Email))
		}
	}
	return out
}
