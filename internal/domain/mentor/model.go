package mentor

import (
	"errors"
	"strings"
)

// UnknownName is shown for mentors whose roster entry has no name.
const UnknownName = "Unknown"

// Domain errors
var (
	ErrInvalidID   = errors.New("mentor ID must be positive")
	ErrEmptyEmail  = errors.New("mentor email is required")
	ErrInvalidMail = errors.New("mentor email must contain @")
	ErrNoMentors   = errors.New("no mentors found")
	ErrNotFound    = errors.New("mentor not found")
)

// Mentor is a roster entry. Mentors are looked up by ID across all cohorts.
type Mentor struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// Validate checks that the Mentor has valid data.
// PRE: Mentor struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Mentor) Validate() error {
	if m.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(m.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(m.Email, "@") {
		return ErrInvalidMail
	}
	return nil
}

// DisplayName returns the mentor's name, or UnknownName when blank.
// INVARIANT: Mentor is not mutated
func (m *Mentor) DisplayName() string {
	if strings.TrimSpace(m.Name) == "" {
		return UnknownName
	}
	return m.Name
}
