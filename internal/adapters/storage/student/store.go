package student

import (
	"context"

	"mentordesk/internal/domain/cohort"
	domain "mentordesk/internal/domain/student"
)

// Store reads and maintains the onboarding roster.
type Store interface {
	// ListByCohort returns the students enrolled in c, ordered by name.
	ListByCohort(ctx context.Context, c cohort.Cohort) ([]domain.Student, error)

	// ListCohorts returns the distinct cohorts with at least one student,
	// ordered by type then number.
	ListCohorts(ctx context.Context) ([]cohort.Cohort, error)

	// Save inserts or updates a student.
	// PRE: st.Validate() == nil
	Save(ctx context.Context, st domain.Student) error
}
