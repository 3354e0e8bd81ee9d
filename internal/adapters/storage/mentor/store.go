package mentor

import (
	"context"

	domain "mentordesk/internal/domain/mentor"
)

// Store reads and maintains the mentor roster.
type Store interface {
	// List returns every mentor ordered by ID.
	List(ctx context.Context) ([]domain.Mentor, error)

	// GetByID returns one mentor or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (domain.Mentor, error)

	// Save inserts or updates a mentor.
	// PRE: m.Validate() == nil
	Save(ctx context.Context, m domain.Mentor) error
}
