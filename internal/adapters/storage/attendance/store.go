package attendance

import (
	"context"

	domain "mentordesk/internal/domain/attendance"
)

// Store persists derived mentor attendance. Records are keyed by mentor ID
// and overwritten on every calculation run.
type Store interface {
	// Upsert inserts or replaces the record for r.MentorID.
	// PRE: r.Validate() == nil
	// POST: exactly one record exists for r.MentorID
	Upsert(ctx context.Context, r domain.Record) error

	// GetByMentorID returns one record or sql.ErrNoRows.
	GetByMentorID(ctx context.Context, mentorID int64) (domain.Record, error)

	// List returns every record ordered by attendance percent descending, then name.
	List(ctx context.Context) ([]domain.Record, error)
}
