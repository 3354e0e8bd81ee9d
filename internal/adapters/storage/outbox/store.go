package outbox

import (
	"context"
	"time"

	domain "mentordesk/internal/domain/outbox"
)

// Store persists outbox entries.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save inserts or updates an entry.
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still to be processed (pending or retrying), oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListByStatus returns entries in one status, newest first; an empty status lists all.
	// PRE: limit > 0
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)

	// CountByStatus returns the number of entries per status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// PruneDone deletes done and abandoned entries created before cutoff.
	// POST: Returns the number of entries deleted
	PruneDone(ctx context.Context, cutoff time.Time) (int, error)
}
