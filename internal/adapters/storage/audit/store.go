package audit

import (
	"context"
	"time"

	domain "mentordesk/internal/domain/audit"
)

// Store persists the admin audit trail.
type Store interface {
	// Save appends an event.
	// PRE: event.Validate() == nil
	Save(ctx context.Context, event domain.Event) error

	// List returns matching events, newest first.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Category domain.Category
	Action   domain.Action
	Resource string // prefix match, so a table also matches its rows
	Since    time.Time
}

var _ Store = (*SQLiteStore)(nil)
