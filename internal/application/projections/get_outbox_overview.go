package projections

import (
	"context"

	domain "mentordesk/internal/domain/outbox"
)

// DefaultOutboxListLimit caps the admin outbox listing.
const DefaultOutboxListLimit = 100

// GetOutboxOverviewQuery filters the listing; an empty Status lists all.
type GetOutboxOverviewQuery struct {
	Status string
	Limit  int
}

// GetOutboxOverviewResult carries per-status counts and the listed entries.
type GetOutboxOverviewResult struct {
	Counts  map[string]int
	Entries []domain.Entry
}

// GetOutboxOverviewDeps holds dependencies for GetOutboxOverview.
type GetOutboxOverviewDeps struct {
	Outbox OutboxReader
}

// QueryGetOutboxOverview returns outbox counts and the newest entries in a status.
// PRE: Status is empty or one of the outbox statuses
// POST: at most Limit entries, newest first
func QueryGetOutboxOverview(ctx context.Context, query GetOutboxOverviewQuery, deps GetOutboxOverviewDeps) (GetOutboxOverviewResult, error) {
	switch query.Status {
	case "", domain.StatusPending, domain.StatusRetrying, domain.StatusDone, domain.StatusFailed, domain.StatusAbandoned:
	default:
		return GetOutboxOverviewResult{}, domain.ErrInvalidStatus
	}
	limit := query.Limit
	if limit <= 0 || limit > DefaultOutboxListLimit {
		limit = DefaultOutboxListLimit
	}
	counts, err := deps.Outbox.CountByStatus(ctx)
	if err != nil {
		return GetOutboxOverviewResult{}, err
	}
	entries, err := deps.Outbox.ListByStatus(ctx, query.Status, limit)
	if err != nil {
		return GetOutboxOverviewResult{}, err
	}
	return GetOutboxOverviewResult{Counts: counts, Entries: entries}, nil
}
