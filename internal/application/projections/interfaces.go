package projections

import (
	"context"

	domainAttendance "mentordesk/internal/domain/attendance"
	domainOutbox "mentordesk/internal/domain/outbox"
	domainSchedule "mentordesk/internal/domain/schedule"
)

// SessionLister reads a whole cohort table.
type SessionLister interface {
	List(ctx context.Context, table string) ([]domainSchedule.Row, error)
}

// AttendanceLister reads derived attendance records.
type AttendanceLister interface {
	List(ctx context.Context) ([]domainAttendance.Record, error)
}

// TableCatalog lists cohort schedule tables.
type TableCatalog interface {
	ScheduleTables(ctx context.Context) ([]string, error)
}

// OutboxReader reads outbox entries for the admin view.
type OutboxReader interface {
	ListByStatus(ctx context.Context, status string, limit int) ([]domainOutbox.Entry, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}
