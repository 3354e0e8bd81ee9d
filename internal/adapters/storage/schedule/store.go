package schedule

import (
	"context"
	"errors"

	domain "mentordesk/internal/domain/schedule"
)

// ReplaceBatchSize is the number of rows written per INSERT during Replace.
const ReplaceBatchSize = 100

// ErrUnknownColumn is returned when an update names a column outside the editable set.
var ErrUnknownColumn = errors.New("column is not editable")

// EditableColumns are the columns UpdateFields may change.
var EditableColumns = []string{
	"session_type",
	"subject_type",
	"subject_name",
	"subject_topic",
	"initial_session_material",
	"session_material",
	"session_recording",
	"mentor_id",
	"swapped_mentor_id",
	"teams_meeting_link",
	"time",
}

// Store persists cohort schedule tables. Every method takes the table name,
// which must satisfy cohort.IsScheduleTable; anything else is rejected before
// it reaches SQL.
type Store interface {
	// EnsureTable creates the table if it does not exist.
	EnsureTable(ctx context.Context, table string) error

	// Exists reports whether the table exists.
	Exists(ctx context.Context, table string) (bool, error)

	// Replace deletes every row in the table and inserts rows in batches, in one transaction.
	// PRE: table exists
	// POST: the table holds exactly rows; returns the number inserted
	Replace(ctx context.Context, table string, rows []domain.Row) (int, error)

	// List returns every row ordered by week, session and id.
	List(ctx context.Context, table string) ([]domain.Row, error)

	// ListBetween returns rows dated within [from, to] (inclusive), ordered by date and time.
	ListBetween(ctx context.Context, table, from, to string) ([]domain.Row, error)

	// ListOnDate returns rows dated exactly date, ordered by time.
	ListOnDate(ctx context.Context, table, date string) ([]domain.Row, error)

	// GetByID returns one row or domain.ErrSessionNotFound.
	GetByID(ctx context.Context, table string, id int64) (domain.Row, error)

	// Insert adds one row.
	Insert(ctx context.Context, table string, row domain.Row) error

	// Update overwrites the row with row.ID.
	// POST: domain.ErrSessionNotFound if no row has that id
	Update(ctx context.Context, table string, row domain.Row) error

	// UpdateFields sets the given columns on every listed id.
	// PRE: every key is in EditableColumns
	// POST: returns the number of rows changed
	UpdateFields(ctx context.Context, table string, ids []int64, fields map[string]any) (int, error)

	// DeleteWeek removes every row of week and shifts later weeks down by one week
	// and back seven days, in one transaction.
	// POST: returns rows deleted and rows shifted
	DeleteWeek(ctx context.Context, table string, week int) (deleted, shifted int, err error)

	// ListCompletedByMentor returns completed rows whose mentor_id is mentorID.
	ListCompletedByMentor(ctx context.Context, table string, mentorID int64) ([]domain.Row, error)

	// ListCompletedBySubstitute returns completed rows whose swapped_mentor_id is mentorID.
	ListCompletedBySubstitute(ctx context.Context, table string, mentorID int64) ([]domain.Row, error)

	// SetMeetingLink stores a join URL on one row.
	SetMeetingLink(ctx context.Context, table string, id int64, link string) error

	// MarkNotified sets notification_sent on one row.
	MarkNotified(ctx context.Context, table string, id int64) error
}
