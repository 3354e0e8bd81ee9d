package attendance

import (
	"context"
	"time"

	"mentordesk/internal/adapters/storage"
	domain "mentordesk/internal/domain/attendance"
)

const columns = `mentor_id, name, email, total_classes, present, absent, special_attendance, attendance_percent, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Upsert inserts or replaces the record for r.MentorID.
// PRE: r.Validate() == nil
// POST: exactly one record exists for r.MentorID
// INVARIANT: a single statement, so each mentor's row is written atomically
func (s *SQLiteStore) Upsert(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mentor_attendance (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(mentor_id) DO UPDATE SET
		   name=excluded.name, email=excluded.email, total_classes=excluded.total_classes,
		   present=excluded.present, absent=excluded.absent,
		   special_attendance=excluded.special_attendance,
		   attendance_percent=excluded.attendance_percent, updated_at=excluded.updated_at`,
		r.MentorID, r.Name, r.Email, r.TotalClasses, r.Present, r.Absent,
		r.SpecialAttendance, r.AttendancePercent, r.UpdatedAt.UTC().Format(time.RFC3339))
	return storage.Classify(err)
}

// GetByMentorID returns one record or sql.ErrNoRows.
func (s *SQLiteStore) GetByMentorID(ctx context.Context, mentorID int64) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM mentor_attendance WHERE mentor_id = ?`, mentorID)
	return scanRecord(row)
}

// List returns every record ordered by attendance percent descending, then name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM mentor_attendance ORDER BY attendance_percent DESC, name ASC`)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (domain.Record, error) {
	var r domain.Record
	var updatedAt string
	if err := sc.Scan(&r.MentorID, &r.Name, &r.Email, &r.TotalClasses, &r.Present, &r.Absent,
		&r.SpecialAttendance, &r.AttendancePercent, &updatedAt); err != nil {
		return domain.Record{}, err
	}
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return r, nil
}

var _ Store = (*SQLiteStore)(nil)
