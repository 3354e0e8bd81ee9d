package template

import (
	"context"
	"database/sql"
	"fmt"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/schedule"
)

const columns = `id, week_number, session_number, session_type, subject_type, subject_name, subject_topic, initial_session_material`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new template store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// tableFor validates cohortType and returns its quoted template table.
func tableFor(cohortType string) (string, string, error) {
	if err := cohort.ValidateType(cohortType); err != nil {
		return "", "", err
	}
	name := cohort.TemplateKey(cohortType)
	return name, `"` + name + `"`, nil
}

func (s *SQLiteStore) exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0, storage.Classify(err)
}

// ListByCohortType returns the template for cohortType ordered by id.
// PRE: cohortType passes cohort.ValidateType
// POST: storage.ErrTableNotFound when the type has no template table
func (s *SQLiteStore) ListByCohortType(ctx context.Context, cohortType string) ([]schedule.TemplateRow, error) {
	name, q, err := tableFor(cohortType)
	if err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM `+q+` ORDER BY id ASC`)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var out []schedule.TemplateRow
	for rows.Next() {
		var (
			t                                 schedule.TemplateRow
			week, session                     sql.NullInt64
			sessionType, subjectType, subject sql.NullString
			topic, material                   sql.NullString
		)
		if err := rows.Scan(&t.ID, &week, &session, &sessionType, &subjectType, &subject, &topic, &material); err != nil {
			return nil, err
		}
		t.WeekNumber = int(week.Int64)
		t.SessionNumber = int(session.Int64)
		t.SessionType = sessionType.String
		t.SubjectType = subjectType.String
		t.SubjectName = subject.String
		t.SubjectTopic = topic.String
		t.InitialSessionMaterial = material.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListCohortTypes returns the cohort types that have a template table, sorted.
func (s *SQLiteStore) ListCohortTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE '%gen_schedule' ORDER BY name`)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if t, ok := cohort.TemplateType(name); ok {
			types = append(types, t)
		}
	}
	return types, rows.Err()
}

// Replace creates the template table if needed and replaces its contents.
// PRE: cohortType passes cohort.ValidateType; row IDs are unique
// POST: the template holds exactly rows
func (s *SQLiteStore) Replace(ctx context.Context, cohortType string, rows []schedule.TemplateRow) (int, error) {
	_, q, err := tableFor(cohortType)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+q+` (
		id INTEGER PRIMARY KEY,
		week_number INTEGER,
		session_number INTEGER,
		session_type TEXT,
		subject_type TEXT,
		subject_name TEXT,
		subject_topic TEXT,
		initial_session_material TEXT
	)`); err != nil {
		return 0, storage.Classify(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storage.Classify(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+q); err != nil {
		return 0, storage.Classify(err)
	}
	insert := `INSERT INTO ` + q + ` (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, t := range rows {
		if _, err := tx.ExecContext(ctx, insert, t.ID, nullInt(t.WeekNumber), nullInt(t.SessionNumber),
			t.SessionType, t.SubjectType, t.SubjectName, t.SubjectTopic, t.InitialSessionMaterial); err != nil {
			return 0, fmt.Errorf("insert template row %d: %w", t.ID, storage.Classify(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storage.Classify(err)
	}
	return len(rows), nil
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
