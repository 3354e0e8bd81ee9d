package student

import (
	"context"
	"strings"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/cohort"
	domain "mentordesk/internal/domain/student"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new student store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListByCohort returns the students enrolled in c, ordered by name.
// Cohort type is matched case-insensitively.
func (s *SQLiteStore) ListByCohort(ctx context.Context, c cohort.Cohort) ([]domain.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, cohort_type, cohort_number FROM student
		 WHERE LOWER(cohort_type) = ? AND cohort_number = ? ORDER BY name, id`,
		strings.ToLower(c.Type), c.Number)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var out []domain.Student
	for rows.Next() {
		var st domain.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.CohortType, &st.CohortNumber); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListCohorts returns the distinct cohorts with at least one student.
func (s *SQLiteStore) ListCohorts(ctx context.Context) ([]cohort.Cohort, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT LOWER(cohort_type), cohort_number FROM student
		 WHERE cohort_type <> '' AND cohort_number <> ''
		 ORDER BY LOWER(cohort_type), cohort_number`)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var out []cohort.Cohort
	for rows.Next() {
		var c cohort.Cohort
		if err := rows.Scan(&c.Type, &c.Number); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save inserts or updates a student.
// PRE: st.Validate() == nil
func (s *SQLiteStore) Save(ctx context.Context, st domain.Student) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO student (id, name, email, cohort_type, cohort_number) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, email=excluded.email,
		   cohort_type=excluded.cohort_type, cohort_number=excluded.cohort_number`,
		st.ID, st.Name, st.Email, st.CohortType, st.CohortNumber)
	return storage.Classify(err)
}
