package mentor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mentordesk/internal/adapters/storage"
	domain "mentordesk/internal/domain/mentor"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new mentor store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List returns every mentor ordered by ID.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Mentor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mentor_id, name, email, phone FROM mentor ORDER BY mentor_id`)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var out []domain.Mentor
	for rows.Next() {
		var m domain.Mentor
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID returns one mentor or domain.ErrNotFound.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Mentor, error) {
	var m domain.Mentor
	err := s.db.QueryRowContext(ctx,
		`SELECT mentor_id, name, email, phone FROM mentor WHERE mentor_id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Mentor{}, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	return m, storage.Classify(err)
}

// Save inserts or updates a mentor.
// PRE: m.Validate() == nil
func (s *SQLiteStore) Save(ctx context.Context, m domain.Mentor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mentor (mentor_id, name, email, phone) VALUES (?, ?, ?, ?)
		 ON CONFLICT(mentor_id) DO UPDATE SET name=excluded.name, email=excluded.email, phone=excluded.phone`,
		m.ID, m.Name, m.Email, m.Phone)
	return storage.Classify(err)
}
