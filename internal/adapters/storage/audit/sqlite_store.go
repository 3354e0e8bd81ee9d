package audit

import (
	"context"
	"strings"
	"time"

	"mentordesk/internal/adapters/storage"
	domain "mentordesk/internal/domain/audit"
)

const eventColumns = `id, timestamp, category, action, actor, resource, description, ip_address, user_agent`

// SQLiteStore implements Store on the audit_event table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save appends an event.
// PRE: event.Validate() == nil
// POST: the event is stored with its timestamp in RFC 3339 UTC
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), string(e.Category), string(e.Action),
		e.Actor, e.Resource, e.Description, e.IPAddress, e.UserAgent)
	return storage.Classify(err)
}

// List returns matching events, newest first.
func (s *SQLiteStore) List(ctx context.Context, f Filter, limit int) ([]domain.Event, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.Resource != "" {
		where = append(where, "resource LIKE ? ESCAPE '\\'")
		args = append(args, likePrefix(f.Resource))
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}

	query := `SELECT ` + eventColumns + ` FROM audit_event`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY timestamp DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts, category, action string
		if err := rows.Scan(&e.ID, &ts, &category, &action, &e.Actor, &e.Resource,
			&e.Description, &e.IPAddress, &e.UserAgent); err != nil {
			return nil, err
		}
		e.Category, e.Action = domain.Category(category), domain.Action(action)
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

// likePrefix escapes LIKE wildcards in p and appends %.
func likePrefix(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(p) + "%"
}
