package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/cohort"
	domain "mentordesk/internal/domain/schedule"
)

const columns = `id, week_number, session_number, date, time, day, session_type, subject_type,
	subject_name, subject_topic, initial_session_material, session_material, session_recording,
	mentor_id, swapped_mentor_id, teams_meeting_link, notification_sent, created_at`

const columnCount = 18

const createTableSQL = `CREATE TABLE IF NOT EXISTS %[1]q (
	id INTEGER PRIMARY KEY,
	week_number INTEGER,
	session_number INTEGER,
	date TEXT,
	time TEXT,
	day TEXT,
	session_type TEXT,
	subject_type TEXT,
	subject_name TEXT,
	subject_topic TEXT,
	initial_session_material TEXT,
	session_material TEXT,
	session_recording TEXT,
	mentor_id INTEGER,
	swapped_mentor_id INTEGER,
	teams_meeting_link TEXT,
	notification_sent INTEGER NOT NULL DEFAULT 0,
	created_at TEXT
)`

// SQLiteStore implements Store using one SQLite table per cohort.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new cohort schedule store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// quoted validates a table name and returns it quoted for SQL.
func quoted(table string) (string, error) {
	if !cohort.IsScheduleTable(table) {
		return "", fmt.Errorf("%w: %q", cohort.ErrInvalidTable, table)
	}
	return `"` + table + `"`, nil
}

// EnsureTable creates the table and its week/session index if missing.
// PRE: cohort.IsScheduleTable(table)
// POST: table exists
func (s *SQLiteStore) EnsureTable(ctx context.Context, table string) error {
	if _, err := quoted(table); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createTableSQL, table)); err != nil {
		return storage.Classify(err)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %q ON %q (week_number, session_number)`, "idx_"+table+"_week", table))
	return storage.Classify(err)
}

// Exists reports whether the table exists.
func (s *SQLiteStore) Exists(ctx context.Context, table string) (bool, error) {
	if _, err := quoted(table); err != nil {
		return false, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, storage.Classify(err)
	}
	return n > 0, nil
}

// existing validates the name and requires the table to exist.
func (s *SQLiteStore) existing(ctx context.Context, table string) (string, error) {
	q, err := quoted(table)
	if err != nil {
		return "", err
	}
	ok, err := s.Exists(ctx, table)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrTableNotFound, table)
	}
	return q, nil
}

// Replace deletes every row and inserts rows in batches of ReplaceBatchSize.
// PRE: table exists
// POST: table holds exactly rows, or is unchanged on error
// INVARIANT: readers never observe a partially replaced table
func (s *SQLiteStore) Replace(ctx context.Context, table string, rows []domain.Row) (int, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storage.Classify(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+q); err != nil {
		return 0, storage.Classify(err)
	}

	inserted := 0
	for start := 0; start < len(rows); start += ReplaceBatchSize {
		end := min(start+ReplaceBatchSize, len(rows))
		batch := rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*columnCount)
		for i, r := range batch {
			placeholders[i] = rowPlaceholder
			args = append(args, rowArgs(r)...)
		}
		query := `INSERT INTO ` + q + ` (` + columns + `) VALUES ` + strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert batch at row %d: %w", start, storage.Classify(err))
		}
		inserted += len(batch)
	}

	if err := tx.Commit(); err != nil {
		return 0, storage.Classify(err)
	}
	return inserted, nil
}

var rowPlaceholder = "(" + strings.TrimSuffix(strings.Repeat("?, ", columnCount), ", ") + ")"

// List returns every row ordered by week, session and id.
func (s *SQLiteStore) List(ctx context.Context, table string) ([]domain.Row, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT `+columns+` FROM `+q+` ORDER BY week_number, session_number, id`)
}

// ListBetween returns rows dated within [from, to], ordered by date and time.
// PRE: from and to are YYYY-MM-DD
func (s *SQLiteStore) ListBetween(ctx context.Context, table, from, to string) ([]domain.Row, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT `+columns+` FROM `+q+`
		WHERE date >= ? AND date <= ? ORDER BY date, time, id`, from, to)
}

// ListOnDate returns rows dated exactly date, ordered by time.
func (s *SQLiteStore) ListOnDate(ctx context.Context, table, date string) ([]domain.Row, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT `+columns+` FROM `+q+` WHERE date = ? ORDER BY time, id`, date)
}

// GetByID returns one row or domain.ErrSessionNotFound.
func (s *SQLiteStore) GetByID(ctx context.Context, table string, id int64) (domain.Row, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return domain.Row{}, err
	}
	r, err := scanRow(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM `+q+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Row{}, fmt.Errorf("%w: id %d", domain.ErrSessionNotFound, id)
	}
	return r, storage.Classify(err)
}

// Insert adds one row.
// PRE: row.ID is unused in the table
func (s *SQLiteStore) Insert(ctx context.Context, table string, row domain.Row) error {
	q, err := s.existing(ctx, table)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO `+q+` (`+columns+`) VALUES `+rowPlaceholder, rowArgs(row)...)
	return storage.Classify(err)
}

// Update overwrites every column of the row with row.ID except created_at.
// POST: domain.ErrSessionNotFound if no row has that id
func (s *SQLiteStore) Update(ctx context.Context, table string, row domain.Row) error {
	q, err := s.existing(ctx, table)
	if err != nil {
		return err
	}
	args := rowArgs(row)
	res, err := s.db.ExecContext(ctx, `UPDATE `+q+` SET
		week_number = ?, session_number = ?, date = ?, time = ?, day = ?, session_type = ?,
		subject_type = ?, subject_name = ?, subject_topic = ?, initial_session_material = ?,
		session_material = ?, session_recording = ?, mentor_id = ?, swapped_mentor_id = ?,
		teams_meeting_link = ?, notification_sent = ?
		WHERE id = ?`, append(args[1:columnCount-1], row.ID)...)
	if err != nil {
		return storage.Classify(err)
	}
	return requireAffected(res, row.ID)
}

// UpdateFields sets the given columns on every listed id.
// PRE: every key is in EditableColumns; len(ids) > 0
// POST: returns the number of rows changed
func (s *SQLiteStore) UpdateFields(ctx context.Context, table string, ids []int64, fields map[string]any) (int, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 || len(fields) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !slices.Contains(EditableColumns, k) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(ids))
	for i, k := range keys {
		sets[i] = k + " = ?"
		args = append(args, fields[k])
	}
	marks := make([]string, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE `+q+` SET `+strings.Join(sets, ", ")+
		` WHERE id IN (`+strings.Join(marks, ", ")+`)`, args...)
	if err != nil {
		return 0, storage.Classify(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteWeek removes week and pulls every later week back by one week.
// PRE: week > 0
// POST: weeks above week are renumbered week-1 and dated 7 days earlier
// INVARIANT: day names are unchanged by the shift
func (s *SQLiteStore) DeleteWeek(ctx context.Context, table string, week int) (int, int, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return 0, 0, err
	}
	rows, err := s.List(ctx, table)
	if err != nil {
		return 0, 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, storage.Classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM `+q+` WHERE week_number = ?`, week)
	if err != nil {
		return 0, 0, storage.Classify(err)
	}
	deleted, _ := res.RowsAffected()

	shifted := domain.ShiftAfterDeletedWeek(rows, week)
	for _, r := range shifted {
		if _, err := tx.ExecContext(ctx, `UPDATE `+q+` SET week_number = ?, date = ? WHERE id = ?`,
			r.WeekNumber, nullString(r.Date), r.ID); err != nil {
			return 0, 0, storage.Classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, storage.Classify(err)
	}
	return int(deleted), len(shifted), nil
}

// ListCompletedByMentor returns rows with a recording whose mentor_id is mentorID.
func (s *SQLiteStore) ListCompletedByMentor(ctx context.Context, table string, mentorID int64) ([]domain.Row, error) {
	return s.listCompleted(ctx, table, "mentor_id", mentorID)
}

// ListCompletedBySubstitute returns rows with a recording whose swapped_mentor_id is mentorID.
func (s *SQLiteStore) ListCompletedBySubstitute(ctx context.Context, table string, mentorID int64) ([]domain.Row, error) {
	return s.listCompleted(ctx, table, "swapped_mentor_id", mentorID)
}

func (s *SQLiteStore) listCompleted(ctx context.Context, table, column string, mentorID int64) ([]domain.Row, error) {
	q, err := s.existing(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT `+columns+` FROM `+q+`
		WHERE `+column+` = ? AND session_recording IS NOT NULL AND session_recording <> ''
		ORDER BY id`, mentorID)
}

// SetMeetingLink stores a join URL on one row.
func (s *SQLiteStore) SetMeetingLink(ctx context.Context, table string, id int64, link string) error {
	q, err := s.existing(ctx, table)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE `+q+` SET teams_meeting_link = ? WHERE id = ?`, link, id)
	if err != nil {
		return storage.Classify(err)
	}
	return requireAffected(res, id)
}

// MarkNotified sets notification_sent on one row.
func (s *SQLiteStore) MarkNotified(ctx context.Context, table string, id int64) error {
	q, err := s.existing(ctx, table)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE `+q+` SET notification_sent = 1 WHERE id = ?`, id)
	if err != nil {
		return storage.Classify(err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrSessionNotFound, id)
	}
	return nil
}

// rowArgs returns insert arguments in column order.
// Empty strings and zero numbers become NULL.
func rowArgs(r domain.Row) []any {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		r.ID,
		nullInt(int64(r.WeekNumber)),
		nullInt(int64(r.SessionNumber)),
		nullString(r.Date),
		nullString(r.Time),
		nullString(r.Day),
		nullString(r.SessionType),
		nullString(r.SubjectType),
		nullString(r.SubjectName),
		nullString(r.SubjectTopic),
		nullString(r.InitialSessionMaterial),
		nullString(r.SessionMaterial),
		nullString(r.SessionRecording),
		nullInt(r.MentorID),
		nullInt(r.SwappedMentorID),
		nullString(r.TeamsMeetingLink),
		r.NotificationSent,
		nullString(created),
	}
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (domain.Row, error) {
	var (
		r                                    domain.Row
		week, session, mentorID, swappedID   sql.NullInt64
		date, clock, day, sessionType        sql.NullString
		subjectType, subjectName, subjectTop sql.NullString
		initialMaterial, material, recording sql.NullString
		link, createdAt                      sql.NullString
		notified                             sql.NullBool
	)
	err := sc.Scan(&r.ID, &week, &session, &date, &clock, &day, &sessionType, &subjectType,
		&subjectName, &subjectTop, &initialMaterial, &material, &recording,
		&mentorID, &swappedID, &link, &notified, &createdAt)
	if err != nil {
		return domain.Row{}, err
	}
	r.WeekNumber = int(week.Int64)
	r.SessionNumber = int(session.Int64)
	r.Date = date.String
	r.Time = clock.String
	r.Day = day.String
	r.SessionType = sessionType.String
	r.SubjectType = subjectType.String
	r.SubjectName = subjectName.String
	r.SubjectTopic = subjectTop.String
	r.InitialSessionMaterial = initialMaterial.String
	r.SessionMaterial = material.String
	r.SessionRecording = recording.String
	r.MentorID = mentorID.Int64
	r.SwappedMentorID = swappedID.Int64
	r.TeamsMeetingLink = link.String
	r.NotificationSent = notified.Bool
	if createdAt.Valid {
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
	}
	return r, nil
}
