package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"mentordesk/internal/adapters/email"
	"mentordesk/internal/adapters/meeting"
	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/attendance"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/outbox"
	"mentordesk/internal/domain/schedule"
	"mentordesk/internal/domain/student"
)

var deskTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) // a Monday

func deskNow() time.Time { return deskTime }

func deskIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("entry-%03d", n)
	}
}

// memSchedules is an in-memory cohort table store keyed by table name.
type memSchedules struct {
	mu         sync.Mutex
	tables     map[string][]schedule.Row
	failTables map[string]error // per-table error for every read
	replaceErr []error          // consumed one per Replace call
	replaces   int
	linkErr    error
}

func newMemSchedules() *memSchedules {
	return &memSchedules{tables: map[string][]schedule.Row{}, failTables: map[string]error{}}
}

func (m *memSchedules) rows(table string) ([]schedule.Row, error) {
	if err, ok := m.failTables[table]; ok {
		return nil, err
	}
	rows, ok := m.tables[table]
	if !ok {
		return nil, storage.ErrTableNotFound
	}
	return rows, nil
}

func (m *memSchedules) EnsureTable(_ context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = nil
	}
	return nil
}

func (m *memSchedules) Replace(_ context.Context, table string, rows []schedule.Row) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	if len(m.replaceErr) > 0 {
		err := m.replaceErr[0]
		m.replaceErr = m.replaceErr[1:]
		if err != nil {
			return 0, err
		}
	}
	m.tables[table] = slices.Clone(rows)
	return len(rows), nil
}

func (m *memSchedules) List(_ context.Context, table string) ([]schedule.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, err := m.rows(table)
	return slices.Clone(rows), err
}

func (m *memSchedules) ListBetween(_ context.Context, table, from, to string) ([]schedule.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, err := m.rows(table)
	if err != nil {
		return nil, err
	}
	var out []schedule.Row
	for _, r := range rows {
		if r.Date != "" && r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSchedules) ListOnDate(_ context.Context, table, date string) ([]schedule.Row, error) {
	return m.ListBetween(context.Background(), table, date, date)
}

func (m *memSchedules) Insert(_ context.Context, table string, row schedule.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], row)
	return nil
}

func (m *memSchedules) Update(_ context.Context, table string, row schedule.Row) error {
	return m.edit(table, row.ID, func(r *schedule.Row) { *r = row })
}

func (m *memSchedules) UpdateFields(_ context.Context, table string, ids []int64, fields map[string]any) (int, error) {
	n := 0
	for _, id := range ids {
		err := m.edit(table, id, func(r *schedule.Row) {
			for col, v := range fields {
				switch col {
				case "mentor_id":
					r.MentorID = v.(int64)
				case "swapped_mentor_id":
					r.SwappedMentorID = v.(int64)
				case "time":
					r.Time = v.(string)
				case "session_type":
					r.SessionType = v.(string)
				case "session_recording":
					r.SessionRecording = v.(string)
				case "subject_name":
					r.SubjectName = v.(string)
				}
			}
		})
		if err == nil {
			n++
		}
	}
	return n, nil
}

func (m *memSchedules) DeleteWeek(_ context.Context, table string, week int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var earlier, rest []schedule.Row
	deleted := 0
	for _, r := range m.tables[table] {
		switch {
		case r.WeekNumber == week:
			deleted++
		case r.WeekNumber < week:
			earlier = append(earlier, r)
		default:
			rest = append(rest, r)
		}
	}
	shifted := schedule.ShiftAfterDeletedWeek(rest, week)
	m.tables[table] = append(earlier, shifted...)
	return deleted, len(shifted), nil
}

func (m *memSchedules) ListCompletedByMentor(_ context.Context, table string, id int64) ([]schedule.Row, error) {
	return m.completed(table, func(r schedule.Row) bool { return r.MentorID == id })
}

func (m *memSchedules) ListCompletedBySubstitute(_ context.Context, table string, id int64) ([]schedule.Row, error) {
	return m.completed(table, func(r schedule.Row) bool { return r.SwappedMentorID == id })
}

func (m *memSchedules) completed(table string, match func(schedule.Row) bool) ([]schedule.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, err := m.rows(table)
	if err != nil {
		return nil, err
	}
	var out []schedule.Row
	for _, r := range rows {
		if r.IsCompleted() && match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSchedules) SetMeetingLink(_ context.Context, table string, id int64, link string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	return m.edit(table, id, func(r *schedule.Row) { r.TeamsMeetingLink = link })
}

func (m *memSchedules) MarkNotified(_ context.Context, table string, id int64) error {
	return m.edit(table, id, func(r *schedule.Row) { r.NotificationSent = true })
}

func (m *memSchedules) edit(table string, id int64, fn func(*schedule.Row)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tables[table] {
		if m.tables[table][i].ID == id {
			fn(&m.tables[table][i])
			return nil
		}
	}
	return schedule.ErrSessionNotFound
}

func (m *memSchedules) row(table string, id int64) schedule.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.tables[table] {
		if r.ID == id {
			return r
		}
	}
	return schedule.Row{}
}

// memCatalog lists a fixed set of tables.
type memCatalog struct {
	tables []string
	err    error
}

func (c memCatalog) ScheduleTables(context.Context) ([]string, error) {
	return c.tables, c.err
}

// memTemplates serves templates by cohort type.
type memTemplates map[string][]schedule.TemplateRow

func (m memTemplates) ListByCohortType(_ context.Context, cohortType string) ([]schedule.TemplateRow, error) {
	rows, ok := m[cohortType]
	if !ok {
		return nil, storage.ErrTableNotFound
	}
	return rows, nil
}

// memMentors is a roster keyed by id.
type memMentors struct {
	byID    map[int64]mentor.Mentor
	listErr error
}

func newMemMentors(ms ...mentor.Mentor) *memMentors {
	m := &memMentors{byID: map[int64]mentor.Mentor{}}
	for _, x := range ms {
		m.byID[x.ID] = x
	}
	return m
}

func (m *memMentors) List(context.Context) ([]mentor.Mentor, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []mentor.Mentor
	for _, x := range m.byID {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memMentors) GetByID(_ context.Context, id int64) (mentor.Mentor, error) {
	x, ok := m.byID[id]
	if !ok {
		return mentor.Mentor{}, mentor.ErrNotFound
	}
	return x, nil
}

// memStudents is an onboarding roster.
type memStudents []student.Student

func (m memStudents) ListByCohort(_ context.Context, c cohort.Cohort) ([]student.Student, error) {
	var out []student.Student
	for _, s := range m {
		if s.CohortType == c.Type && s.CohortNumber == c.Number {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m memStudents) ListCohorts(context.Context) ([]cohort.Cohort, error) {
	var out []cohort.Cohort
	for _, s := range m {
		c := s.Cohort()
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// memAttendance records upserts.
type memAttendance struct {
	records map[int64]attendance.Record
	failFor int64
}

func (m *memAttendance) Upsert(_ context.Context, r attendance.Record) error {
	if r.MentorID == m.failFor {
		return errors.New("disk full")
	}
	if m.records == nil {
		m.records = map[int64]attendance.Record{}
	}
	m.records[r.MentorID] = r
	return nil
}

// memOutbox implements the outbox store.
type memOutbox struct {
	entries map[string]outbox.Entry
	order   []string
}

func newMemOutbox() *memOutbox {
	return &memOutbox{entries: map[string]outbox.Entry{}}
}

func (m *memOutbox) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *memOutbox) Save(_ context.Context, e outbox.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *memOutbox) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memOutbox) ListByStatus(_ context.Context, status string, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		if e := m.entries[id]; status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOutbox) CountByStatus(context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (m *memOutbox) PruneDone(_ context.Context, cutoff time.Time) (int, error) {
	n := 0
	for id, e := range m.entries {
		if (e.Status == outbox.StatusDone || e.Status == outbox.StatusAbandoned) && e.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *memOutbox) byType(actionType string) []outbox.Entry {
	var out []outbox.Entry
	for _, id := range m.order {
		if e, ok := m.entries[id]; ok && e.ActionType == actionType {
			out = append(out, e)
		}
	}
	return out
}

// stubCreator records meeting requests.
type stubCreator struct {
	requests []meeting.Request
	err      error
}

func (s *stubCreator) CreateMeeting(_ context.Context, req meeting.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("https://join.example/%d", len(s.requests)), nil
}

// stubSender records sends and fails for listed addresses.
type stubSender struct {
	sent   []email.SendRequest
	failTo map[string]bool
}

func (s *stubSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	for _, to := range req.To {
		if s.failTo[to] {
			return email.SendResult{}, errors.New("provider rejected " + to)
		}
	}
	s.sent = append(s.sent, req)
	return email.SendResult{MessageID: fmt.Sprintf("msg-%d", len(s.sent)), SentAt: deskTime}, nil
}

func (s *stubSender) SendBatch(ctx context.Context, reqs []email.SendRequest) ([]email.SendResult, error) {
	var out []email.SendResult
	for _, r := range reqs {
		res, err := s.Send(ctx, r)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *stubSender) sentTo(addr string) int {
	n := 0
	for _, r := range s.sent {
		if slices.Contains(r.To, addr) {
			n++
		}
	}
	return n
}
