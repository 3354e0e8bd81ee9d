package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mentordesk/internal/adapters/meeting"
	"mentordesk/internal/adapters/storage/catalog"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/outbox"
	"mentordesk/internal/domain/schedule"
	"mentordesk/internal/domain/student"
)

// Per-table outcomes of a meeting run.
const (
	MeetingStatusSuccess    = "success"
	MeetingStatusNoSessions = "no_sessions"
	MeetingStatusError      = "error"
)

// MeetingScheduleStore reads upcoming rows and stores links.
type MeetingScheduleStore interface {
	ListBetween(ctx context.Context, table, from, to string) ([]schedule.Row, error)
	SetMeetingLink(ctx context.Context, table string, id int64, link string) error
}

// StudentDirectory reads the onboarding roster.
type StudentDirectory interface {
	ListByCohort(ctx context.Context, c cohort.Cohort) ([]student.Student, error)
	ListCohorts(ctx context.Context) ([]cohort.Cohort, error)
}

// MentorDirectory looks up one mentor.
type MentorDirectory interface {
	GetByID(ctx context.Context, id int64) (mentor.Mentor, error)
}

// OutboxWriter queues failed external calls for retry.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// MeetingPayload is the outbox payload for a meeting that could not be
// created, or whose join URL could not be stored. A set JoinURL means the
// meeting exists and only the row write is replayed.
type MeetingPayload struct {
	Table     string    `json:"table"`
	SessionID int64     `json:"session_id"`
	Subject   string    `json:"subject"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TimeZone  string    `json:"time_zone"`
	Attendees []string  `json:"attendees"`
	JoinURL   string    `json:"join_url,omitempty"`
}

// GenerateMeetingsDeps holds dependencies for GenerateMeetings.
type GenerateMeetingsDeps struct {
	Catalog     catalog.Catalog
	Schedules   MeetingScheduleStore
	Students    StudentDirectory
	Mentors     MentorDirectory
	Creator     meeting.Creator
	Outbox      OutboxWriter
	Location    *time.Location
	HorizonDays int
	Duration    time.Duration
	DefaultTime string // HH:MM:SS used for rows without a time
	Now         func() time.Time
	GenerateID  func() string
}

// MeetingTableResult is the outcome for one cohort table.
type MeetingTableResult struct {
	Table            string `json:"table"`
	Status           string `json:"status"`
	SessionsFound    int    `json:"sessionsFound"`
	MeetingsCreated  int    `json:"meetingsCreated"`
	Queued           int    `json:"queued"`
	StudentsInCohort int    `json:"studentsInCohort"`
	Error            string `json:"error,omitempty"`
}

// GenerateMeetingsResult is the outcome of one run.
type GenerateMeetingsResult struct {
	From    string
	To      string
	Results []MeetingTableResult
}

// ExecuteGenerateMeetings creates meetings for upcoming sessions that have
// no usable link, and stores each join URL on its row.
// PRE: deps.Location and deps.Creator are set
// POST: every dated, typed row in [today, today+HorizonDays] has a link or a
// queued outbox entry; one table failing does not stop the others
func ExecuteGenerateMeetings(ctx context.Context, deps GenerateMeetingsDeps) (GenerateMeetingsResult, error) {
	tables, err := deps.Catalog.ScheduleTables(ctx)
	if err != nil {
		return GenerateMeetingsResult{}, fmt.Errorf("discover cohort tables: %w", err)
	}

	today := todayIn(deps.Now(), deps.Location)
	result := GenerateMeetingsResult{
		From: schedule.FormatDate(today),
		To:   schedule.FormatDate(today.AddDate(0, 0, deps.HorizonDays)),
	}
	slog.Info("meetings_run_start", "from", result.From, "to", result.To, "tables", len(tables))

	for _, table := range tables {
		res := generateTableMeetings(ctx, deps, table, result.From, result.To)
		result.Results = append(result.Results, res)
	}
	return result, nil
}

func generateTableMeetings(ctx context.Context, deps GenerateMeetingsDeps, table, from, to string) MeetingTableResult {
	res := MeetingTableResult{Table: table}
	c, err := cohort.ParseTableName(table)
	if err != nil {
		res.Status, res.Error = MeetingStatusError, err.Error()
		return res
	}

	rows, err := deps.Schedules.ListBetween(ctx, table, from, to)
	if err != nil {
		slog.Warn("meetings_table_failed", "table", table, "error", err)
		res.Status, res.Error = MeetingStatusError, err.Error()
		return res
	}

	var pending []schedule.Row
	for _, r := range rows {
		if r.SessionType == "" || r.Date == "" {
			continue
		}
		res.SessionsFound++
		if !r.HasMeetingLink() {
			pending = append(pending, r)
		}
	}
	if res.SessionsFound == 0 {
		res.Status = MeetingStatusNoSessions
		return res
	}
	res.Status = MeetingStatusSuccess
	if len(pending) == 0 {
		return res
	}

	students, err := deps.Students.ListByCohort(ctx, c)
	if err != nil {
		slog.Warn("meetings_students_unavailable", "table", table, "error", err)
	}
	studentEmails := student.Emails(students)
	res.StudentsInCohort = len(studentEmails)

	for _, r := range pending {
		req, err := meetingRequest(deps, c, r)
		if err != nil {
			slog.Warn("meeting_request_invalid", "table", table, "row_id", r.ID, "error", err)
			continue
		}
		req.Attendees = append(mentorEmail(ctx, deps.Mentors, r.MentorID), studentEmails...)

		link, err := deps.Creator.CreateMeeting(ctx, req)
		if err != nil {
			slog.Error("meeting_create_failed", "table", table, "row_id", r.ID, "error", err)
			if queueMeeting(ctx, deps, table, r.ID, req, "") {
				res.Queued++
			}
			continue
		}
		res.MeetingsCreated++
		if err := deps.Schedules.SetMeetingLink(ctx, table, r.ID, link); err != nil {
			// The meeting exists; only the link write is queued.
			slog.Error("meeting_link_store_failed", "table", table, "row_id", r.ID, "error", err)
			if queueMeeting(ctx, deps, table, r.ID, req, link) {
				res.Queued++
			}
			continue
		}
		slog.Info("meeting_created", "table", table, "row_id", r.ID, "date", r.Date)
	}
	return res
}

// meetingRequest builds the meeting for a row: "Cohort Basic 1.1 - Arrays",
// starting at the row's date and time in deps.Location.
func meetingRequest(deps GenerateMeetingsDeps, c cohort.Cohort, r schedule.Row) (meeting.Request, error) {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := r.Time
	if clock == "" {
		clock = deps.DefaultTime
	}
	clock, err := schedule.NormalizeTime(clock)
	if err != nil {
		return meeting.Request{}, err
	}
	start, err := time.ParseInLocation("2006-01-02 15:04:05", r.Date+" "+clock, loc)
	if err != nil {
		return meeting.Request{}, err
	}
	subject := r.SubjectName
	if subject == "" {
		subject = "Session"
	}
	return meeting.Request{
		Subject:  fmt.Sprintf("Cohort %s - %s", c.DisplayName(), subject),
		Start:    start,
		End:      start.Add(deps.Duration),
		Location: loc,
	}, nil
}

// mentorEmail returns the mentor's address as a one-element list, or nil.
func mentorEmail(ctx context.Context, mentors MentorDirectory, id int64) []string {
	if id <= 0 || mentors == nil {
		return nil
	}
	m, err := mentors.GetByID(ctx, id)
	if err != nil {
		slog.Debug("mentor_lookup_failed", "mentor_id", id, "error", err)
		return nil
	}
	if m.Email == "" {
		return nil
	}
	return []string{m.Email}
}

// queueMeeting saves a meeting outbox entry and reports whether it was queued.
// joinURL is empty when the meeting itself still has to be created.
func queueMeeting(ctx context.Context, deps GenerateMeetingsDeps, table string, id int64, req meeting.Request, joinURL string) bool {
	err := fmt.Errorf("no outbox configured")
	if deps.Outbox != nil {
		var entry outbox.Entry
		entry, err = outbox.NewEntry(deps.GenerateID(), outbox.ActionTypeMeeting, MeetingPayload{
			Table:     table,
			SessionID: id,
			Subject:   req.Subject,
			Start:     req.Start,
			End:       req.End,
			TimeZone:  req.Location.String(),
			Attendees: req.Attendees,
			JoinURL:   joinURL,
		}, deps.Now())
		if err == nil {
			err = deps.Outbox.Save(ctx, entry)
		}
	}
	if err != nil {
		slog.Error("meeting_queue_failed", "table", table, "row_id", id, "error", err)
		return false
	}
	return true
}
