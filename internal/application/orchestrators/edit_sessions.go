package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	scheduleStore "mentordesk/internal/adapters/storage/schedule"
	"mentordesk/internal/domain/schedule"
)

// Editing errors.
var (
	ErrSessionExists      = errors.New("week already has a session with that number")
	ErrNoSessionsSelected = errors.New("select at least one session")
	ErrNoFieldValues      = errors.New("provide at least one value to update")
)

// SessionEditor is the cohort table store used by the editing use cases.
type SessionEditor interface {
	List(ctx context.Context, table string) ([]schedule.Row, error)
	Insert(ctx context.Context, table string, row schedule.Row) error
	Update(ctx context.Context, table string, row schedule.Row) error
	UpdateFields(ctx context.Context, table string, ids []int64, fields map[string]any) (int, error)
	DeleteWeek(ctx context.Context, table string, week int) (deleted, shifted int, err error)
}

// --- Add Session ---

// AddSessionInput carries the fields of a session added by hand.
// Zero values mean "not provided".
type AddSessionInput struct {
	Table                  string
	WeekNumber             int
	SessionNumber          int
	Date                   string
	Time                   string
	Day                    string
	SessionType            string
	SubjectType            string
	SubjectName            string
	SubjectTopic           string
	InitialSessionMaterial string
	SessionMaterial        string
	SessionRecording       string
	MentorID               int64
	TeamsMeetingLink       string
}

// AddSessionDeps holds dependencies for AddSession.
type AddSessionDeps struct {
	Sessions SessionEditor
	Now      func() time.Time
}

// ExecuteAddSession appends one session to a cohort table.
// PRE: input.WeekNumber > 0
// POST: the new row has id max(id)+1 and, unless given, session number
// max(session in week)+1; Day is derived from Date when omitted
func ExecuteAddSession(ctx context.Context, input AddSessionInput, deps AddSessionDeps) (schedule.Row, error) {
	if input.WeekNumber <= 0 {
		return schedule.Row{}, schedule.ErrInvalidWeek
	}
	rows, err := deps.Sessions.List(ctx, input.Table)
	if err != nil {
		return schedule.Row{}, err
	}

	row := schedule.Row{
		ID:                     schedule.NextID(rows),
		WeekNumber:             input.WeekNumber,
		SessionNumber:          input.SessionNumber,
		Date:                   strings.TrimSpace(input.Date),
		Day:                    strings.TrimSpace(input.Day),
		SessionType:            input.SessionType,
		SubjectType:            input.SubjectType,
		SubjectName:            input.SubjectName,
		SubjectTopic:           input.SubjectTopic,
		InitialSessionMaterial: input.InitialSessionMaterial,
		SessionMaterial:        input.SessionMaterial,
		SessionRecording:       input.SessionRecording,
		MentorID:               input.MentorID,
		TeamsMeetingLink:       input.TeamsMeetingLink,
		CreatedAt:              deps.Now(),
	}
	if row.SessionNumber <= 0 {
		row.SessionNumber = schedule.NextSessionNumber(rows, row.WeekNumber)
	} else {
		for _, r := range rows {
			if r.WeekNumber == row.WeekNumber && r.SessionNumber == row.SessionNumber {
				return schedule.Row{}, fmt.Errorf("%w: week %d session %d", ErrSessionExists, row.WeekNumber, row.SessionNumber)
			}
		}
	}
	if row.Date != "" && row.Day == "" {
		d, err := schedule.ParseDate(row.Date)
		if err != nil {
			return schedule.Row{}, err
		}
		row.Day = schedule.DayName(d)
	}
	if strings.TrimSpace(input.Time) != "" {
		if row.Time, err = schedule.NormalizeTime(input.Time); err != nil {
			return schedule.Row{}, err
		}
	}
	if err := row.Validate(); err != nil {
		return schedule.Row{}, err
	}

	if err := deps.Sessions.Insert(ctx, input.Table, row); err != nil {
		return schedule.Row{}, err
	}
	slog.Info("session_added", "table", input.Table, "id", row.ID, "week", row.WeekNumber, "session", row.SessionNumber)
	return row, nil
}

// --- Move Session ---

// MoveSessionInput carries a postpone or prepone request. An empty NewDate or
// NewTime keeps the current value.
type MoveSessionInput struct {
	Table   string
	ID      int64
	Mode    string
	NewDate string
	NewTime string
}

// MoveSessionDeps holds dependencies for MoveSession.
type MoveSessionDeps struct {
	Sessions SessionEditor
	Now      func() time.Time
	Location *time.Location // defines "today"
}

// ExecuteMoveSession moves one session to a new date and/or time.
// PRE: input.Mode is postpone or prepone
// POST: a date change lands on a date offered by schedule.MoveOptions and
// updates Day; a same-date change moves the time in the mode's direction;
// the row becomes eligible for a fresh reminder
func ExecuteMoveSession(ctx context.Context, input MoveSessionInput, deps MoveSessionDeps) (schedule.Row, error) {
	mode, err := schedule.ParseMoveMode(input.Mode)
	if err != nil {
		return schedule.Row{}, err
	}
	rows, err := deps.Sessions.List(ctx, input.Table)
	if err != nil {
		return schedule.Row{}, err
	}
	idx := slices.IndexFunc(rows, func(r schedule.Row) bool { return r.ID == input.ID })
	if idx < 0 {
		return schedule.Row{}, schedule.ErrSessionNotFound
	}
	row := rows[idx]

	newDate := strings.TrimSpace(input.NewDate)
	if newDate == "" {
		newDate = row.Date
	}
	newTime := row.Time
	if strings.TrimSpace(input.NewTime) != "" {
		if newTime, err = schedule.NormalizeTime(input.NewTime); err != nil {
			return schedule.Row{}, err
		}
	}
	if newDate == row.Date && newTime == row.Time {
		return schedule.Row{}, schedule.ErrNothingToMove
	}

	if newDate == row.Date {
		if row.Time != "" {
			if err := schedule.CheckTimeMove(row.Time, newTime, mode); err != nil {
				return schedule.Row{}, err
			}
		}
	} else {
		today := todayIn(deps.Now(), deps.Location)
		options, err := schedule.MoveOptions(rows, row.ID, mode, today)
		if err != nil {
			return schedule.Row{}, err
		}
		if !slices.Contains(options, newDate) {
			return schedule.Row{}, fmt.Errorf("%w: %s", schedule.ErrDateNotAvailable, newDate)
		}
		d, _ := schedule.ParseDate(newDate)
		row.Date = newDate
		row.Day = schedule.DayName(d)
	}
	row.Time = newTime
	row.NotificationSent = false

	if err := deps.Sessions.Update(ctx, input.Table, row); err != nil {
		return schedule.Row{}, err
	}
	slog.Info("session_moved", "table", input.Table, "id", row.ID, "mode", string(mode), "date", row.Date, "time", row.Time)
	return row, nil
}

// --- Bulk Update ---

// BulkUpdateInput carries the same field values for many sessions.
// Blank values are ignored.
type BulkUpdateInput struct {
	Table  string
	IDs    []int64
	Fields map[string]string
}

// BulkUpdateDeps holds dependencies for BulkUpdate.
type BulkUpdateDeps struct {
	Sessions SessionEditor
}

// ExecuteBulkUpdate applies field values to every listed session.
// PRE: at least one id and one non-blank editable field
// POST: returns the number of rows changed
func ExecuteBulkUpdate(ctx context.Context, input BulkUpdateInput, deps BulkUpdateDeps) (int, error) {
	if len(input.IDs) == 0 {
		return 0, ErrNoSessionsSelected
	}
	fields := make(map[string]any, len(input.Fields))
	for col, raw := range input.Fields {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if !slices.Contains(scheduleStore.EditableColumns, col) {
			return 0, fmt.Errorf("%w: %s", scheduleStore.ErrUnknownColumn, col)
		}
		switch col {
		case "mentor_id", "swapped_mentor_id":
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				return 0, fmt.Errorf("%s: %w", col, schedule.ErrInvalidMentor)
			}
			fields[col] = id
		case "time":
			t, err := schedule.NormalizeTime(v)
			if err != nil {
				return 0, err
			}
			fields[col] = t
		case "session_type":
			if !schedule.IsKnownSessionType(v) {
				return 0, fmt.Errorf("%w: %q", schedule.ErrUnknownSessionType, v)
			}
			fields[col] = v
		default:
			fields[col] = v
		}
	}
	if len(fields) == 0 {
		return 0, ErrNoFieldValues
	}

	n, err := deps.Sessions.UpdateFields(ctx, input.Table, input.IDs, fields)
	if err != nil {
		return 0, err
	}
	slog.Info("sessions_bulk_updated", "table", input.Table, "rows", n, "fields", len(fields))
	return n, nil
}

// --- Delete Week ---

// DeleteWeekResult reports the rows removed and the rows moved up a week.
type DeleteWeekResult struct {
	Deleted int
	Shifted int
}

// DeleteWeekDeps holds dependencies for DeleteWeek.
type DeleteWeekDeps struct {
	Sessions SessionEditor
}

// ExecuteDeleteWeek removes a week and closes the gap it leaves.
// PRE: week > 0
// POST: later weeks are renumbered down by one and dated seven days earlier
func ExecuteDeleteWeek(ctx context.Context, table string, week int, deps DeleteWeekDeps) (DeleteWeekResult, error) {
	if week <= 0 {
		return DeleteWeekResult{}, schedule.ErrInvalidWeek
	}
	deleted, shifted, err := deps.Sessions.DeleteWeek(ctx, table, week)
	if err != nil {
		return DeleteWeekResult{}, err
	}
	slog.Info("week_deleted", "table", table, "week", week, "deleted", deleted, "shifted", shifted)
	return DeleteWeekResult{Deleted: deleted, Shifted: shifted}, nil
}

// todayIn returns the calendar date of now in loc (UTC when loc is nil).
func todayIn(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return schedule.DateIn(now, loc)
}
