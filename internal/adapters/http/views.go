package web

import (
	"time"

	"mentordesk/internal/application/projections"
	"mentordesk/internal/domain/attendance"
	"mentordesk/internal/domain/outbox"
	"mentordesk/internal/domain/schedule"
)

// sessionJSON is a cohort table row as the API returns it. Column names
// match the table so exports and imports line up.
type sessionJSON struct {
	ID                     int64  `json:"id"`
	WeekNumber             int    `json:"week_number"`
	SessionNumber          int    `json:"session_number"`
	Date                   string `json:"date,omitempty"`
	Time                   string `json:"time,omitempty"`
	Day                    string `json:"day,omitempty"`
	SessionType            string `json:"session_type,omitempty"`
	SubjectType            string `json:"subject_type,omitempty"`
	SubjectName            string `json:"subject_name,omitempty"`
	SubjectTopic           string `json:"subject_topic,omitempty"`
	InitialSessionMaterial string `json:"initial_session_material,omitempty"`
	SessionMaterial        string `json:"session_material,omitempty"`
	SessionRecording       string `json:"session_recording,omitempty"`
	MentorID               int64  `json:"mentor_id,omitempty"`
	SwappedMentorID        int64  `json:"swapped_mentor_id,omitempty"`
	TeamsMeetingLink       string `json:"teams_meeting_link,omitempty"`
	NotificationSent       bool   `json:"notification_sent"`
	CreatedAt              string `json:"created_at,omitempty"`
}

func sessionView(r schedule.Row) sessionJSON {
	v := sessionJSON{
		ID:                     r.ID,
		WeekNumber:             r.WeekNumber,
		SessionNumber:          r.SessionNumber,
		Date:                   r.Date,
		Time:                   r.Time,
		Day:                    r.Day,
		SessionType:            r.SessionType,
		SubjectType:            r.SubjectType,
		SubjectName:            r.SubjectName,
		SubjectTopic:           r.SubjectTopic,
		InitialSessionMaterial: r.InitialSessionMaterial,
		SessionMaterial:        r.SessionMaterial,
		SessionRecording:       r.SessionRecording,
		MentorID:               r.MentorID,
		SwappedMentorID:        r.SwappedMentorID,
		TeamsMeetingLink:       r.TeamsMeetingLink,
		NotificationSent:       r.NotificationSent,
	}
	if !r.CreatedAt.IsZero() {
		v.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func sessionViews(rows []schedule.Row) []sessionJSON {
	out := make([]sessionJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, sessionView(r))
	}
	return out
}

type weekJSON struct {
	Week     int           `json:"week"`
	Sessions []sessionJSON `json:"sessions"`
}

type cohortSessionsJSON struct {
	Table   string     `json:"table"`
	Cohort  string     `json:"cohort"`
	Total   int        `json:"total"`
	Undated int        `json:"undated"`
	Weeks   []weekJSON `json:"weeks"`
}

func cohortSessionsView(res projections.GetCohortSessionsResult) cohortSessionsJSON {
	v := cohortSessionsJSON{
		Table:   res.Table,
		Cohort:  res.Cohort,
		Total:   res.Total,
		Undated: res.Undated,
		Weeks:   make([]weekJSON, 0, len(res.Weeks)),
	}
	for _, w := range res.Weeks {
		v.Weeks = append(v.Weeks, weekJSON{Week: w.Week, Sessions: sessionViews(w.Sessions)})
	}
	return v
}

type spanJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

func spanViews(spans []schedule.DateSpan) []spanJSON {
	out := make([]spanJSON, 0, len(spans))
	for _, s := range spans {
		out = append(out, spanJSON{Start: s.Start, End: s.End, Label: s.Label})
	}
	return out
}

// attendanceJSON mirrors the mentor_attendance table.
type attendanceJSON struct {
	MentorID          int64   `json:"mentor_id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	TotalClasses      int     `json:"total_classes"`
	Present           int     `json:"present"`
	Absent            int     `json:"absent"`
	SpecialAttendance int     `json:"special_attendance"`
	AttendancePercent float64 `json:"attendance_percent"`
	LowAttendance     bool    `json:"low_attendance"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
}

func attendanceViews(records []attendance.Record) []attendanceJSON {
	out := make([]attendanceJSON, 0, len(records))
	for _, r := range records {
		v := attendanceJSON{
			MentorID:          r.MentorID,
			Name:              r.Name,
			Email:             r.Email,
			TotalClasses:      r.TotalClasses,
			Present:           r.Present,
			Absent:            r.Absent,
			SpecialAttendance: r.SpecialAttendance,
			AttendancePercent: r.AttendancePercent,
			LowAttendance:     r.IsLow(),
		}
		if !r.UpdatedAt.IsZero() {
			v.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, v)
	}
	return out
}

type outboxEntryJSON struct {
	ID              string `json:"id"`
	ActionType      string `json:"action_type"`
	Status          string `json:"status"`
	Attempts        int    `json:"attempts"`
	MaxAttempts     int    `json:"max_attempts"`
	CreatedAt       string `json:"created_at"`
	LastAttemptedAt string `json:"last_attempted_at,omitempty"`
	ExternalID      string `json:"external_id,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	Payload         string `json:"payload"`
}

func outboxEntryView(e outbox.Entry) outboxEntryJSON {
	v := outboxEntryJSON{
		ID:           e.ID,
		ActionType:   e.ActionType,
		Status:       e.Status,
		Attempts:     e.Attempts,
		MaxAttempts:  e.MaxAttempts,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		ExternalID:   e.ExternalID,
		ErrorMessage: e.ErrorMessage,
		Payload:      e.Payload,
	}
	if !e.LastAttemptedAt.IsZero() {
		v.LastAttemptedAt = e.LastAttemptedAt.UTC().Format(time.RFC3339)
	}
	return v
}
