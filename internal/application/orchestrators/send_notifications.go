package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mentordesk/internal/adapters/email"
	"mentordesk/internal/adapters/storage/catalog"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/outbox"
	"mentordesk/internal/domain/reminder"
	"mentordesk/internal/domain/schedule"
	"mentordesk/internal/domain/student"
)

// FallbackMentorName signs mentor-less reminders.
const FallbackMentorName = "Mentor Team"

// Reminder tags, used for provider analytics and outbox payloads.
const (
	ReminderTagStudent = "student"
	ReminderTagMentor  = "mentor"
)

// NotificationScheduleStore reads today's rows and flags them as notified.
type NotificationScheduleStore interface {
	ListOnDate(ctx context.Context, table, date string) ([]schedule.Row, error)
	MarkNotified(ctx context.Context, table string, id int64) error
}

// ReminderPayload is the outbox payload for a reminder that could not be sent.
type ReminderPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Tag     string   `json:"tag"`
}

// SendNotificationsDeps holds dependencies for SendNotifications.
type SendNotificationsDeps struct {
	Students        StudentDirectory
	Catalog         catalog.Catalog // used when the roster names no cohorts
	Schedules       NotificationScheduleStore
	Mentors         MentorDirectory
	Sender          email.Sender
	Outbox          OutboxWriter
	Location        *time.Location
	DefaultMentorID int64
	Now             func() time.Time
	GenerateID      func() string
}

// NotifiedSession reports the reminders sent for one row.
type NotifiedSession struct {
	Cohort            string `json:"cohort"`
	Table             string `json:"table"`
	SessionID         int64  `json:"sessionId"`
	Subject           string `json:"subject"`
	Topic             string `json:"topic"`
	Time              string `json:"time"`
	StudentEmailsSent int    `json:"studentEmailsSent"`
	MentorNotified    bool   `json:"mentorNotified"`
	Queued            int    `json:"queued"`
}

// SendNotificationsResult is the outcome of one run.
type SendNotificationsResult struct {
	Date              string
	StudentEmailsSent int
	MentorEmailsSent  int
	Queued            int
	Sessions          []NotifiedSession
}

// ExecuteSendNotifications emails students and mentors about every class
// scheduled today that has a time and has not been notified yet.
// PRE: deps.Sender is set
// POST: each processed row is marked notified whether or not every send
// succeeded; failed sends are queued to the outbox, so a row is reminded at
// most once per day
func ExecuteSendNotifications(ctx context.Context, deps SendNotificationsDeps) (SendNotificationsResult, error) {
	cohorts, err := notificationCohorts(ctx, deps)
	if err != nil {
		return SendNotificationsResult{}, err
	}
	result := SendNotificationsResult{Date: schedule.FormatDate(todayIn(deps.Now(), deps.Location))}
	slog.Info("notifications_run_start", "date", result.Date, "cohorts", len(cohorts))

	for _, c := range cohorts {
		table := c.TableName()
		rows, err := deps.Schedules.ListOnDate(ctx, table, result.Date)
		if err != nil {
			slog.Info("notifications_table_skipped", "table", table, "error", err)
			continue
		}

		var students []student.Student
		var loaded bool
		for _, r := range rows {
			if r.Time == "" || r.NotificationSent {
				continue
			}
			if !loaded {
				if students, err = deps.Students.ListByCohort(ctx, c); err != nil {
					slog.Error("notifications_students_failed", "table", table, "error", err)
					break
				}
				loaded = true
			}
			ns := notifySession(ctx, deps, c, table, r, students)
			result.StudentEmailsSent += ns.StudentEmailsSent
			result.Queued += ns.Queued
			if ns.MentorNotified {
				result.MentorEmailsSent++
			}
			result.Sessions = append(result.Sessions, ns)
		}
	}

	slog.Info("notifications_run_complete",
		"date", result.Date,
		"sessions", len(result.Sessions),
		"student_emails", result.StudentEmailsSent,
		"mentor_emails", result.MentorEmailsSent,
		"queued", result.Queued,
	)
	return result, nil
}

// notificationCohorts lists cohorts from the roster, or from the table
// catalog when the roster is empty.
func notificationCohorts(ctx context.Context, deps SendNotificationsDeps) ([]cohort.Cohort, error) {
	cohorts, err := deps.Students.ListCohorts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roster cohorts: %w", err)
	}
	if len(cohorts) > 0 || deps.Catalog == nil {
		return cohorts, nil
	}
	tables, err := deps.Catalog.ScheduleTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover cohort tables: %w", err)
	}
	for _, t := range tables {
		if c, err := cohort.ParseTableName(t); err == nil {
			cohorts = append(cohorts, c)
		}
	}
	slog.Info("notifications_roster_empty_using_catalog", "cohorts", len(cohorts))
	return cohorts, nil
}

func notifySession(ctx context.Context, deps SendNotificationsDeps, c cohort.Cohort, table string, r schedule.Row, students []student.Student) NotifiedSession {
	ns := NotifiedSession{
		Cohort:    c.DisplayName(),
		Table:     table,
		SessionID: r.ID,
		Subject:   r.SubjectName,
		Topic:     r.SubjectTopic,
		Time:      r.Time,
	}
	m, hasMentor := sessionMentor(ctx, deps, r.MentorID)
	mentorName := FallbackMentorName
	if hasMentor {
		mentorName = m.DisplayName()
	}
	session := reminder.FromRow(c.DisplayName(), r, mentorName, len(students))

	for _, st := range students {
		if !st.Reachable() {
			continue
		}
		msg := reminder.StudentMessage(st.Name, session)
		if sendReminder(ctx, deps, st.Email, msg, ReminderTagStudent) {
			ns.StudentEmailsSent++
		} else {
			ns.Queued++
		}
	}
	if hasMentor && m.Email != "" {
		if sendReminder(ctx, deps, m.Email, reminder.MentorMessage(session), ReminderTagMentor) {
			ns.MentorNotified = true
		} else {
			ns.Queued++
		}
	}

	if err := deps.Schedules.MarkNotified(ctx, table, r.ID); err != nil {
		slog.Error("notification_mark_failed", "table", table, "row_id", r.ID, "error", err)
	}
	slog.Info("session_notified", "table", table, "row_id", r.ID, "students", ns.StudentEmailsSent, "mentor", ns.MentorNotified, "queued", ns.Queued)
	return ns
}

// sessionMentor resolves the row's mentor, falling back to the default mentor.
func sessionMentor(ctx context.Context, deps SendNotificationsDeps, id int64) (mentor.Mentor, bool) {
	for _, candidate := range []int64{id, deps.DefaultMentorID} {
		if candidate <= 0 {
			continue
		}
		m, err := deps.Mentors.GetByID(ctx, candidate)
		if err == nil {
			return m, true
		}
		if !errors.Is(err, mentor.ErrNotFound) {
			slog.Warn("mentor_lookup_failed", "mentor_id", candidate, "error", err)
		}
	}
	return mentor.Mentor{}, false
}

// sendReminder renders and sends one reminder; on failure it queues the
// rendered email and reports false.
func sendReminder(ctx context.Context, deps SendNotificationsDeps, to string, msg reminder.Message, tag string) bool {
	html, err := email.RenderHTML(msg.Subject, msg.Markdown)
	if err != nil {
		slog.Error("reminder_render_failed", "to", to, "error", err)
		return false
	}
	req := email.SendRequest{To: []string{to}, Subject: msg.Subject, HTML: html, Tag: tag}
	_, err = deps.Sender.Send(ctx, req)
	if err == nil {
		return true
	}
	slog.Warn("reminder_send_failed", "to", to, "tag", tag, "error", err)

	if deps.Outbox == nil {
		return false
	}
	entry, err := outbox.NewEntry(deps.GenerateID(), outbox.ActionTypeReminder, ReminderPayload{
		To: req.To, Subject: req.Subject, HTML: req.HTML, Tag: tag,
	}, deps.Now())
	if err == nil {
		err = deps.Outbox.Save(ctx, entry)
	}
	if err != nil {
		slog.Error("reminder_queue_failed", "to", to, "error", err)
	}
	return false
}
