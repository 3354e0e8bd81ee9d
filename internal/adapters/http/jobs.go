package web

import (
	"context"
	"fmt"

	"mentordesk/internal/application/orchestrators"
)

// Job names, shared by the cron schedule, the HTTP triggers and the perf view.
const (
	JobGenerateMeetings    = "generate-meetings"
	JobSendNotifications   = "send-notifications"
	JobCalculateAttendance = "calculate-attendance"
)

func generateMeetingsDeps() orchestrators.GenerateMeetingsDeps {
	return orchestrators.GenerateMeetingsDeps{
		Catalog:     stores.Catalog,
		Schedules:   stores.ScheduleStore,
		Students:    stores.StudentStore,
		Mentors:     stores.MentorStore,
		Creator:     services.Creator,
		Outbox:      stores.OutboxStore,
		Location:    settings.TimeZone,
		HorizonDays: settings.MeetingHorizonDays,
		Duration:    settings.MeetingDuration,
		DefaultTime: settings.MeetingDefaultTime,
		Now:         timeNow,
		GenerateID:  generateID,
	}
}

func sendNotificationsDeps() orchestrators.SendNotificationsDeps {
	return orchestrators.SendNotificationsDeps{
		Students:        stores.StudentStore,
		Catalog:         stores.Catalog,
		Schedules:       stores.ScheduleStore,
		Mentors:         stores.MentorStore,
		Sender:          services.Sender,
		Outbox:          stores.OutboxStore,
		Location:        settings.TimeZone,
		DefaultMentorID: settings.DefaultMentorID,
		Now:             timeNow,
		GenerateID:      generateID,
	}
}

func calculateAttendanceDeps() orchestrators.CalculateAttendanceDeps {
	return orchestrators.CalculateAttendanceDeps{
		Mentors:    stores.MentorStore,
		Catalog:    stores.Catalog,
		Schedules:  stores.ScheduleStore,
		Attendance: stores.AttendanceStore,
		Now:        timeNow,
	}
}

// ScheduledJobs returns the daily jobs with their cron specs.
// PRE: NewMux has run
func ScheduledJobs() []orchestrators.Job {
	return []orchestrators.Job{
		{
			Name: JobGenerateMeetings,
			Spec: settings.CronMeetingsSpec,
			Run: func(ctx context.Context) (string, error) {
				res, err := orchestrators.ExecuteGenerateMeetings(ctx, generateMeetingsDeps())
				if err != nil {
					return "", err
				}
				return meetingsSummary(res), nil
			},
		},
		{
			Name: JobSendNotifications,
			Spec: settings.CronNotificationsSpec,
			Run: func(ctx context.Context) (string, error) {
				res, err := orchestrators.ExecuteSendNotifications(ctx, sendNotificationsDeps())
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s: %d sessions, %d student and %d mentor emails, %d queued",
					res.Date, len(res.Sessions), res.StudentEmailsSent, res.MentorEmailsSent, res.Queued), nil
			},
		},
		{
			Name: JobCalculateAttendance,
			Spec: settings.CronAttendanceSpec,
			Run: func(ctx context.Context) (string, error) {
				res, err := orchestrators.ExecuteCalculateAttendance(ctx, calculateAttendanceDeps())
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d mentors over %d tables, %d scans skipped",
					len(res.Records), res.Tables, res.SkippedScans), nil
			},
		},
	}
}

func meetingsSummary(res orchestrators.GenerateMeetingsResult) string {
	var created, queued, failed int
	for _, t := range res.Results {
		created += t.MeetingsCreated
		queued += t.Queued
		if t.Status == orchestrators.MeetingStatusError {
			failed++
		}
	}
	return fmt.Sprintf("%s to %s: %d meetings created, %d queued, %d tables failed",
		res.From, res.To, created, queued, failed)
}
