package web

import (
	"net/http"
	"time"

	"mentordesk/internal/application/orchestrators"
)

// handleGenerateMeetings creates meetings for the coming sessions on demand.
// GET|POST /api/scheduler/generate-meetings (cron secret)
func handleGenerateMeetings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := orchestrators.ExecuteGenerateMeetings(r.Context(), generateMeetingsDeps())
	services.Collector.RecordJob(JobGenerateMeetings, start, err)
	if err != nil {
		handleError(w, r, err)
		return
	}
	results := res.Results
	if results == nil {
		results = []orchestrators.MeetingTableResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"dateRange": map[string]string{"from": res.From, "to": res.To},
		"results":   results,
	})
}

// handleSendNotifications emails today's class reminders on demand.
// GET|POST /api/scheduler/send-notifications (cron secret)
func handleSendNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := orchestrators.ExecuteSendNotifications(r.Context(), sendNotificationsDeps())
	services.Collector.RecordJob(JobSendNotifications, start, err)
	if err != nil {
		handleError(w, r, err)
		return
	}
	details := res.Sessions
	if details == nil {
		details = []orchestrators.NotifiedSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"timestamp":              timeNow().UTC().Format(time.RFC3339),
		"notificationDate":       res.Date,
		"totalStudentEmailsSent": res.StudentEmailsSent,
		"totalMentorEmailsSent":  res.MentorEmailsSent,
		"sessionsNotified":       len(res.Sessions),
		"queued":                 res.Queued,
		"details":                details,
	})
}
