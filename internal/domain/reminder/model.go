package reminder

import (
	"fmt"
	"strings"
	"time"

	"mentordesk/internal/domain/schedule"
)

// Fallback text used when a session field is blank.
const (
	FallbackSubject     = "Session"
	FallbackSessionType = "Live Session"
	FallbackStudentName = "Student"
	FallbackTime        = "Check Dashboard"
)

// Session describes the class a reminder is about.
type Session struct {
	CohortName   string // "Basic 1.1"
	Date         string // YYYY-MM-DD
	Time         string // HH:MM:SS
	Day          string
	SubjectName  string
	SubjectTopic string
	SessionType  string
	MeetingLink  string
	MentorName   string
	StudentCount int
}

// Message is a reminder ready for rendering: a subject line and a markdown body.
type Message struct {
	Subject  string
	Markdown string
}

// FromRow builds a Session from a cohort schedule row.
func FromRow(cohortName string, row schedule.Row, mentorName string, students int) Session {
	return Session{
		CohortName:   cohortName,
		Date:         row.Date,
		Time:         row.Time,
		Day:          row.Day,
		SubjectName:  row.SubjectName,
		SubjectTopic: row.SubjectTopic,
		SessionType:  row.SessionType,
		MeetingLink:  row.TeamsMeetingLink,
		MentorName:   mentorName,
		StudentCount: students,
	}
}

// StudentMessage renders the reminder sent to each student of the cohort.
// PRE: s.Date is YYYY-MM-DD or empty
// POST: Returns a subject and markdown body; blank fields use fallbacks
func StudentMessage(studentName string, s Session) Message {
	if strings.TrimSpace(studentName) == "" {
		studentName = FallbackStudentName
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", studentName)
	fmt.Fprintf(&b, "You have a **%s** class today.\n\n", orDefault(s.SessionType, FallbackSessionType))
	writeDetails(&b, s)
	fmt.Fprintf(&b, "- **Mentor:** %s\n", s.MentorName)
	writeLink(&b, s.MeetingLink)
	b.WriteString("\nSee you there!\n")

	return Message{
		Subject:  fmt.Sprintf("Upcoming Session: %s - %s", orDefault(s.SubjectName, FallbackSubject), s.SubjectTopic),
		Markdown: b.String(),
	}
}

// MentorMessage renders the reminder sent to the session's mentor.
// PRE: s.Date is YYYY-MM-DD or empty
// POST: Returns a subject and markdown body; blank fields use fallbacks
func MentorMessage(s Session) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", s.MentorName)
	fmt.Fprintf(&b, "You are teaching **%s** today.\n\n", s.CohortName)
	writeDetails(&b, s)
	fmt.Fprintf(&b, "- **Type:** %s\n", orDefault(s.SessionType, FallbackSessionType))
	fmt.Fprintf(&b, "- **Students:** %d\n", s.StudentCount)
	writeLink(&b, s.MeetingLink)

	return Message{
		Subject:  fmt.Sprintf("Mentor Reminder: %s - %s", s.CohortName, orDefault(s.SubjectName, FallbackSubject)),
		Markdown: b.String(),
	}
}

func writeDetails(b *strings.Builder, s Session) {
	fmt.Fprintf(b, "- **Subject:** %s\n", orDefault(s.SubjectName, FallbackSubject))
	if s.SubjectTopic != "" {
		fmt.Fprintf(b, "- **Topic:** %s\n", s.SubjectTopic)
	}
	fmt.Fprintf(b, "- **Date:** %s\n", FormatDate(s.Date, s.Day))
	fmt.Fprintf(b, "- **Time:** %s\n", FormatTime(s.Time))
}

func writeLink(b *strings.Builder, link string) {
	link = strings.TrimSpace(link)
	if link == "" || link == "null" {
		return
	}
	fmt.Fprintf(b, "\n[Join the meeting](%s)\n", link)
}

// FormatDate renders "Monday, 1 January 2024"; the raw value is returned if unparsable.
func FormatDate(date, day string) string {
	d, err := schedule.ParseDate(date)
	if err != nil {
		return strings.TrimSpace(day + " " + date)
	}
	return d.Format("Monday, 2 January 2006")
}

// FormatTime renders "09:00 PM", or FallbackTime when no time is set.
func FormatTime(clock string) string {
	norm, err := schedule.NormalizeTime(clock)
	if err != nil {
		return FallbackTime
	}
	t, _ := time.Parse("15:04:05", norm)
	return t.Format("03:04 PM")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
