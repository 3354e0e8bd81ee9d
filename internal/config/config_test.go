package config

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// TestFromEnv_Defaults verifies an empty environment yields a usable development config.
func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Addr != ":8080" || c.DBPath != "mentordesk.db" || c.IsProduction() {
		t.Errorf("defaults = %+v", c)
	}
	if c.TimeZone.String() != "Asia/Kolkata" {
		t.Errorf("TimeZone = %v", c.TimeZone)
	}
	if c.MeetingHorizonDays != 7 || c.MeetingDuration != 90*time.Minute || c.MeetingDefaultTime != "19:00:00" {
		t.Errorf("meeting defaults = %d %v %s", c.MeetingHorizonDays, c.MeetingDuration, c.MeetingDefaultTime)
	}
	if c.LogLevel != slog.LevelInfo || !c.CronEnabled || c.GraphConfigured() {
		t.Errorf("level=%v cron=%v graph=%v", c.LogLevel, c.CronEnabled, c.GraphConfigured())
	}
	if c.ScheduleTables != nil {
		t.Errorf("ScheduleTables = %v, want nil", c.ScheduleTables)
	}
	if c.RatePerSecond != 10 || c.RateBurst != 20 || c.TrustedOrigins != nil {
		t.Errorf("rate=%v burst=%d origins=%v", c.RatePerSecond, c.RateBurst, c.TrustedOrigins)
	}
}

// TestFromEnv_Overrides verifies parsing of every value kind.
func TestFromEnv_Overrides(t *testing.T) {
	c, err := FromEnv(envMap(map[string]string{
		"MENTORDESK_LOG_LEVEL":            "debug",
		"MENTORDESK_TIMEZONE":             "UTC",
		"MENTORDESK_DEFAULT_MENTOR_ID":    "12",
		"MENTORDESK_MEETING_DURATION":     "1h",
		"MENTORDESK_EMAIL_PER_SECOND":     "0.5",
		"MENTORDESK_CRON_ENABLED":         "false",
		"MENTORDESK_SCHEDULE_TABLES":      " basic1_1_schedule, ,mern2_schedule ",
		"MENTORDESK_TELEGRAM_TOKEN":       "123:abc",
		"MENTORDESK_TELEGRAM_CHAT_ID":     "-100200",
		"MENTORDESK_MEETING_HORIZON_DAYS": "3",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.LogLevel != slog.LevelDebug || c.TimeZone != time.UTC || c.DefaultMentorID != 12 {
		t.Errorf("level=%v tz=%v mentor=%d", c.LogLevel, c.TimeZone, c.DefaultMentorID)
	}
	if c.MeetingDuration != time.Hour || c.EmailPerSecond != 0.5 || c.CronEnabled || c.MeetingHorizonDays != 3 {
		t.Errorf("parsed = %+v", c)
	}
	if !slices.Equal(c.ScheduleTables, []string{"basic1_1_schedule", "mern2_schedule"}) {
		t.Errorf("ScheduleTables = %v", c.ScheduleTables)
	}
	if c.TelegramChatID != -100200 {
		t.Errorf("TelegramChatID = %d", c.TelegramChatID)
	}
}

// TestFromEnv_Errors verifies parse and validation failures name the problem.
func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad int", map[string]string{"MENTORDESK_DEFAULT_MENTOR_ID": "abc"}, "MENTORDESK_DEFAULT_MENTOR_ID"},
		{"bad duration", map[string]string{"MENTORDESK_OUTBOX_INTERVAL": "soon"}, "MENTORDESK_OUTBOX_INTERVAL"},
		{"bad zone", map[string]string{"MENTORDESK_TIMEZONE": "Mars/Base"}, "MENTORDESK_TIMEZONE"},
		{"bad level", map[string]string{"MENTORDESK_LOG_LEVEL": "loud"}, "MENTORDESK_LOG_LEVEL"},
		{"bad default time", map[string]string{"MENTORDESK_MEETING_DEFAULT_TIME": "7pm"}, "HH:MM:SS"},
		{"partial graph", map[string]string{"MS_TENANT_ID": "t"}, "MS_CLIENT_ID"},
		{"telegram without chat", map[string]string{"MENTORDESK_TELEGRAM_TOKEN": "x"}, "CHAT_ID"},
		{"production without secrets", map[string]string{"MENTORDESK_ENV": "production"}, "SECRET_HASH"},
		{"production without csrf key", map[string]string{"MENTORDESK_ENV": "production"}, "MENTORDESK_CSRF_KEY"},
		{"zero request burst", map[string]string{"MENTORDESK_RATE_BURST": "0"}, "request rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
