package schedule_test

import (
	"errors"
	"testing"

	"mentordesk/internal/domain/schedule"
)

// TestRow_Validate tests validation of Row.
func TestRow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		row     schedule.Row
		wantErr error
	}{
		{
			name:    "valid row",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 1, Date: "2024-01-01", Day: "Monday", Time: "21:00:00"},
			wantErr: nil,
		},
		{
			name:    "undated row",
			row:     schedule.Row{WeekNumber: 2, SessionNumber: 3},
			wantErr: nil,
		},
		{
			name:    "day case ignored",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 1, Date: "2024-01-01", Day: "monday"},
			wantErr: nil,
		},
		{
			name:    "zero week",
			row:     schedule.Row{WeekNumber: 0, SessionNumber: 1},
			wantErr: schedule.ErrInvalidWeek,
		},
		{
			name:    "zero session",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 0},
			wantErr: schedule.ErrInvalidSession,
		},
		{
			name:    "bad date",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 1, Date: "01/01/2024"},
			wantErr: schedule.ErrInvalidDate,
		},
		{
			name:    "day mismatch",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 1, Date: "2024-01-01", Day: "Tuesday"},
			wantErr: schedule.ErrDayMismatch,
		},
		{
			name:    "bad time",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 1, Time: "25:00"},
			wantErr: schedule.ErrInvalidTime,
		},
		{
			name:    "negative mentor",
			row:     schedule.Row{WeekNumber: 1, SessionNumber: 1, MentorID: -1},
			wantErr: schedule.ErrInvalidMentor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRow_HasMeetingLink tests the meeting link presence rules.
func TestRow_HasMeetingLink(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"null", false},
		{"https://teams.microsoft.com/l/meetup-join/abc", true},
	}
	for _, tt := range tests {
		r := schedule.Row{TeamsMeetingLink: tt.link}
		if got := r.HasMeetingLink(); got != tt.want {
			t.Errorf("HasMeetingLink(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}

// TestSessionTypePredicates tests the case-insensitive session type checks.
func TestSessionTypePredicates(t *testing.T) {
	if !schedule.IsContest("Contest") {
		t.Error("IsContest(\"Contest\") = false, want true")
	}
	if schedule.IsContest("live session") {
		t.Error("IsContest(\"live session\") = true, want false")
	}
	if !schedule.IsLiveSession("LIVE SESSION") {
		t.Error("IsLiveSession(\"LIVE SESSION\") = false, want true")
	}
	if schedule.IsLiveSession("self paced") {
		t.Error("IsLiveSession(\"self paced\") = true, want false")
	}
	if !schedule.IsKnownSessionType("Assignment") {
		t.Error("IsKnownSessionType(\"Assignment\") = false, want true")
	}
	if schedule.IsKnownSessionType("seminar") {
		t.Error("IsKnownSessionType(\"seminar\") = true, want false")
	}
}

// TestNormalizeTime tests time normalisation.
func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"21:00", "21:00:00", false},
		{"09:30:15", "09:30:15", false},
		{" 19:00 ", "19:00:00", false},
		{"9pm", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := schedule.NormalizeTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
