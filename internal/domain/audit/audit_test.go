package audit

import (
	"errors"
	"testing"
	"time"
)

func TestNewEvent_Builders(t *testing.T) {
	now := time.Date(2024, 3, 4, 14, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	e := NewEvent("ev-1", now, CategorySchedule, ActionMove, "admin").
		WithResource("basic1_1_schedule#4").
		WithDescription("postpone to 2024-03-06").
		WithRequest("10.0.0.1", "curl/8.0")

	if e.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", e.Timestamp.Location())
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, now)
	}
	if e.Resource != "basic1_1_schedule#4" || e.Description != "postpone to 2024-03-06" {
		t.Errorf("resource/description = %q/%q", e.Resource, e.Description)
	}
	if e.IPAddress != "10.0.0.1" || e.UserAgent != "curl/8.0" {
		t.Errorf("request = %q/%q", e.IPAddress, e.UserAgent)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestEvent_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		e    Event
		want error
	}{
		{"valid", NewEvent("id", now, CategoryRoster, ActionImport, ""), nil},
		{"no id", NewEvent("", now, CategoryRoster, ActionImport, "admin"), ErrEmptyID},
		{"no category", NewEvent("id", now, "", ActionImport, "admin"), ErrEmptyCategory},
		{"no action", NewEvent("id", now, CategoryOutbox, "", "admin"), ErrEmptyAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
