package schedule_test

import (
	"testing"

	"mentordesk/internal/domain/schedule"
)

// TestNextID tests id allocation for appended rows.
func TestNextID(t *testing.T) {
	if got := schedule.NextID(nil); got != 1 {
		t.Errorf("NextID(empty) = %d, want 1", got)
	}
	rows := []schedule.Row{{ID: 4}, {ID: 11}, {ID: 2}}
	if got := schedule.NextID(rows); got != 12 {
		t.Errorf("NextID = %d, want 12", got)
	}
}

// TestNextSessionNumber tests per-week session numbering.
func TestNextSessionNumber(t *testing.T) {
	rows := []schedule.Row{
		{WeekNumber: 1, SessionNumber: 1},
		{WeekNumber: 1, SessionNumber: 3},
		{WeekNumber: 2, SessionNumber: 1},
	}
	if got := schedule.NextSessionNumber(rows, 1); got != 4 {
		t.Errorf("week 1 next = %d, want 4", got)
	}
	if got := schedule.NextSessionNumber(rows, 5); got != 1 {
		t.Errorf("empty week next = %d, want 1", got)
	}
}

// TestShiftAfterDeletedWeek tests renumbering and date shifting of later weeks.
func TestShiftAfterDeletedWeek(t *testing.T) {
	rows := []schedule.Row{
		{ID: 1, WeekNumber: 1, SessionNumber: 1, Date: "2024-01-01", Day: "Monday"},
		{ID: 5, WeekNumber: 3, SessionNumber: 1, Date: "2024-01-15", Day: "Monday"},
		{ID: 6, WeekNumber: 3, SessionNumber: 2, Date: "", Day: ""},
	}
	got := schedule.ShiftAfterDeletedWeek(rows, 2)
	if len(got) != 2 {
		t.Fatalf("got %d shifted rows, want 2", len(got))
	}
	if got[0].ID != 5 || got[0].WeekNumber != 2 || got[0].Date != "2024-01-08" || got[0].Day != "Monday" {
		t.Errorf("shifted row = %+v, want week 2 on 2024-01-08 Monday", got[0])
	}
	if got[1].WeekNumber != 2 || got[1].Date != "" {
		t.Errorf("undated row = %+v, want week 2 and no date", got[1])
	}
	if rows[1].WeekNumber != 3 {
		t.Error("input rows must not be mutated")
	}
}
