package schedule_test

import (
	"reflect"
	"testing"

	"mentordesk/internal/domain/schedule"
)

func spanRows() []schedule.Row {
	return []schedule.Row{
		{ID: 1, WeekNumber: 1, SessionNumber: 1, Date: "2024-01-01"},
		{ID: 2, WeekNumber: 1, SessionNumber: 2, Date: "2024-01-03"},
		{ID: 3, WeekNumber: 2, SessionNumber: 1, Date: "2024-01-08"},
		{ID: 4, WeekNumber: 2, SessionNumber: 2, Date: "2024-01-10"},
		{ID: 5, WeekNumber: 3, SessionNumber: 1, Date: "2024-01-15"},
	}
}

// TestOpenDateSpans_MiddleWeek tests gaps bounded by neighbouring weeks.
func TestOpenDateSpans_MiddleWeek(t *testing.T) {
	got := schedule.OpenDateSpans(spanRows(), 2, mustDate(t, "2023-12-01"))
	want := []schedule.DateSpan{
		{Start: "2024-01-04", End: "2024-01-07", Label: "4th Jan → 7th Jan"},
		{Start: "2024-01-09", End: "2024-01-09", Label: "9th Jan"},
		{Start: "2024-01-11", End: "2024-01-14", Label: "11th Jan → 14th Jan"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %+v, want %+v", got, want)
	}
}

// TestOpenDateSpans_FirstWeek tests the window for a week with no predecessor.
func TestOpenDateSpans_FirstWeek(t *testing.T) {
	got := schedule.OpenDateSpans(spanRows(), 1, mustDate(t, "2023-12-01"))
	want := []schedule.DateSpan{
		{Start: "2023-12-25", End: "2023-12-31", Label: "25th Dec → 31st Dec"},
		{Start: "2024-01-02", End: "2024-01-02", Label: "2nd Jan"},
		{Start: "2024-01-04", End: "2024-01-07", Label: "4th Jan → 7th Jan"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %+v, want %+v", got, want)
	}
}

// TestOpenDateSpans_PastWeek verifies weeks entirely in the past yield nothing.
func TestOpenDateSpans_PastWeek(t *testing.T) {
	if got := schedule.OpenDateSpans(spanRows(), 1, mustDate(t, "2024-02-01")); len(got) != 0 {
		t.Errorf("spans = %+v, want none", got)
	}
}

// TestOpenDateSpans_UnknownWeek verifies a week with no sessions and no neighbours yields nothing.
func TestOpenDateSpans_UnknownWeek(t *testing.T) {
	if got := schedule.OpenDateSpans(spanRows(), 9, mustDate(t, "2023-12-01")); len(got) != 0 {
		t.Errorf("spans = %+v, want none", got)
	}
}

// TestOpenDateSpans_ClippedToToday verifies the window starts no earlier than today.
func TestOpenDateSpans_ClippedToToday(t *testing.T) {
	got := schedule.OpenDateSpans(spanRows(), 2, mustDate(t, "2024-01-09"))
	want := []schedule.DateSpan{
		{Start: "2024-01-09", End: "2024-01-09", Label: "9th Jan"},
		{Start: "2024-01-11", End: "2024-01-14", Label: "11th Jan → 14th Jan"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %+v, want %+v", got, want)
	}
}
