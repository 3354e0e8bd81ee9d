package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mentordesk/internal/adapters/lock"
	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/schedule"
)

func basicTemplate() memTemplates {
	return memTemplates{"basic": {
		{ID: 1, WeekNumber: 1, SessionNumber: 1, SessionType: "live session", SubjectName: "Arrays"},
		{ID: 2, WeekNumber: 1, SessionNumber: 2, SessionType: "live session", SubjectName: "Strings"},
		{ID: 3, WeekNumber: 2, SessionNumber: 1, SessionType: "self paced", SubjectName: "Reading"},
		{ID: 4, SessionType: "project", SubjectName: "Capstone"},
	}}
}

func generateInput() GenerateScheduleInput {
	return GenerateScheduleInput{
		CohortType:   "basic",
		CohortNumber: "1.1",
		StartDate:    "2024-01-01",
		Day1:         "Monday",
		Day2:         "thursday",
		MentorID:     7,
	}
}

func noSleep(calls *int) func(context.Context, time.Duration) error {
	return func(context.Context, time.Duration) error {
		*calls++
		return nil
	}
}

// TestExecuteGenerateSchedule_Valid tests a full generation into a new table.
func TestExecuteGenerateSchedule_Valid(t *testing.T) {
	store := newMemSchedules()
	res, err := ExecuteGenerateSchedule(context.Background(), generateInput(), GenerateScheduleDeps{
		Templates: basicTemplate(),
		Schedules: store,
		Locker:    lock.NewMemoryLocker(),
		Now:       deskNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Table != "basic1_1_schedule" || res.Inserted != 4 || res.Undated != 1 || res.Attempts != 1 {
		t.Errorf("result = %+v", res)
	}

	rows := store.tables["basic1_1_schedule"]
	want := []struct {
		date, day string
		mentor    int64
	}{
		{"2024-01-01", "Monday", 7},
		{"2024-01-04", "Thursday", 7},
		{"2024-01-08", "Monday", 0},
		{"", "", 0},
	}
	for i, w := range want {
		if rows[i].Date != w.date || rows[i].Day != w.day || rows[i].MentorID != w.mentor {
			t.Errorf("row %d = %s %s mentor %d, want %s %s mentor %d", i, rows[i].Date, rows[i].Day, rows[i].MentorID, w.date, w.day, w.mentor)
		}
		if rows[i].Time != schedule.DefaultTime {
			t.Errorf("row %d time = %q", i, rows[i].Time)
		}
	}
}

// TestExecuteGenerateSchedule_Validation tests request-level rejections.
func TestExecuteGenerateSchedule_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerateScheduleInput)
		want   error
	}{
		{"missing mentor", func(in *GenerateScheduleInput) { in.MentorID = 0 }, schedule.ErrInvalidMentor},
		{"bad date", func(in *GenerateScheduleInput) { in.StartDate = "01/01/2024" }, schedule.ErrInvalidDate},
		{"bad number", func(in *GenerateScheduleInput) { in.CohortNumber = "1;DROP" }, nil},
		{"missing day", func(in *GenerateScheduleInput) { in.Day2 = " " }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := generateInput()
			tt.mutate(&in)
			store := newMemSchedules()
			_, err := ExecuteGenerateSchedule(context.Background(), in, GenerateScheduleDeps{
				Templates: basicTemplate(), Schedules: store, Now: deskNow,
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(store.tables) != 0 {
				t.Error("no table should be created for a rejected request")
			}
		})
	}
}

// TestExecuteGenerateSchedule_NoTemplate tests a cohort type without a template.
func TestExecuteGenerateSchedule_NoTemplate(t *testing.T) {
	in := generateInput()
	in.CohortType = "mern"
	_, err := ExecuteGenerateSchedule(context.Background(), in, GenerateScheduleDeps{
		Templates: basicTemplate(), Schedules: newMemSchedules(), Now: deskNow,
	})
	if !errors.Is(err, schedule.ErrNoTemplateData) {
		t.Errorf("err = %v, want ErrNoTemplateData", err)
	}

	_, err = ExecuteGenerateSchedule(context.Background(), generateInput(), GenerateScheduleDeps{
		Templates: memTemplates{"basic": nil}, Schedules: newMemSchedules(), Now: deskNow,
	})
	if !errors.Is(err, schedule.ErrNoTemplateData) {
		t.Errorf("empty template err = %v, want ErrNoTemplateData", err)
	}
}

// TestExecuteGenerateSchedule_RetriesSchemaErrors tests the bulk write retry.
func TestExecuteGenerateSchedule_RetriesSchemaErrors(t *testing.T) {
	store := newMemSchedules()
	store.replaceErr = []error{fmt.Errorf("%w: table changed", storage.ErrSchemaNotReady), nil}
	sleeps := 0
	res, err := ExecuteGenerateSchedule(context.Background(), generateInput(), GenerateScheduleDeps{
		Templates: basicTemplate(), Schedules: store, Now: deskNow, Sleep: noSleep(&sleeps),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Attempts != 2 || sleeps != 1 || res.Inserted != 4 {
		t.Errorf("attempts = %d, sleeps = %d, inserted = %d", res.Attempts, sleeps, res.Inserted)
	}
}

// TestExecuteGenerateSchedule_GivesUp tests exhaustion and non-retryable errors.
func TestExecuteGenerateSchedule_GivesUp(t *testing.T) {
	busy := fmt.Errorf("%w: locked", storage.ErrBusy)
	store := newMemSchedules()
	store.replaceErr = []error{busy, busy, busy}
	sleeps := 0
	res, err := ExecuteGenerateSchedule(context.Background(), generateInput(), GenerateScheduleDeps{
		Templates: basicTemplate(), Schedules: store, Now: deskNow, Sleep: noSleep(&sleeps),
	})
	if !errors.Is(err, storage.ErrBusy) || res.Attempts != 3 || sleeps != 2 {
		t.Errorf("err = %v, attempts = %d, sleeps = %d", err, res.Attempts, sleeps)
	}

	store = newMemSchedules()
	store.replaceErr = []error{errors.New("constraint failed")}
	res, err = ExecuteGenerateSchedule(context.Background(), generateInput(), GenerateScheduleDeps{
		Templates: basicTemplate(), Schedules: store, Now: deskNow, Sleep: noSleep(&sleeps),
	})
	if err == nil || res.Attempts != 1 {
		t.Errorf("non-retryable: err = %v, attempts = %d", err, res.Attempts)
	}
}

// TestExecuteGenerateSchedule_Locked tests that a running regeneration blocks another.
func TestExecuteGenerateSchedule_Locked(t *testing.T) {
	locker := lock.NewMemoryLocker()
	unlock, err := locker.TryLock(context.Background(), "basic1_1_schedule", time.Minute)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer unlock()

	store := newMemSchedules()
	_, err = ExecuteGenerateSchedule(context.Background(), generateInput(), GenerateScheduleDeps{
		Templates: basicTemplate(), Schedules: store, Locker: locker, Now: deskNow,
	})
	if !errors.Is(err, lock.ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
	if store.replaces != 0 {
		t.Error("locked regeneration must not write")
	}
}

// TestExecuteGenerateSchedule_UnknownDay tests that unknown day names leave rows undated.
func TestExecuteGenerateSchedule_UnknownDay(t *testing.T) {
	in := generateInput()
	in.Day2 = "Funday"
	res, err := ExecuteGenerateSchedule(context.Background(), in, GenerateScheduleDeps{
		Templates: basicTemplate(), Schedules: newMemSchedules(), Now: deskNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 4 || res.Undated != 4 {
		t.Errorf("result = %+v, want all 4 rows undated", res)
	}
}
