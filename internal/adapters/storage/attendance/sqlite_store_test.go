package attendance_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/adapters/storage/attendance"
	domain "mentordesk/internal/domain/attendance"
)

func newStore(t *testing.T) *attendance.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	return attendance.NewSQLiteStore(db)
}

// TestSQLiteStore_Upsert verifies records are overwritten by mentor ID.
func TestSQLiteStore_Upsert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	first := domain.Record{MentorID: 7, Name: "Asha", Email: "asha@example.com", TotalClasses: 4, Present: 3, Absent: 1, AttendancePercent: 75, UpdatedAt: now}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second := first
	second.TotalClasses, second.Present, second.Absent, second.AttendancePercent = 5, 5, 0, 100
	second.SpecialAttendance = 2
	second.UpdatedAt = now.Add(time.Hour)
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := s.GetByMentorID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByMentorID: %v", err)
	}
	if got.TotalClasses != 5 || got.Present != 5 || got.SpecialAttendance != 2 || got.AttendancePercent != 100 {
		t.Errorf("record = %+v", got)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}

	all, _ := s.List(ctx)
	if len(all) != 1 {
		t.Errorf("List len = %d, want 1", len(all))
	}
}

// TestSQLiteStore_List verifies ordering by percent then name.
func TestSQLiteStore_List(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, r := range []domain.Record{
		{MentorID: 1, Name: "Ravi", AttendancePercent: 50, UpdatedAt: now},
		{MentorID: 2, Name: "Asha", AttendancePercent: 90, UpdatedAt: now},
		{MentorID: 3, Name: "Bala", AttendancePercent: 50, UpdatedAt: now},
	} {
		if err := s.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []int64{2, 3, 1}
	for i, id := range want {
		if got[i].MentorID != id {
			t.Errorf("List[%d] = %d, want %d", i, got[i].MentorID, id)
		}
	}
}

// TestSQLiteStore_GetMissing verifies a missing mentor returns sql.ErrNoRows.
func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newStore(t)
	if _, err := s.GetByMentorID(context.Background(), 99); err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
