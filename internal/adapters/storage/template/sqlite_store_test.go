package template_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/adapters/storage/template"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/schedule"
)

func newStore(t *testing.T) *template.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return template.NewSQLiteStore(db)
}

// TestSQLiteStore_ReplaceAndList verifies templates round trip ordered by id.
func TestSQLiteStore_ReplaceAndList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rows := []schedule.TemplateRow{
		{ID: 3, WeekNumber: 2, SessionNumber: 1, SessionType: "live session", SubjectName: "Lists"},
		{ID: 1, WeekNumber: 1, SessionNumber: 1, SessionType: "live session", SubjectName: "Arrays"},
		{ID: 2, SessionType: "self paced", SubjectName: "Reading"},
	}
	n, err := s.Replace(ctx, "basic", rows)
	if err != nil || n != 3 {
		t.Fatalf("Replace = %d, %v", n, err)
	}

	got, err := s.ListByCohortType(ctx, "Basic")
	if err != nil {
		t.Fatalf("ListByCohortType: %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 3 {
		t.Fatalf("order = %+v", got)
	}
	if got[1].WeekNumber != 0 || got[1].SessionNumber != 0 {
		t.Errorf("absent week/session = %d/%d, want 0/0", got[1].WeekNumber, got[1].SessionNumber)
	}

	types, err := s.ListCohortTypes(ctx)
	if err != nil || len(types) != 1 || types[0] != "basic" {
		t.Errorf("ListCohortTypes = %v, %v", types, err)
	}
}

// TestSQLiteStore_Missing verifies missing and invalid cohort types.
func TestSQLiteStore_Missing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.ListByCohortType(ctx, "mern"); !errors.Is(err, storage.ErrTableNotFound) {
		t.Errorf("missing err = %v, want ErrTableNotFound", err)
	}
	if _, err := s.ListByCohortType(ctx, "mern;--"); !errors.Is(err, cohort.ErrInvalidType) {
		t.Errorf("invalid err = %v, want ErrInvalidType", err)
	}
}
