package outbox_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/adapters/storage/outbox"
	domain "mentordesk/internal/domain/outbox"
)

func newStore(t *testing.T) *outbox.SQLiteStore {
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
	return outbox.NewSQLiteStore(db)
}

func mustEntry(t *testing.T, id string, created time.Time) domain.Entry {
	t.Helper()
	e, err := domain.NewEntry(id, domain.ActionTypeReminder, map[string]string{"to": id + "@example.com"}, created)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

// TestSQLiteStore_SaveAndGet verifies insert, update and retrieval.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	e := mustEntry(t, "e1", created)
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	e.MarkAttempt(created.Add(time.Minute))
	e.Payload = `{"to":"e1@example.com","resumed":"yes"}`
	e.MarkSuccess("msg-1")
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := s.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusDone || got.Attempts != 1 || got.ExternalID != "msg-1" {
		t.Errorf("entry = %+v", got)
	}
	if got.Payload != e.Payload {
		t.Errorf("payload = %s, want %s", got.Payload, e.Payload)
	}
	if !got.CreatedAt.Equal(created) || !got.LastAttemptedAt.Equal(created.Add(time.Minute)) {
		t.Errorf("times = %v, %v", got.CreatedAt, got.LastAttemptedAt)
	}
}

// TestSQLiteStore_Listing verifies pending, status listing, counts and pruning.
func TestSQLiteStore_Listing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pending := mustEntry(t, "p1", base.Add(2*time.Hour))
	retrying := mustEntry(t, "r1", base.Add(time.Hour))
	retrying.MarkAttempt(base.Add(time.Hour))
	done := mustEntry(t, "d1", base)
	done.MarkSuccess("x")
	for _, e := range []domain.Entry{pending, retrying, done} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "p1" {
		t.Errorf("ListPending = %+v", got)
	}

	all, _ := s.ListByStatus(ctx, "", 10)
	if len(all) != 3 || all[0].ID != "p1" {
		t.Errorf("ListByStatus(all) = %+v", all)
	}
	doneOnly, _ := s.ListByStatus(ctx, domain.StatusDone, 10)
	if len(doneOnly) != 1 || doneOnly[0].ID != "d1" {
		t.Errorf("ListByStatus(done) = %+v", doneOnly)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.StatusPending] != 1 || counts[domain.StatusRetrying] != 1 || counts[domain.StatusDone] != 1 {
		t.Errorf("counts = %v", counts)
	}

	n, err := s.PruneDone(ctx, base.Add(time.Minute))
	if err != nil || n != 1 {
		t.Errorf("PruneDone = %d, %v; want 1", n, err)
	}
}
