package audit_test

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"mentordesk/internal/adapters/storage"
	store "mentordesk/internal/adapters/storage/audit"
	domain "mentordesk/internal/domain/audit"
)

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndFilter covers each filter and newest-first ordering.
func TestSQLiteStore_SaveAndFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	events := []domain.Event{
		domain.NewEvent("e1", base, domain.CategorySchedule, domain.ActionCreate, "admin").WithResource("basic1_1_schedule"),
		domain.NewEvent("e2", base.Add(time.Minute), domain.CategorySchedule, domain.ActionMove, "admin").WithResource("basic1_1_schedule#4"),
		domain.NewEvent("e3", base.Add(2*time.Minute), domain.CategoryOutbox, domain.ActionRetry, "admin").WithResource("entry-1"),
		domain.NewEvent("e4", base.Add(3*time.Minute), domain.CategorySchedule, domain.ActionDelete, "admin").WithResource("basic1_10_schedule"),
	}
	for _, e := range events {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}

	ids := func(evs []domain.Event) []string {
		var out []string
		for _, e := range evs {
			out = append(out, e.ID)
		}
		return out
	}
	tests := []struct {
		name   string
		filter store.Filter
		want   []string
	}{
		{"all", store.Filter{}, []string{"e4", "e3", "e2", "e1"}},
		{"category", store.Filter{Category: domain.CategorySchedule}, []string{"e4", "e2", "e1"}},
		{"action", store.Filter{Action: domain.ActionRetry}, []string{"e3"}},
		// The underscore in the table name must not act as a wildcard.
		{"resource prefix", store.Filter{Resource: "basic1_1_"}, []string{"e2", "e1"}},
		{"since", store.Filter{Since: base.Add(2 * time.Minute)}, []string{"e4", "e3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter, 10)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if g := ids(got); !slices.Equal(g, tt.want) {
				t.Errorf("ids = %v, want %v", g, tt.want)
			}
		})
	}

	got, err := s.List(ctx, store.Filter{}, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("limit: %v, %v", got, err)
	}
	if !got[0].Timestamp.Equal(base.Add(3*time.Minute)) || got[0].Resource != "basic1_10_schedule" {
		t.Errorf("round trip = %+v", got[0])
	}
}

// TestSQLiteStore_SaveRejectsInvalid refuses events without an action.
func TestSQLiteStore_SaveRejectsInvalid(t *testing.T) {
	s := newStore(t)
	err := s.Save(context.Background(), domain.Event{ID: "x", Category: domain.CategoryRoster})
	if !errors.Is(err, domain.ErrEmptyAction) {
		t.Errorf("err = %v, want ErrEmptyAction", err)
	}
}
