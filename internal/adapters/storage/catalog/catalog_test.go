package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	_ "modernc.org/sqlite"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/adapters/storage/catalog"
	"mentordesk/internal/adapters/storage/schedule"
	"mentordesk/internal/adapters/storage/template"
	"mentordesk/internal/domain/cohort"
	domain "mentordesk/internal/domain/schedule"
)

// TestSQLiteCatalog verifies discovery skips templates and unrelated tables.
func TestSQLiteCatalog(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	sched := schedule.NewSQLiteStore(db)
	for _, table := range []string{"mern2_schedule", "basic1_1_schedule"} {
		if err := sched.EnsureTable(ctx, table); err != nil {
			t.Fatalf("EnsureTable: %v", err)
		}
	}
	if _, err := template.NewSQLiteStore(db).Replace(ctx, "basic", []domain.TemplateRow{{ID: 1}}); err != nil {
		t.Fatalf("template Replace: %v", err)
	}

	got, err := catalog.NewSQLiteCatalog(db).ScheduleTables(ctx)
	if err != nil {
		t.Fatalf("ScheduleTables: %v", err)
	}
	want := []string{"basic1_1_schedule", "mern2_schedule"}
	if !slices.Equal(got, want) {
		t.Errorf("ScheduleTables = %v, want %v", got, want)
	}
}

// TestStaticCatalog verifies validation, sorting and de-duplication.
func TestStaticCatalog(t *testing.T) {
	c, err := catalog.NewStaticCatalog([]string{"mern2_schedule", "basic1_1_schedule", "mern2_schedule"})
	if err != nil {
		t.Fatalf("NewStaticCatalog: %v", err)
	}
	got, _ := c.ScheduleTables(context.Background())
	if !slices.Equal(got, []string{"basic1_1_schedule", "mern2_schedule"}) {
		t.Errorf("ScheduleTables = %v", got)
	}

	if _, err := catalog.NewStaticCatalog([]string{"users"}); !errors.Is(err, cohort.ErrInvalidTable) {
		t.Errorf("err = %v, want ErrInvalidTable", err)
	}
}
