package catalog

import (
	"context"
	"fmt"
	"slices"

	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/cohort"
)

// Catalog discovers the cohort schedule tables that currently exist.
type Catalog interface {
	// ScheduleTables returns cohort schedule table names, sorted.
	// POST: every name satisfies cohort.IsScheduleTable; template tables are excluded
	ScheduleTables(ctx context.Context) ([]string, error)
}

// SQLiteCatalog reads table names from sqlite_master.
type SQLiteCatalog struct {
	db storage.SQLDB
}

// NewSQLiteCatalog creates a catalog over db.
func NewSQLiteCatalog(db storage.SQLDB) *SQLiteCatalog {
	return &SQLiteCatalog{db: db}
}

// ScheduleTables returns every table whose name parses as a cohort schedule.
func (c *SQLiteCatalog) ScheduleTables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE '%_schedule' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list schedule tables: %w", storage.Classify(err))
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if cohort.IsScheduleTable(name) {
			tables = append(tables, name)
		}
	}
	return tables, rows.Err()
}

// StaticCatalog serves a fixed list, for deployments that pin the cohorts they run.
type StaticCatalog struct {
	tables []string
}

// NewStaticCatalog validates and sorts tables.
// PRE: every name satisfies cohort.IsScheduleTable
// POST: Returns cohort.ErrInvalidTable for the first bad name
func NewStaticCatalog(tables []string) (*StaticCatalog, error) {
	for _, t := range tables {
		if !cohort.IsScheduleTable(t) {
			return nil, fmt.Errorf("%w: %q", cohort.ErrInvalidTable, t)
		}
	}
	sorted := slices.Clone(tables)
	slices.Sort(sorted)
	return &StaticCatalog{tables: slices.Compact(sorted)}, nil
}

// ScheduleTables returns a copy of the configured list.
func (c *StaticCatalog) ScheduleTables(context.Context) ([]string, error) {
	return slices.Clone(c.tables), nil
}
