package template

import (
	"context"

	"mentordesk/internal/domain/schedule"
)

// Store reads curriculum templates. Each cohort type has its own template
// table named by cohort.TemplateKey.
type Store interface {
	// ListByCohortType returns the template for cohortType ordered by id.
	// POST: storage.ErrTableNotFound when the type has no template table
	ListByCohortType(ctx context.Context, cohortType string) ([]schedule.TemplateRow, error)

	// ListCohortTypes returns the cohort types that have a template table.
	ListCohortTypes(ctx context.Context) ([]string, error)

	// Replace creates the template table if needed and replaces its contents.
	// POST: returns the number of rows stored
	Replace(ctx context.Context, cohortType string, rows []schedule.TemplateRow) (int, error)
}
