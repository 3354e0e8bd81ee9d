package projections

import (
	"context"
	"log/slog"

	"mentordesk/internal/domain/cohort"
)

// CohortTable describes one discovered cohort table.
type CohortTable struct {
	Table  string `json:"table"`
	Cohort string `json:"cohort"`
	Type   string `json:"type"`
	Number string `json:"number"`
}

// GetCohortTablesDeps holds dependencies for GetCohortTables.
type GetCohortTablesDeps struct {
	Catalog TableCatalog
}

// QueryGetCohortTables lists the cohort tables with their parsed cohorts.
func QueryGetCohortTables(ctx context.Context, deps GetCohortTablesDeps) ([]CohortTable, error) {
	tables, err := deps.Catalog.ScheduleTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CohortTable, 0, len(tables))
	for _, t := range tables {
		c, err := cohort.ParseTableName(t)
		if err != nil {
			slog.Debug("cohort_table_unparsed", "table", t, "error", err)
			continue
		}
		out = append(out, CohortTable{Table: t, Cohort: c.DisplayName(), Type: c.Type, Number: c.Number})
	}
	return out, nil
}
