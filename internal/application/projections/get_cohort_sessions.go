package projections

import (
	"context"
	"sort"
	"time"

	"mentordesk/internal/domain/cohort"
	domain "mentordesk/internal/domain/schedule"
)

// WeekSessions is one week of a cohort table.
type WeekSessions struct {
	Week     int
	Sessions []domain.Row
}

// GetCohortSessionsResult is a cohort table grouped by week.
type GetCohortSessionsResult struct {
	Table   string
	Cohort  string // "Basic 1.1"
	Weeks   []WeekSessions
	Undated int
	Total   int
}

// GetCohortSessionsDeps holds dependencies for GetCohortSessions.
type GetCohortSessionsDeps struct {
	Sessions SessionLister
}

// QueryGetCohortSessions returns a cohort's sessions grouped by week.
// PRE: table is a cohort schedule table name
// POST: weeks ascending; rows without a week are grouped under week 0
func QueryGetCohortSessions(ctx context.Context, table string, deps GetCohortSessionsDeps) (GetCohortSessionsResult, error) {
	c, err := cohort.ParseTableName(table)
	if err != nil {
		return GetCohortSessionsResult{}, err
	}
	rows, err := deps.Sessions.List(ctx, table)
	if err != nil {
		return GetCohortSessionsResult{}, err
	}

	res := GetCohortSessionsResult{Table: table, Cohort: c.DisplayName(), Total: len(rows)}
	byWeek := map[int][]domain.Row{}
	for _, r := range rows {
		byWeek[r.WeekNumber] = append(byWeek[r.WeekNumber], r)
		if r.Date == "" {
			res.Undated++
		}
	}
	for w, sessions := range byWeek {
		res.Weeks = append(res.Weeks, WeekSessions{Week: w, Sessions: sessions})
	}
	sort.Slice(res.Weeks, func(i, j int) bool { return res.Weeks[i].Week < res.Weeks[j].Week })
	return res, nil
}

// GetMoveOptionsQuery identifies the session and the direction.
type GetMoveOptionsQuery struct {
	Table string
	ID    int64
	Mode  string
}

// GetMoveOptionsResult lists the dates a session may move to.
type GetMoveOptionsResult struct {
	Session domain.Row
	Mode    domain.MoveMode
	Dates   []string
}

// GetMoveOptionsDeps holds dependencies for GetMoveOptions.
type GetMoveOptionsDeps struct {
	Sessions SessionLister
	Now      func() time.Time
	Location *time.Location
}

// QueryGetMoveOptions returns the dates offered for a postpone or prepone.
// PRE: query.Mode is postpone or prepone
// POST: Dates ascending, never before today in deps.Location
func QueryGetMoveOptions(ctx context.Context, query GetMoveOptionsQuery, deps GetMoveOptionsDeps) (GetMoveOptionsResult, error) {
	mode, err := domain.ParseMoveMode(query.Mode)
	if err != nil {
		return GetMoveOptionsResult{}, err
	}
	rows, err := deps.Sessions.List(ctx, query.Table)
	if err != nil {
		return GetMoveOptionsResult{}, err
	}
	dates, err := domain.MoveOptions(rows, query.ID, mode, today(deps.Now, deps.Location))
	if err != nil {
		return GetMoveOptionsResult{}, err
	}
	res := GetMoveOptionsResult{Mode: mode, Dates: dates}
	for _, r := range rows {
		if r.ID == query.ID {
			res.Session = r
			break
		}
	}
	return res, nil
}

// GetOpenSpansDeps holds dependencies for GetOpenSpans.
type GetOpenSpansDeps struct {
	Sessions SessionLister
	Now      func() time.Time
	Location *time.Location
}

// QueryGetOpenSpans returns the free date ranges around a week.
// PRE: week > 0
func QueryGetOpenSpans(ctx context.Context, table string, week int, deps GetOpenSpansDeps) ([]domain.DateSpan, error) {
	if week <= 0 {
		return nil, domain.ErrInvalidWeek
	}
	rows, err := deps.Sessions.List(ctx, table)
	if err != nil {
		return nil, err
	}
	return domain.OpenDateSpans(rows, week, today(deps.Now, deps.Location)), nil
}

func today(now func() time.Time, loc *time.Location) time.Time {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateIn(now(), loc)
}
