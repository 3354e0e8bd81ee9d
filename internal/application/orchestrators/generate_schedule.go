package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mentordesk/internal/adapters/lock"
	"mentordesk/internal/adapters/storage"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/schedule"
)

// Regeneration retry policy for the bulk write after table creation.
const (
	DefaultReplaceAttempts = 3
	DefaultReplaceDelay    = 2 * time.Second
	regenerateLockTTL      = 2 * time.Minute
)

// ErrMissingClassDays is returned when either weekly class day is blank.
var ErrMissingClassDays = errors.New("both class days are required")

// TemplateReader loads a curriculum template.
type TemplateReader interface {
	ListByCohortType(ctx context.Context, cohortType string) ([]schedule.TemplateRow, error)
}

// ScheduleWriter creates and fills a cohort table.
type ScheduleWriter interface {
	EnsureTable(ctx context.Context, table string) error
	Replace(ctx context.Context, table string, rows []schedule.Row) (int, error)
}

// GenerateScheduleInput carries the cohort parameters from the admin form.
type GenerateScheduleInput struct {
	CohortType   string
	CohortNumber string
	StartDate    string // YYYY-MM-DD
	Day1         string
	Day2         string
	MentorID     int64
}

// GenerateScheduleDeps holds dependencies for GenerateSchedule.
type GenerateScheduleDeps struct {
	Templates TemplateReader
	Schedules ScheduleWriter
	Locker    lock.Locker // optional; nil skips serialisation
	Now       func() time.Time

	// Retry policy; zero values use the defaults above.
	Attempts int
	Delay    time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
}

// GenerateScheduleResult reports what was written.
type GenerateScheduleResult struct {
	Table    string
	Inserted int
	Undated  int // rows left without a date (missing week/session or bad day name)
	Attempts int
}

// ExecuteGenerateSchedule builds a cohort's schedule from its type's template
// and replaces the cohort table's contents with it.
// PRE: input names a valid cohort, a start date and two day names
// POST: the table holds exactly the generated rows, or an error is returned
// and the table may still hold its previous contents
// INVARIANT: concurrent regenerations of one table are rejected with lock.ErrLocked
func ExecuteGenerateSchedule(ctx context.Context, input GenerateScheduleInput, deps GenerateScheduleDeps) (GenerateScheduleResult, error) {
	c := cohort.Cohort{Type: strings.TrimSpace(input.CohortType), Number: strings.TrimSpace(input.CohortNumber)}
	if err := c.Validate(); err != nil {
		return GenerateScheduleResult{}, err
	}
	start, err := schedule.ParseDate(input.StartDate)
	if err != nil {
		return GenerateScheduleResult{}, err
	}
	if strings.TrimSpace(input.Day1) == "" || strings.TrimSpace(input.Day2) == "" {
		return GenerateScheduleResult{}, ErrMissingClassDays
	}
	if input.MentorID <= 0 {
		return GenerateScheduleResult{}, schedule.ErrInvalidMentor
	}

	table := c.TableName()
	result := GenerateScheduleResult{Table: table}

	if deps.Locker != nil {
		unlock, err := deps.Locker.TryLock(ctx, table, regenerateLockTTL)
		if err != nil {
			return result, fmt.Errorf("regenerate %s: %w", table, err)
		}
		defer unlock()
	}

	template, err := deps.Templates.ListByCohortType(ctx, c.Type)
	if errors.Is(err, storage.ErrTableNotFound) {
		return result, fmt.Errorf("%w: %s", schedule.ErrNoTemplateData, c.TemplateKey())
	}
	if err != nil {
		return result, fmt.Errorf("load template %s: %w", c.TemplateKey(), err)
	}

	rows, err := schedule.BuildRows(template, schedule.BuildParams{
		StartDate: start,
		Day1:      input.Day1,
		Day2:      input.Day2,
		MentorID:  input.MentorID,
		Now:       deps.Now(),
	})
	if err != nil {
		return result, fmt.Errorf("%w: %s", err, c.TemplateKey())
	}
	for _, r := range rows {
		if r.Date == "" {
			result.Undated++
		}
	}
	if result.Undated > 0 {
		slog.Warn("schedule_rows_undated", "table", table, "count", result.Undated, "day1", input.Day1, "day2", input.Day2)
	}

	if err := deps.Schedules.EnsureTable(ctx, table); err != nil {
		return result, fmt.Errorf("create %s: %w", table, err)
	}

	attempts := deps.Attempts
	if attempts <= 0 {
		attempts = DefaultReplaceAttempts
	}
	delay := deps.Delay
	if delay <= 0 {
		delay = DefaultReplaceDelay
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt
		n, err := deps.Schedules.Replace(ctx, table, rows)
		if err == nil {
			result.Inserted = n
			slog.Info("schedule_generated", "table", table, "rows", n, "undated", result.Undated, "attempts", attempt)
			return result, nil
		}
		if !storage.IsRetryable(err) || attempt == attempts {
			return result, fmt.Errorf("write %s: %w", table, err)
		}
		slog.Warn("schedule_replace_retry", "table", table, "attempt", attempt, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return result, err
		}
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
