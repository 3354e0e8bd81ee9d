package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mentordesk/internal/adapters/storage/catalog"
	"mentordesk/internal/domain/attendance"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/schedule"
)

// MentorRoster lists every mentor.
type MentorRoster interface {
	List(ctx context.Context) ([]mentor.Mentor, error)
}

// CompletedClassScanner finds completed classes in one cohort table.
type CompletedClassScanner interface {
	ListCompletedByMentor(ctx context.Context, table string, mentorID int64) ([]schedule.Row, error)
	ListCompletedBySubstitute(ctx context.Context, table string, mentorID int64) ([]schedule.Row, error)
}

// AttendanceWriter persists derived attendance records.
type AttendanceWriter interface {
	Upsert(ctx context.Context, r attendance.Record) error
}

// CalculateAttendanceDeps holds dependencies for CalculateAttendance.
type CalculateAttendanceDeps struct {
	Mentors    MentorRoster
	Catalog    catalog.Catalog
	Schedules  CompletedClassScanner
	Attendance AttendanceWriter
	Now        func() time.Time
}

// CalculateAttendanceResult summarises one run.
type CalculateAttendanceResult struct {
	Records       []attendance.Record
	Tables        int
	SkippedScans  int // table scans that failed and were left out
	Overlaps      int // rows where a mentor was both assigned and substitute
	FailedUpserts int
}

// ExecuteCalculateAttendance recomputes every mentor's attendance from the
// completed classes in all cohort tables and overwrites the stored records.
//
// A completed class assigned to a mentor counts as present, or absent when a
// substitute taught it. A completed class a mentor taught as substitute adds
// to their special attendance only. A row naming the same mentor in both
// roles is counted by both passes and logged.
//
// PRE: none
// POST: one record upserted per mentor; a mentor whose record is invalid or
// fails to save is counted in FailedUpserts and the rest still run; returns
// mentor.ErrNoMentors for an empty roster and fails fast if the roster or
// table list cannot be read
// INVARIANT: results depend only on stored rows; repeated runs are idempotent
func ExecuteCalculateAttendance(ctx context.Context, deps CalculateAttendanceDeps) (CalculateAttendanceResult, error) {
	mentors, err := deps.Mentors.List(ctx)
	if err != nil {
		return CalculateAttendanceResult{}, fmt.Errorf("load mentors: %w", err)
	}
	if len(mentors) == 0 {
		return CalculateAttendanceResult{}, mentor.ErrNoMentors
	}
	tables, err := deps.Catalog.ScheduleTables(ctx)
	if err != nil {
		return CalculateAttendanceResult{}, fmt.Errorf("discover cohort tables: %w", err)
	}

	result := CalculateAttendanceResult{Tables: len(tables)}
	slog.Info("attendance_run_start", "mentors", len(mentors), "tables", len(tables))

	now := deps.Now()
	var upsertErrs []error
	for _, m := range mentors {
		var tally attendance.Tally
		for _, table := range tables {
			assigned, err := deps.Schedules.ListCompletedByMentor(ctx, table, m.ID)
			if err != nil {
				// The whole table is left out for this mentor.
				result.SkippedScans++
				slog.Warn("attendance_table_skipped", "table", table, "mentor_id", m.ID, "pass", "assigned", "error", err)
				continue
			}
			for _, r := range assigned {
				tally.AddAssigned(r.IsSwapped())
				if r.SwappedMentorID == m.ID {
					result.Overlaps++
					slog.Warn("attendance_overlap_detected", "table", table, "row_id", r.ID, "mentor_id", m.ID)
				}
			}

			covered, err := deps.Schedules.ListCompletedBySubstitute(ctx, table, m.ID)
			if err != nil {
				// Assigned classes from this table still count.
				result.SkippedScans++
				slog.Warn("attendance_substitute_scan_failed", "table", table, "mentor_id", m.ID, "error", err)
			}
			for range covered {
				tally.AddSubstitute()
			}
		}

		rec := tally.Record(m, now)
		if err := rec.Validate(); err != nil {
			result.FailedUpserts++
			upsertErrs = append(upsertErrs, fmt.Errorf("mentor %d: %w", m.ID, err))
			slog.Error("attendance_record_invalid", "mentor_id", m.ID, "error", err)
			continue
		}
		if err := deps.Attendance.Upsert(ctx, rec); err != nil {
			result.FailedUpserts++
			upsertErrs = append(upsertErrs, fmt.Errorf("mentor %d: %w", m.ID, err))
			slog.Error("attendance_upsert_failed", "mentor_id", m.ID, "error", err)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	slog.Info("attendance_run_complete",
		"mentors", len(result.Records),
		"tables", result.Tables,
		"skipped_scans", result.SkippedScans,
		"overlaps", result.Overlaps,
	)
	return result, errors.Join(upsertErrs...)
}
