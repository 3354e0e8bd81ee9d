package projections

import (
	"context"
	"math"

	domain "mentordesk/internal/domain/attendance"
)

// AttendanceSummary aggregates the stored records.
type AttendanceSummary struct {
	Mentors           int
	AveragePercent    float64 // over mentors with at least one class, two decimals
	SpecialAttendance int
	LowAttendance     int
}

// GetAttendanceSummaryResult carries the records and their summary.
type GetAttendanceSummaryResult struct {
	Records []domain.Record
	Summary AttendanceSummary
}

// GetAttendanceSummaryDeps holds dependencies for GetAttendanceSummary.
type GetAttendanceSummaryDeps struct {
	Attendance AttendanceLister
}

// QueryGetAttendanceSummary returns every mentor's record, best first, with totals.
// PRE: none
// POST: Records keep the store's order (percent descending)
// INVARIANT: mentors without completed classes are excluded from the average
func QueryGetAttendanceSummary(ctx context.Context, deps GetAttendanceSummaryDeps) (GetAttendanceSummaryResult, error) {
	records, err := deps.Attendance.List(ctx)
	if err != nil {
		return GetAttendanceSummaryResult{}, err
	}

	var sum float64
	var counted int
	s := AttendanceSummary{Mentors: len(records)}
	for i := range records {
		r := &records[i]
		s.SpecialAttendance += r.SpecialAttendance
		if r.IsLow() {
			s.LowAttendance++
		}
		if r.TotalClasses > 0 {
			sum += r.AttendancePercent
			counted++
		}
	}
	if counted > 0 {
		s.AveragePercent = math.Round(sum/float64(counted)*100) / 100
	}
	return GetAttendanceSummaryResult{Records: records, Summary: s}, nil
}
