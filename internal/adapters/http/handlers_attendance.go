package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mentordesk/internal/adapters/export"
	"mentordesk/internal/application/orchestrators"
	"mentordesk/internal/application/projections"
	auditDomain "mentordesk/internal/domain/audit"
)

// handleCalculateAttendance recomputes every mentor's attendance.
// POST /api/mentor-attendance
func handleCalculateAttendance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := orchestrators.ExecuteCalculateAttendance(r.Context(), calculateAttendanceDeps())
	services.Collector.RecordJob(JobCalculateAttendance, start, err)
	// Failed upserts still leave the other mentors' records saved.
	if err != nil && res.FailedUpserts == 0 {
		handleError(w, r, err)
		return
	}

	recordAudit(r, auditDomain.CategoryAttendance, auditDomain.ActionRecalculate, "mentor_attendance",
		fmt.Sprintf("%d mentors over %d tables", len(res.Records), res.Tables))

	body := map[string]any{
		"success":      true,
		"message":      fmt.Sprintf("Processed %d mentors", len(res.Records)),
		"results":      attendanceViews(res.Records),
		"tables":       res.Tables,
		"skippedScans": res.SkippedScans,
		"overlaps":     res.Overlaps,
	}
	if res.FailedUpserts > 0 {
		slog.Warn("attendance_partial_save", "failed", res.FailedUpserts, "error", err)
		body["failedUpserts"] = res.FailedUpserts
	}
	writeJSON(w, http.StatusOK, body)
}

// handleGetAttendance returns the stored attendance records, best first.
// GET /api/mentor-attendance
func handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetAttendanceSummary(r.Context(), projections.GetAttendanceSummaryDeps{
		Attendance: stores.AttendanceStore,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    attendanceViews(res.Records),
		"summary": map[string]any{
			"mentors":           res.Summary.Mentors,
			"averagePercent":    res.Summary.AveragePercent,
			"specialAttendance": res.Summary.SpecialAttendance,
			"lowAttendance":     res.Summary.LowAttendance,
		},
	})
}

// handleExportAttendance downloads the stored records as a spreadsheet.
// GET /api/mentor-attendance/export.xlsx
func handleExportAttendance(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetAttendanceSummary(r.Context(), projections.GetAttendanceSummaryDeps{
		Attendance: stores.AttendanceStore,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.AttendanceXLSX(&buf, res.Records); err != nil {
		internalError(w, r, err)
		return
	}
	filename := fmt.Sprintf("mentor-attendance-%s.xlsx", timeNow().In(settings.TimeZone).Format("2006-01-02"))
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
