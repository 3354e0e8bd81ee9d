// Package export renders persisted data as downloadable spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"mentordesk/internal/domain/attendance"
)

// XLSXContentType is the MIME type for .xlsx downloads.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceSheet is the worksheet name used by AttendanceXLSX.
const AttendanceSheet = "Mentor Attendance"

var attendanceHeaders = []string{
	"Mentor ID", "Name", "Email", "Total Classes", "Present", "Absent",
	"Special Attendance", "Attendance %", "Low Attendance", "Updated At",
}

// AttendanceXLSX writes one header row plus one row per record to w.
// PRE: records are in the order they should appear
// POST: w receives a complete workbook with a single sheet
func AttendanceXLSX(w io.Writer, records []attendance.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(AttendanceSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range attendanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(AttendanceSheet, cell, h)
	}
	for i, r := range records {
		row := i + 2
		values := []any{
			r.MentorID, r.Name, r.Email, r.TotalClasses, r.Present, r.Absent,
			r.SpecialAttendance, r.AttendancePercent, lowLabel(r), r.UpdatedAt.UTC().Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(AttendanceSheet, cell, v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func lowLabel(r attendance.Record) string {
	if r.IsLow() {
		return "yes"
	}
	return "no"
}
