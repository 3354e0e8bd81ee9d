package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/schedule"
	"mentordesk/internal/domain/student"
)

// Import kinds accepted by ExecuteImportRoster.
const (
	ImportMentors  = "mentors"
	ImportStudents = "students"
	ImportTemplate = "template"
)

var (
	ErrUnknownImportKind = errors.New("unknown import kind")
	ErrImportHeader      = errors.New("csv header is missing a required column")
)

// MentorSaver stores mentors.
type MentorSaver interface {
	Save(ctx context.Context, m mentor.Mentor) error
}

// StudentSaver stores students.
type StudentSaver interface {
	Save(ctx context.Context, st student.Student) error
}

// TemplateReplacer overwrites one cohort type's curriculum template.
type TemplateReplacer interface {
	Replace(ctx context.Context, cohortType string, rows []schedule.TemplateRow) (int, error)
}

// ImportRosterInput carries one CSV upload.
type ImportRosterInput struct {
	Kind       string
	CohortType string // template imports only
	Reader     io.Reader
	DryRun     bool
}

// ImportRowError describes a rejected CSV row. Row counts the header as 1.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportRosterResult reports what an import did or, on a dry run, would do.
type ImportRosterResult struct {
	Kind    string           `json:"kind"`
	Total   int              `json:"total"`
	Saved   int              `json:"saved"`
	Errors  []ImportRowError `json:"errors"`
	Unknown []string         `json:"unknownColumns"`
	DryRun  bool             `json:"dryRun"`
}

// ImportRosterDeps holds dependencies for ExecuteImportRoster.
type ImportRosterDeps struct {
	Mentors   MentorSaver
	Students  StudentSaver
	Templates TemplateReplacer
}

// csvSheet is a parsed upload with its header resolved to column indexes.
type csvSheet struct {
	cols    map[string]int
	unknown []string
	rows    [][]string
}

var importColumns = map[string][]string{
	ImportMentors:  {"mentor_id", "name", "email", "phone"},
	ImportStudents: {"id", "name", "email", "cohort_type", "cohort_number"},
	ImportTemplate: {"id", "week_number", "session_number", "session_type", "subject_type",
		"subject_name", "subject_topic", "initial_session_material"},
}

var requiredColumns = map[string][]string{
	ImportMentors:  {"mentor_id", "email"},
	ImportStudents: {"name", "email", "cohort_type", "cohort_number"},
	ImportTemplate: {"id", "session_type", "subject_name"},
}

func readSheet(r io.Reader, kind string) (csvSheet, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return csvSheet{}, fmt.Errorf("read csv header: %w", err)
	}
	sheet := csvSheet{cols: make(map[string]int, len(header))}
	known := importColumns[kind]
	for i, h := range header {
		name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "_"))
		sheet.cols[name] = i
		if !containsString(known, name) {
			sheet.unknown = append(sheet.unknown, h)
		}
	}
	for _, col := range requiredColumns[kind] {
		if _, ok := sheet.cols[col]; !ok {
			return csvSheet{}, fmt.Errorf("%w: %s", ErrImportHeader, col)
		}
	}
	sheet.rows, err = cr.ReadAll()
	if err != nil {
		return csvSheet{}, fmt.Errorf("read csv: %w", err)
	}
	return sheet, nil
}

func (s csvSheet) get(row []string, col string) string {
	i, ok := s.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// optionalInt parses an integer column; blank is 0.
func (s csvSheet) optionalInt(row []string, col string) (int64, error) {
	v := s.get(row, col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", col, v)
	}
	return n, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid email %q", raw)
	}
	return strings.ToLower(addr.Address), nil
}

// studentID derives a stable id so re-importing a roster updates rather than duplicates.
func studentID(email string, c cohort.Cohort) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email+"#"+c.TableName())).String()
}

// ExecuteImportRoster loads mentors, students or a curriculum template from CSV.
// Mentor and student rows are saved one at a time and bad rows are reported
// and skipped. A template is replaced only when every row is valid.
// PRE: Reader yields CSV with a header row naming at least the required columns
// POST: DryRun performs no writes
// INVARIANT: existing mentors and students are never deleted
func ExecuteImportRoster(ctx context.Context, input ImportRosterInput, deps ImportRosterDeps) (ImportRosterResult, error) {
	if _, ok := importColumns[input.Kind]; !ok {
		return ImportRosterResult{}, fmt.Errorf("%w: %q", ErrUnknownImportKind, input.Kind)
	}
	if input.Kind == ImportTemplate {
		if err := cohort.ValidateType(input.CohortType); err != nil {
			return ImportRosterResult{}, err
		}
	}
	sheet, err := readSheet(input.Reader, input.Kind)
	if err != nil {
		return ImportRosterResult{}, err
	}

	res := ImportRosterResult{
		Kind:    input.Kind,
		Total:   len(sheet.rows),
		Errors:  []ImportRowError{},
		Unknown: sheet.unknown,
		DryRun:  input.DryRun,
	}
	switch input.Kind {
	case ImportMentors:
		importMentors(ctx, sheet, input.DryRun, deps.Mentors, &res)
	case ImportStudents:
		importStudents(ctx, sheet, input.DryRun, deps.Students, &res)
	case ImportTemplate:
		if err := importTemplate(ctx, sheet, input, deps.Templates, &res); err != nil {
			return res, err
		}
	}

	slog.Info("roster_import",
		"kind", input.Kind,
		"cohort_type", input.CohortType,
		"dry_run", input.DryRun,
		"total", res.Total,
		"saved", res.Saved,
		"errors", len(res.Errors),
	)
	return res, nil
}

func importMentors(ctx context.Context, sheet csvSheet, dryRun bool, store MentorSaver, res *ImportRosterResult) {
	for i, row := range sheet.rows {
		rowNum := i + 2
		id, err := sheet.optionalInt(row, "mentor_id")
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		email, err := normalizeEmail(sheet.get(row, "email"))
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		m := mentor.Mentor{ID: id, Name: sheet.get(row, "name"), Email: email, Phone: sheet.get(row, "phone")}
		if err := m.Validate(); err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if !dryRun {
			if err := store.Save(ctx, m); err != nil {
				slog.Error("roster_import_save_failed", "kind", ImportMentors, "row", rowNum, "error", err)
				res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: "save failed (see server log)"})
				continue
			}
		}
		res.Saved++
	}
}

func importStudents(ctx context.Context, sheet csvSheet, dryRun bool, store StudentSaver, res *ImportRosterResult) {
	for i, row := range sheet.rows {
		rowNum := i + 2
		email, err := normalizeEmail(sheet.get(row, "email"))
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		st := student.Student{
			ID:           sheet.get(row, "id"),
			Name:         sheet.get(row, "name"),
			Email:        email,
			CohortType:   strings.ToLower(sheet.get(row, "cohort_type")),
			CohortNumber: sheet.get(row, "cohort_number"),
		}
		if st.ID == "" {
			st.ID = studentID(email, st.Cohort())
		}
		if err := st.Validate(); err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if !dryRun {
			if err := store.Save(ctx, st); err != nil {
				slog.Error("roster_import_save_failed", "kind", ImportStudents, "row", rowNum, "error", err)
				res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: "save failed (see server log)"})
				continue
			}
		}
		res.Saved++
	}
}

func importTemplate(ctx context.Context, sheet csvSheet, input ImportRosterInput, store TemplateReplacer, res *ImportRosterResult) error {
	rows := make([]schedule.TemplateRow, 0, len(sheet.rows))
	seen := make(map[int64]bool, len(sheet.rows))
	for i, row := range sheet.rows {
		rowNum := i + 2
		t, err := templateRow(sheet, row)
		if err == nil && seen[t.ID] {
			err = fmt.Errorf("duplicate id %d", t.ID)
		}
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		seen[t.ID] = true
		rows = append(rows, t)
	}
	if len(res.Errors) > 0 || len(rows) == 0 {
		return nil
	}
	if input.DryRun {
		res.Saved = len(rows)
		return nil
	}
	n, err := store.Replace(ctx, input.CohortType, rows)
	if err != nil {
		return fmt.Errorf("replace %s template: %w", input.CohortType, err)
	}
	res.Saved = n
	return nil
}

func templateRow(sheet csvSheet, row []string) (schedule.TemplateRow, error) {
	id, err := sheet.optionalInt(row, "id")
	if err != nil {
		return schedule.TemplateRow{}, err
	}
	if id == 0 {
		return schedule.TemplateRow{}, errors.New("id is required")
	}
	week, err := sheet.optionalInt(row, "week_number")
	if err != nil {
		return schedule.TemplateRow{}, err
	}
	session, err := sheet.optionalInt(row, "session_number")
	if err != nil {
		return schedule.TemplateRow{}, err
	}
	t := schedule.TemplateRow{
		ID:                     id,
		WeekNumber:             int(week),
		SessionNumber:          int(session),
		SessionType:            strings.ToLower(sheet.get(row, "session_type")),
		SubjectType:            sheet.get(row, "subject_type"),
		SubjectName:            sheet.get(row, "subject_name"),
		SubjectTopic:           sheet.get(row, "subject_topic"),
		InitialSessionMaterial: sheet.get(row, "initial_session_material"),
	}
	if !schedule.IsKnownSessionType(t.SessionType) {
		return schedule.TemplateRow{}, fmt.Errorf("%w: %q", schedule.ErrUnknownSessionType, t.SessionType)
	}
	if t.SubjectName == "" {
		return schedule.TemplateRow{}, errors.New("subject_name is required")
	}
	return t, nil
}
