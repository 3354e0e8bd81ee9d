package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/schedule"
	"mentordesk/internal/domain/student"
)

type savedMentors struct {
	saved   []mentor.Mentor
	saveErr error
}

func (s *savedMentors) Save(_ context.Context, m mentor.Mentor) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, m)
	return nil
}

type savedStudents struct {
	saved []student.Student
}

func (s *savedStudents) Save(_ context.Context, st student.Student) error {
	s.saved = append(s.saved, st)
	return nil
}

type replacedTemplates struct {
	cohortType string
	rows       []schedule.TemplateRow
	calls      int
}

func (r *replacedTemplates) Replace(_ context.Context, cohortType string, rows []schedule.TemplateRow) (int, error) {
	r.calls++
	r.cohortType = cohortType
	r.rows = rows
	return len(rows), nil
}

// TestExecuteImportRoster_Mentors saves valid rows and reports the rest.
func TestExecuteImportRoster_Mentors(t *testing.T) {
	csv := "Mentor ID,Name,Email,Phone,Team\n" +
		"7,Asha,ASHA@Example.com,555-1,red\n" +
		"x,Ben,ben@example.com,,blue\n" +
		"9,Cam,not-an-email,,\n" +
		"10,,dee@example.com,,\n"
	store := &savedMentors{}
	res, err := ExecuteImportRoster(context.Background(), ImportRosterInput{
		Kind:   ImportMentors,
		Reader: strings.NewReader(csv),
	}, ImportRosterDeps{Mentors: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 4 || res.Saved != 2 || len(res.Errors) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Errors[0].Row != 3 || res.Errors[1].Row != 4 {
		t.Errorf("error rows = %d, %d; want 3, 4", res.Errors[0].Row, res.Errors[1].Row)
	}
	if len(res.Unknown) != 1 || res.Unknown[0] != "Team" {
		t.Errorf("unknown = %v", res.Unknown)
	}
	if store.saved[0].Email != "asha@example.com" || store.saved[0].ID != 7 {
		t.Errorf("saved[0] = %+v", store.saved[0])
	}
}

// TestExecuteImportRoster_DryRunWritesNothing counts without saving.
func TestExecuteImportRoster_DryRunWritesNothing(t *testing.T) {
	store := &savedMentors{saveErr: errors.New("must not be called")}
	res, err := ExecuteImportRoster(context.Background(), ImportRosterInput{
		Kind:   ImportMentors,
		Reader: strings.NewReader("mentor_id,email\n1,a@example.com\n2,b@example.com\n"),
		DryRun: true,
	}, ImportRosterDeps{Mentors: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Saved != 2 || !res.DryRun || len(res.Errors) != 0 {
		t.Errorf("result = %+v", res)
	}
}

// TestExecuteImportRoster_StudentsStableIDs gives re-imports the same id.
func TestExecuteImportRoster_StudentsStableIDs(t *testing.T) {
	csv := "name,email,cohort_type,cohort_number\nRia,ria@example.com,Basic,1.1\nSam,sam@example.com,basic,bad\n"
	run := func() *savedStudents {
		store := &savedStudents{}
		res, err := ExecuteImportRoster(context.Background(), ImportRosterInput{
			Kind:   ImportStudents,
			Reader: strings.NewReader(csv),
		}, ImportRosterDeps{Students: store})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Saved != 1 || len(res.Errors) != 1 {
			t.Fatalf("result = %+v", res)
		}
		return store
	}
	first, second := run(), run()
	if first.saved[0].ID == "" || first.saved[0].ID != second.saved[0].ID {
		t.Errorf("ids = %q, %q; want equal and non-empty", first.saved[0].ID, second.saved[0].ID)
	}
	if first.saved[0].CohortType != "basic" {
		t.Errorf("cohort type = %q", first.saved[0].CohortType)
	}
}

// TestExecuteImportRoster_Template replaces only when every row is valid.
func TestExecuteImportRoster_Template(t *testing.T) {
	good := "id,week_number,session_number,session_type,subject_name\n" +
		"1,1,1," + schedule.SessionTypeLive + ",Arrays\n" +
		"2,,," + schedule.SessionTypeProject + ",Capstone\n"
	bad := good + "2,2,1," + schedule.SessionTypeLive + ",Dupe\n" + "3,2,2,lecture,Strings\n"

	store := &replacedTemplates{}
	res, err := ExecuteImportRoster(context.Background(), ImportRosterInput{
		Kind: ImportTemplate, CohortType: "basic", Reader: strings.NewReader(good),
	}, ImportRosterDeps{Templates: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Saved != 2 || store.calls != 1 || store.cohortType != "basic" {
		t.Errorf("result = %+v, calls = %d", res, store.calls)
	}
	if store.rows[1].WeekNumber != 0 || store.rows[1].SubjectName != "Capstone" {
		t.Errorf("undated row = %+v", store.rows[1])
	}

	store = &replacedTemplates{}
	res, err = ExecuteImportRoster(context.Background(), ImportRosterInput{
		Kind: ImportTemplate, CohortType: "basic", Reader: strings.NewReader(bad),
	}, ImportRosterDeps{Templates: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls != 0 || res.Saved != 0 || len(res.Errors) != 2 {
		t.Errorf("result = %+v, calls = %d", res, store.calls)
	}
}

// TestExecuteImportRoster_Rejections covers whole-upload failures.
func TestExecuteImportRoster_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   ImportRosterInput
		wantErr error
	}{
		{"unknown kind", ImportRosterInput{Kind: "alumni", Reader: strings.NewReader("a\n")}, ErrUnknownImportKind},
		{"missing column", ImportRosterInput{Kind: ImportMentors, Reader: strings.NewReader("name,email\n")}, ErrImportHeader},
		{"template without type", ImportRosterInput{Kind: ImportTemplate, Reader: strings.NewReader("id\n")}, cohort.ErrEmptyType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteImportRoster(context.Background(), tt.input, ImportRosterDeps{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
