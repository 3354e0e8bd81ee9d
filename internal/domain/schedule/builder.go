package schedule

import "time"

// BuildParams are the cohort-specific inputs to BuildRows.
type BuildParams struct {
	StartDate time.Time // calendar date, UTC midnight
	Day1      string
	Day2      string
	MentorID  int64
	Now       time.Time // stamped into CreatedAt only
}

// BuildRows binds template rows to concrete calendar dates for one cohort.
// Contest rows use ContestDate; all others use SessionDate with Day1/Day2.
// A row whose date cannot be computed keeps an empty Date and Day instead
// of aborting the batch.
// PRE: template is ordered by ID ascending
// POST: Returns one Row per template row in the same order, or ErrNoTemplateData
// INVARIANT: Output depends only on template and params (CreatedAt = params.Now)
func BuildRows(template []TemplateRow, p BuildParams) ([]Row, error) {
	if len(template) == 0 {
		return nil, ErrNoTemplateData
	}

	rows := make([]Row, 0, len(template))
	for _, t := range template {
		row := Row{
			ID:                     t.ID,
			WeekNumber:             t.WeekNumber,
			SessionNumber:          t.SessionNumber,
			Time:                   DefaultTime,
			SessionType:            t.SessionType,
			SubjectType:            t.SubjectType,
			SubjectName:            t.SubjectName,
			SubjectTopic:           t.SubjectTopic,
			InitialSessionMaterial: t.InitialSessionMaterial,
			CreatedAt:              p.Now,
		}

		if t.WeekNumber > 0 && t.SessionNumber > 0 {
			if date, ok := templateDate(t, p); ok {
				row.Date = FormatDate(date)
				row.Day = DayName(date)
			}
		}

		if IsLiveSession(t.SessionType) {
			row.MentorID = p.MentorID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// templateDate picks the date rule for a template row.
func templateDate(t TemplateRow, p BuildParams) (time.Time, bool) {
	if IsContest(t.SessionType) {
		return ContestDate(p.StartDate, t.WeekNumber, t.SessionNumber), true
	}
	date, err := SessionDate(p.StartDate, t.WeekNumber, t.SessionNumber, p.Day1, p.Day2)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
