package schedule

// NextID returns the id for a row appended to a cohort table.
func NextID(rows []Row) int64 {
	var max int64
	for _, r := range rows {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// NextSessionNumber returns the session number for a new session in week.
// PRE: week >= 1
// POST: Returns 1 for an empty week, otherwise the week's highest session number + 1
func NextSessionNumber(rows []Row, week int) int {
	max := 0
	for _, r := range rows {
		if r.WeekNumber == week && r.SessionNumber > max {
			max = r.SessionNumber
		}
	}
	return max + 1
}

// ShiftAfterDeletedWeek renumbers the weeks following a deleted week.
// Every row in a later week moves one week earlier: week_number drops by one
// and a set date moves back seven days (the weekday, and so Day, is unchanged).
// PRE: rows no longer contain rows of the deleted week; ordered by week ascending
// POST: Returns only the rows that changed, in input order
func ShiftAfterDeletedWeek(rows []Row, deletedWeek int) []Row {
	var shifted []Row
	for _, r := range rows {
		if r.WeekNumber <= deletedWeek {
			continue
		}
		r.WeekNumber--
		if r.Date != "" {
			if d, err := ParseDate(r.Date); err == nil {
				r.Date = FormatDate(d.AddDate(0, 0, -7))
			}
		}
		shifted = append(shifted, r)
	}
	return shifted
}
