package web

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"mentordesk/internal/application/orchestrators"
	"mentordesk/internal/application/projections"
	auditDomain "mentordesk/internal/domain/audit"
)

// createCohortRequest is the admin form for generating a cohort schedule.
type createCohortRequest struct {
	CohortType   string `json:"cohortType" validate:"required,alpha"`
	CohortNumber string `json:"cohortNumber" validate:"required"`
	Day1         string `json:"day1" validate:"required"`
	Day2         string `json:"day2" validate:"required"`
	StartDate    string `json:"startDate" validate:"required,datetime=2006-01-02"`
	MentorID     int64  `json:"mentorId" validate:"required,gt=0"`
}

// handleCreateCohort generates (or regenerates) a cohort schedule from its template.
// POST /api/cohorts
func handleCreateCohort(w http.ResponseWriter, r *http.Request) {
	var req createCohortRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := orchestrators.ExecuteGenerateSchedule(r.Context(), orchestrators.GenerateScheduleInput{
		CohortType:   req.CohortType,
		CohortNumber: req.CohortNumber,
		StartDate:    req.StartDate,
		Day1:         req.Day1,
		Day2:         req.Day2,
		MentorID:     req.MentorID,
	}, orchestrators.GenerateScheduleDeps{
		Templates: stores.TemplateStore,
		Schedules: stores.ScheduleStore,
		Locker:    services.Locker,
		Now:       timeNow,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	recordAudit(r, auditDomain.CategorySchedule, auditDomain.ActionCreate, res.Table,
		fmt.Sprintf("generated %d sessions starting %s on %s and %s", res.Inserted, req.StartDate, req.Day1, req.Day2))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         fmt.Sprintf("Successfully created %s schedule", res.Table),
		"tableName":       res.Table,
		"recordsInserted": res.Inserted,
		"undated":         res.Undated,
	})
}

// handleListCohortTables lists the cohort tables that exist.
// GET /api/cohort-tables
func handleListCohortTables(w http.ResponseWriter, r *http.Request) {
	tables, err := projections.QueryGetCohortTables(r.Context(), projections.GetCohortTablesDeps{
		Catalog: stores.Catalog,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": tables})
}

// handleListSessions returns one cohort table grouped by week.
// GET /api/cohorts/{table}/sessions
func handleListSessions(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	res, err := projections.QueryGetCohortSessions(r.Context(), table, projections.GetCohortSessionsDeps{
		Sessions: stores.ScheduleStore,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": cohortSessionsView(res)})
}

// addSessionRequest carries a hand-added session. Zero values mean "not provided".
type addSessionRequest struct {
	WeekNumber             int    `json:"week_number" validate:"required,gt=0"`
	SessionNumber          int    `json:"session_number" validate:"gte=0"`
	Date                   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time                   string `json:"time"`
	Day                    string `json:"day"`
	SessionType            string `json:"session_type"`
	SubjectType            string `json:"subject_type"`
	SubjectName            string `json:"subject_name" validate:"max=200"`
	SubjectTopic           string `json:"subject_topic" validate:"max=500"`
	InitialSessionMaterial string `json:"initial_session_material"`
	SessionMaterial        string `json:"session_material"`
	SessionRecording       string `json:"session_recording" validate:"omitempty,url"`
	MentorID               int64  `json:"mentor_id" validate:"gte=0"`
	TeamsMeetingLink       string `json:"teams_meeting_link" validate:"omitempty,url"`
}

// handleAddSession appends a session to a cohort table.
// POST /api/cohorts/{table}/sessions
func handleAddSession(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	var req addSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	row, err := orchestrators.ExecuteAddSession(r.Context(), orchestrators.AddSessionInput{
		Table:                  table,
		WeekNumber:             req.WeekNumber,
		SessionNumber:          req.SessionNumber,
		Date:                   req.Date,
		Time:                   req.Time,
		Day:                    req.Day,
		SessionType:            req.SessionType,
		SubjectType:            req.SubjectType,
		SubjectName:            req.SubjectName,
		SubjectTopic:           req.SubjectTopic,
		InitialSessionMaterial: req.InitialSessionMaterial,
		SessionMaterial:        req.SessionMaterial,
		SessionRecording:       req.SessionRecording,
		MentorID:               req.MentorID,
		TeamsMeetingLink:       req.TeamsMeetingLink,
	}, orchestrators.AddSessionDeps{
		Sessions: stores.ScheduleStore,
		Now:      timeNow,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	recordAudit(r, auditDomain.CategorySchedule, auditDomain.ActionCreate, fmt.Sprintf("%s#%d", table, row.ID),
		fmt.Sprintf("added week %d session %d", row.WeekNumber, row.SessionNumber))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Session added successfully",
		"data":    sessionView(row),
	})
}

type bulkUpdateRequest struct {
	IDs    []int64           `json:"ids" validate:"required,min=1,dive,gt=0"`
	Fields map[string]string `json:"fields" validate:"required"`
}

// handleBulkUpdate sets the same values on many sessions.
// POST /api/cohorts/{table}/sessions/bulk-update
func handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	var req bulkUpdateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	n, err := orchestrators.ExecuteBulkUpdate(r.Context(), orchestrators.BulkUpdateInput{
		Table:  table,
		IDs:    req.IDs,
		Fields: req.Fields,
	}, orchestrators.BulkUpdateDeps{Sessions: stores.ScheduleStore})
	if err != nil {
		handleError(w, r, err)
		return
	}
	recordAudit(r, auditDomain.CategorySchedule, auditDomain.ActionUpdate, table,
		fmt.Sprintf("set %s on sessions %v", strings.Join(slices.Sorted(maps.Keys(req.Fields)), ", "), req.IDs))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Updated %d sessions", n),
		"updated": n,
	})
}

// handleMoveOptions lists the dates a session may be postponed or preponed to.
// GET /api/cohorts/{table}/sessions/{id}/move?mode=postpone
func handleMoveOptions(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	id, ok := pathPositive(w, r, "id")
	if !ok {
		return
	}
	res, err := projections.QueryGetMoveOptions(r.Context(), projections.GetMoveOptionsQuery{
		Table: table,
		ID:    id,
		Mode:  r.URL.Query().Get("mode"),
	}, projections.GetMoveOptionsDeps{
		Sessions: stores.ScheduleStore,
		Now:      timeNow,
		Location: settings.TimeZone,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"session": sessionView(res.Session),
			"mode":    res.Mode,
			"dates":   res.Dates,
		},
	})
}

type moveSessionRequest struct {
	Mode string `json:"mode" validate:"required,oneof=postpone prepone"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time string `json:"time"`
}

// handleMoveSession postpones or prepones a session.
// POST /api/cohorts/{table}/sessions/{id}/move
func handleMoveSession(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	id, ok := pathPositive(w, r, "id")
	if !ok {
		return
	}
	var req moveSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	row, err := orchestrators.ExecuteMoveSession(r.Context(), orchestrators.MoveSessionInput{
		Table:   table,
		ID:      id,
		Mode:    req.Mode,
		NewDate: req.Date,
		NewTime: req.Time,
	}, orchestrators.MoveSessionDeps{
		Sessions: stores.ScheduleStore,
		Now:      timeNow,
		Location: settings.TimeZone,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	recordAudit(r, auditDomain.CategorySchedule, auditDomain.ActionMove, fmt.Sprintf("%s#%d", table, id),
		fmt.Sprintf("%s to %s %s", req.Mode, row.Date, row.Time))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Session %sd", req.Mode),
		"data":    sessionView(row),
	})
}

// handleOpenSpans lists free date ranges around a week.
// GET /api/cohorts/{table}/weeks/{week}
func handleOpenSpans(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	week, ok := pathPositive(w, r, "week")
	if !ok {
		return
	}
	spans, err := projections.QueryGetOpenSpans(r.Context(), table, int(week), projections.GetOpenSpansDeps{
		Sessions: stores.ScheduleStore,
		Now:      timeNow,
		Location: settings.TimeZone,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": spanViews(spans)})
}

// handleDeleteWeek removes a week and pulls later weeks forward.
// DELETE /api/cohorts/{table}/weeks/{week}
func handleDeleteWeek(w http.ResponseWriter, r *http.Request) {
	table, ok := pathTable(w, r)
	if !ok {
		return
	}
	week, ok := pathPositive(w, r, "week")
	if !ok {
		return
	}
	res, err := orchestrators.ExecuteDeleteWeek(r.Context(), table, int(week), orchestrators.DeleteWeekDeps{
		Sessions: stores.ScheduleStore,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	recordAudit(r, auditDomain.CategorySchedule, auditDomain.ActionDelete, table,
		fmt.Sprintf("deleted week %d (%d rows), shifted %d rows", week, res.Deleted, res.Shifted))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Deleted week %d", week),
		"deleted": res.Deleted,
		"shifted": res.Shifted,
	})
}
