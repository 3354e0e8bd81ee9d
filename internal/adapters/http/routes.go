package web

import (
	"net/http"

	"mentordesk/internal/adapters/http/middleware"
	"mentordesk/internal/config"
)

// registerRoutes mounts every endpoint. Editing and admin routes take the
// admin secret; the scheduler triggers also accept the cron secret.
func registerRoutes(mux *http.ServeMux, cfg config.Config) {
	admin := middleware.BearerAuth(
		middleware.Secret{Caller: middleware.CallerAdmin, Hash: cfg.AdminSecretHash},
	)
	cron := middleware.BearerAuth(
		middleware.Secret{Caller: middleware.CallerCron, Hash: cfg.CronSecretHash},
		middleware.Secret{Caller: middleware.CallerAdmin, Hash: cfg.AdminSecretHash},
	)
	adminFunc := func(h http.HandlerFunc) http.Handler { return admin(h) }
	cronFunc := func(h http.HandlerFunc) http.Handler { return cron(h) }

	mux.HandleFunc("GET /healthz", handleHealthz)

	// Cohort schedules
	mux.Handle("POST /api/cohorts", adminFunc(handleCreateCohort))
	mux.Handle("GET /api/cohort-tables", adminFunc(handleListCohortTables))
	mux.Handle("GET /api/cohorts/{table}/sessions", adminFunc(handleListSessions))
	mux.Handle("POST /api/cohorts/{table}/sessions", adminFunc(handleAddSession))
	mux.Handle("POST /api/cohorts/{table}/sessions/bulk-update", adminFunc(handleBulkUpdate))
	mux.Handle("GET /api/cohorts/{table}/sessions/{id}/move", adminFunc(handleMoveOptions))
	mux.Handle("POST /api/cohorts/{table}/sessions/{id}/move", adminFunc(handleMoveSession))
	mux.Handle("GET /api/cohorts/{table}/weeks/{week}", adminFunc(handleOpenSpans))
	mux.Handle("DELETE /api/cohorts/{table}/weeks/{week}", adminFunc(handleDeleteWeek))

	// Mentor attendance
	mux.Handle("POST /api/mentor-attendance", adminFunc(handleCalculateAttendance))
	mux.Handle("GET /api/mentor-attendance", adminFunc(handleGetAttendance))
	mux.Handle("GET /api/mentor-attendance/export.xlsx", adminFunc(handleExportAttendance))

	// Scheduler triggers; GET for cron services that cannot POST
	for _, method := range []string{"GET", "POST"} {
		mux.Handle(method+" /api/scheduler/generate-meetings", cronFunc(handleGenerateMeetings))
		mux.Handle(method+" /api/scheduler/send-notifications", cronFunc(handleSendNotifications))
	}

	// Operations
	mux.Handle("GET /api/admin/outbox", adminFunc(handleListOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/{action}", adminFunc(handleOutboxAction))
	mux.Handle("GET /api/admin/perf", adminFunc(handlePerf))
	mux.Handle("POST /api/admin/import/{kind}", adminFunc(handleImport))
	mux.Handle("GET /api/admin/audit", adminFunc(handleListAudit))
}
