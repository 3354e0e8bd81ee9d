package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mentordesk/internal/application/projections"
	auditDomain "mentordesk/internal/domain/audit"
)

// handleListOutbox lists queued external actions with per-status counts.
// GET /api/admin/outbox?status=failed&limit=50
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	res, err := projections.QueryGetOutboxOverview(r.Context(), projections.GetOutboxOverviewQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
	}, projections.GetOutboxOverviewDeps{Outbox: stores.OutboxStore})
	if err != nil {
		handleError(w, r, err)
		return
	}
	data := make([]outboxEntryJSON, 0, len(res.Entries))
	for _, e := range res.Entries {
		data = append(data, outboxEntryView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "counts": res.Counts, "data": data})
}

// handleOutboxAction retries or abandons one outbox entry.
// POST /api/admin/outbox/{id}/{action}
func handleOutboxAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if services.Processor == nil {
		writeError(w, http.StatusServiceUnavailable, "outbox processor is not running")
		return
	}

	var err error
	var auditAction auditDomain.Action
	switch action := r.PathValue("action"); action {
	case "retry":
		auditAction = auditDomain.ActionRetry
		err = services.Processor.ProcessSingle(ctx, id)
	case "abandon":
		auditAction = auditDomain.ActionAbandon
		err = services.Processor.AbandonEntry(ctx, id)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", action))
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	// ProcessSingle only fails on storage; the attempt outcome is on the entry.
	entry, err := stores.OutboxStore.GetByID(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	recordAudit(r, auditDomain.CategoryOutbox, auditAction, id, entry.ActionType+" entry is now "+entry.Status)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Entry is now " + entry.Status,
		"data":    outboxEntryView(entry),
	})
}

// handlePerf returns request, query and job timings for the last N minutes.
// GET /api/admin/perf?minutes=60
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if services.Collector == nil {
		writeError(w, http.StatusServiceUnavailable, "timing is disabled")
		return
	}
	minutes := 60
	if s := r.URL.Query().Get("minutes"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 24*60 {
			writeError(w, http.StatusBadRequest, "minutes must be between 1 and 1440")
			return
		}
		minutes = n
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"minutes": minutes,
		"data":    services.Collector.Snapshot(since, 10),
	})
}

// handleHealthz reports whether the database answers.
// GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if services.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := services.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}
