package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mentordesk/internal/adapters/http/middleware"
	auditStore "mentordesk/internal/adapters/storage/audit"
	auditDomain "mentordesk/internal/domain/audit"
)

// recordAudit appends an audit event for a change that has already succeeded.
// A failed write is logged and does not fail the request.
func recordAudit(r *http.Request, category auditDomain.Category, action auditDomain.Action, resource, desc string) {
	if stores.AuditStore == nil {
		return
	}
	actor, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		actor = "anonymous"
	}
	ev := auditDomain.NewEvent(generateID(), timeNow(), category, action, actor).
		WithResource(resource).
		WithDescription(desc).
		WithRequest(middleware.ClientIP(r), r.UserAgent())
	if err := stores.AuditStore.Save(r.Context(), ev); err != nil {
		slog.Error("audit_write_failed",
			"category", category,
			"action", action,
			"resource", resource,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
}

type auditEventJSON struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Category    string `json:"category"`
	Action      string `json:"action"`
	Actor       string `json:"actor"`
	Resource    string `json:"resource,omitempty"`
	Description string `json:"description,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// handleListAudit returns the admin audit trail, newest first.
// GET /api/admin/audit?category=schedule&action=move&resource=basic1_1_schedule&since=2024-01-01&limit=100
func handleListAudit(w http.ResponseWriter, r *http.Request) {
	if stores.AuditStore == nil {
		writeError(w, http.StatusServiceUnavailable, "audit trail is not configured")
		return
	}
	q := r.URL.Query()
	filter := auditStore.Filter{
		Category: auditDomain.Category(q.Get("category")),
		Action:   auditDomain.Action(q.Get("action")),
		Resource: q.Get("resource"),
	}
	if s := q.Get("since"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, settings.TimeZone)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a YYYY-MM-DD date")
			return
		}
		filter.Since = d
	}
	limit := 100
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	events, err := stores.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	data := make([]auditEventJSON, 0, len(events))
	for _, e := range events {
		data = append(data, auditEventJSON{
			ID:          e.ID,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
			Category:    string(e.Category),
			Action:      string(e.Action),
			Actor:       e.Actor,
			Resource:    e.Resource,
			Description: e.Description,
			IPAddress:   e.IPAddress,
			UserAgent:   e.UserAgent,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}
