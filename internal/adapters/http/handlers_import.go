package web

import (
	"fmt"
	"net/http"
	"strconv"

	"mentordesk/internal/application/orchestrators"
	auditDomain "mentordesk/internal/domain/audit"
	"mentordesk/internal/domain/cohort"
)

// maxImportBytes caps CSV uploads.
const maxImportBytes = 5 << 20

// handleImport loads mentors, students or a curriculum template from a CSV body.
// POST /api/admin/import/{kind}?cohortType=basic&dryRun=true
func handleImport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dryRun := false
	if s := q.Get("dryRun"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dryRun must be true or false")
			return
		}
		dryRun = v
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := orchestrators.ExecuteImportRoster(r.Context(), orchestrators.ImportRosterInput{
		Kind:       r.PathValue("kind"),
		CohortType: q.Get("cohortType"),
		Reader:     r.Body,
		DryRun:     dryRun,
	}, orchestrators.ImportRosterDeps{
		Mentors:   stores.MentorStore,
		Students:  stores.StudentStore,
		Templates: stores.TemplateStore,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	if !dryRun && res.Saved > 0 {
		resource := res.Kind
		if res.Kind == orchestrators.ImportTemplate {
			resource = cohort.TemplateKey(r.URL.Query().Get("cohortType"))
		}
		recordAudit(r, auditDomain.CategoryRoster, auditDomain.ActionImport, resource,
			fmt.Sprintf("imported %d of %d rows", res.Saved, res.Total))
	}

	status := http.StatusOK
	if len(res.Errors) > 0 && res.Saved == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{"success": status == http.StatusOK, "data": res})
}
