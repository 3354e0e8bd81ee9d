package web

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"mentordesk/internal/adapters/http/middleware"
	"mentordesk/internal/adapters/lock"
	"mentordesk/internal/adapters/storage"
	scheduleStore "mentordesk/internal/adapters/storage/schedule"
	"mentordesk/internal/application/orchestrators"
	"mentordesk/internal/domain/cohort"
	"mentordesk/internal/domain/mentor"
	"mentordesk/internal/domain/outbox"
	"mentordesk/internal/domain/schedule"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// validate checks request structs; field names in messages follow the json tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// internalError logs the real error and returns a generic message to the client.
// The client never sees err.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"error", err.Error(),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeRequest decodes and validates a JSON body into v, writing a 400 on failure.
// POST: returns false when a response has already been written
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := strictDecode(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage turns validator errors into one readable sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "Invalid fields: "+strings.Join(invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// writeError writes the failure envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// handleError maps domain and storage errors to a status. Unknown errors
// are logged and reported as a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		internalError(w, r, err)
		return
	}
	if status == http.StatusServiceUnavailable {
		slog.Warn("store_unavailable", "path", r.URL.Path, "error", err)
		writeError(w, status, "storage is busy, try again shortly")
		return
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	var parseErr *csv.ParseError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, lock.ErrLocked),
		errors.Is(err, orchestrators.ErrSessionExists),
		errors.Is(err, orchestrators.ErrEntryTerminal):
		return http.StatusConflict
	case errors.Is(err, schedule.ErrNoTemplateData),
		errors.Is(err, schedule.ErrSessionNotFound),
		errors.Is(err, storage.ErrTableNotFound),
		errors.Is(err, mentor.ErrNoMentors),
		errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, cohort.ErrEmptyType),
		errors.Is(err, cohort.ErrInvalidType),
		errors.Is(err, cohort.ErrEmptyNumber),
		errors.Is(err, cohort.ErrInvalidNumber),
		errors.Is(err, cohort.ErrInvalidTable),
		errors.Is(err, cohort.ErrTemplateTable),
		errors.Is(err, schedule.ErrUnrecognizedDay),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrInvalidWeek),
		errors.Is(err, schedule.ErrInvalidSession),
		errors.Is(err, schedule.ErrDayMismatch),
		errors.Is(err, schedule.ErrInvalidMentor),
		errors.Is(err, schedule.ErrUnknownSessionType),
		errors.Is(err, schedule.ErrInvalidMoveMode),
		errors.Is(err, schedule.ErrNothingToMove),
		errors.Is(err, schedule.ErrSessionUndated),
		errors.Is(err, schedule.ErrDateNotAvailable),
		errors.Is(err, schedule.ErrTimeDirection),
		errors.Is(err, scheduleStore.ErrUnknownColumn),
		errors.Is(err, orchestrators.ErrMissingClassDays),
		errors.Is(err, orchestrators.ErrNoSessionsSelected),
		errors.Is(err, orchestrators.ErrNoFieldValues),
		errors.Is(err, orchestrators.ErrNoExecutor),
		errors.Is(err, outbox.ErrInvalidStatus),
		errors.Is(err, orchestrators.ErrUnknownImportKind),
		errors.Is(err, orchestrators.ErrImportHeader),
		errors.As(err, &parseErr),
		errors.As(err, &tooLarge):
		return http.StatusBadRequest
	case storage.IsRetryable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// pathTable reads and validates the {table} path value.
// POST: writes a 400 and returns false for anything but a cohort schedule table
func pathTable(w http.ResponseWriter, r *http.Request) (string, bool) {
	table := r.PathValue("table")
	if !cohort.IsScheduleTable(table) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q", cohort.ErrInvalidTable, table))
		return "", false
	}
	return table, true
}

// pathPositive reads a positive integer path value, writing a 400 otherwise.
func pathPositive(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return n, true
}
