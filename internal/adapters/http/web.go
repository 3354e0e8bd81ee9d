package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"mentordesk/internal/adapters/email"
	"mentordesk/internal/adapters/http/middleware"
	"mentordesk/internal/adapters/http/perf"
	"mentordesk/internal/adapters/lock"
	"mentordesk/internal/adapters/meeting"
	attendanceStore "mentordesk/internal/adapters/storage/attendance"
	auditStore "mentordesk/internal/adapters/storage/audit"
	"mentordesk/internal/adapters/storage/catalog"
	mentorStore "mentordesk/internal/adapters/storage/mentor"
	outboxStore "mentordesk/internal/adapters/storage/outbox"
	scheduleStore "mentordesk/internal/adapters/storage/schedule"
	studentStore "mentordesk/internal/adapters/storage/student"
	templateStore "mentordesk/internal/adapters/storage/template"
	"mentordesk/internal/application/orchestrators"
	"mentordesk/internal/config"
)

// Stores holds all storage dependencies.
type Stores struct {
	ScheduleStore   scheduleStore.Store
	TemplateStore   templateStore.Store
	MentorStore     mentorStore.Store
	StudentStore    studentStore.Store
	AttendanceStore attendanceStore.Store
	OutboxStore     outboxStore.Store
	AuditStore      auditStore.Store // optional; nil disables the audit trail
	Catalog         catalog.Catalog
}

// Services holds the external collaborators the handlers and jobs call.
type Services struct {
	Locker    lock.Locker
	Sender    email.Sender
	Creator   meeting.Creator
	Processor *orchestrators.OutboxProcessor
	Collector *perf.Collector
	Ping      func(ctx context.Context) error // database health; nil skips the check
	Done      <-chan struct{}                 // closed on shutdown
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global services (set by NewMux)
var services Services

// Global settings (set by NewMux)
var settings config.Config

// loadCSRFKey decodes the configured key, or generates one per process
// outside production.
func loadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("MENTORDESK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("MENTORDESK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set MENTORDESK_CSRF_KEY so form tokens survive restarts")
	return key, nil
}

// NewMux wires HTTP handlers for the app.
// PRE: s has every store set; svc.Sender and svc.Creator are set
// POST: returns the handler with the full middleware chain applied
func NewMux(s *Stores, svc Services, cfg config.Config) (http.Handler, error) {
	stores = s
	services = svc
	settings = cfg

	csrfKey, err := loadCSRFKey(cfg.CSRFKey, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	limiter := middleware.NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst)
	limiter.StartSweeper(svc.Done)

	mux := http.NewServeMux()
	registerRoutes(mux, cfg)

	// Applied inner to outer: Timing is outermost so rejected requests are timed too.
	return middleware.Chain(mux,
		middleware.Recover,
		middleware.RateLimit(limiter),
		middleware.CSRF(csrfKey, cfg.IsProduction(), cfg.TrustedOrigins),
		middleware.SecurityHeaders,
		middleware.Timing(svc.Collector),
	), nil
}
