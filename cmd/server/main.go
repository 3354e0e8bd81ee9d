package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"mentordesk/internal/adapters/email"
	web "mentordesk/internal/adapters/http"
	"mentordesk/internal/adapters/http/perf"
	"mentordesk/internal/adapters/lock"
	"mentordesk/internal/adapters/meeting"
	"mentordesk/internal/adapters/notify"
	"mentordesk/internal/adapters/storage"
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
	"mentordesk/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs JSON logs in production and text logs elsewhere.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h).With("version", version))
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, busy timeout and synchronous NORMAL for concurrent readers.
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}
	slog.Info("database_ready", "path", cfg.DBPath, "schema", storage.LatestSchemaVersion())

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	var tables catalog.Catalog = catalog.NewSQLiteCatalog(timedDB)
	if len(cfg.ScheduleTables) > 0 {
		static, err := catalog.NewStaticCatalog(cfg.ScheduleTables)
		if err != nil {
			return err
		}
		tables = static
	}

	schedules := scheduleStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		ScheduleStore:   schedules,
		TemplateStore:   templateStore.NewSQLiteStore(timedDB),
		MentorStore:     mentorStore.NewSQLiteStore(timedDB),
		StudentStore:    studentStore.NewSQLiteStore(timedDB),
		AttendanceStore: attendanceStore.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStore.NewSQLiteStore(timedDB),
		AuditStore:      auditStore.NewSQLiteStore(timedDB),
		Catalog:         tables,
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisAddr != "" {
		rl, err := lock.NewRedisLocker(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rl.Close()
		locker = rl
		slog.Info("locker_configured", "backend", "redis", "addr", cfg.RedisAddr)
	}

	var sender email.Sender = email.NewNoopSender()
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.EmailReplyTo)
		slog.Info("email_configured", "backend", "resend")
	} else if cfg.IsProduction() {
		slog.Warn("email_disabled", "hint", "MENTORDESK_RESEND_KEY is not set; reminders are logged only")
	}
	sender = email.NewThrottledSender(sender, cfg.EmailPerSecond, cfg.EmailBurst)

	var creator meeting.Creator = meeting.NoopCreator{}
	if cfg.GraphConfigured() {
		gc, err := meeting.NewGraphCreator(ctx, meeting.GraphConfig{
			TenantID:     cfg.GraphTenantID,
			ClientID:     cfg.GraphClientID,
			ClientSecret: cfg.GraphClientSecret,
			OrganizerID:  cfg.GraphOrganizerID,
		})
		if err != nil {
			return err
		}
		creator = gc
		slog.Info("meetings_configured", "backend", "graph")
	}

	var ops notify.Ops = notify.LogOps{}
	if cfg.TelegramToken != "" {
		t, err := notify.NewTelegramOps(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Warn("telegram_unavailable", "error", err)
		} else {
			ops = t
		}
	}

	done := make(chan struct{})
	defer close(done)

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeMeeting:  &orchestrators.MeetingExecutor{Creator: creator, Schedules: schedules},
		outbox.ActionTypeReminder: &orchestrators.ReminderExecutor{Sender: sender},
	}, time.Now)
	orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, done)

	handler, err := web.NewMux(stores, web.Services{
		Locker:    locker,
		Sender:    sender,
		Creator:   creator,
		Processor: processor,
		Collector: collector,
		Ping:      timedDB.PingContext,
		Done:      done,
	}, cfg)
	if err != nil {
		return err
	}

	if cfg.CronEnabled {
		sched := orchestrators.NewScheduler(cfg.TimeZone, collector, ops)
		for _, job := range web.ScheduledJobs() {
			if err := sched.Add(job); err != nil {
				return err
			}
		}
		sched.Start()
		defer sched.Stop(context.Background())
		slog.Info("scheduler_started", "time_zone", cfg.TimeZone.String())
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", cfg.Addr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
