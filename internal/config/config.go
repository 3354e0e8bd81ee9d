// Package config loads runtime settings from MENTORDESK_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service and its jobs.
type Config struct {
	Env      string // development or production
	Addr     string
	DBPath   string
	LogLevel slog.Level

	TimeZone        *time.Location
	DefaultMentorID int64 // mentor reminded when a row has no mentor

	// Meeting generation
	MeetingHorizonDays int
	MeetingDuration    time.Duration
	MeetingDefaultTime string // used when a row has no time

	// Email
	ResendKey      string
	EmailFrom      string
	EmailReplyTo   string
	EmailPerSecond float64
	EmailBurst     int

	// Microsoft Graph (meetings); all empty means links are placeholders
	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	GraphOrganizerID  string

	RedisAddr     string
	RedisPassword string

	TelegramToken  string
	TelegramChatID int64

	// bcrypt hashes of the bearer secrets
	CronSecretHash  string
	AdminSecretHash string

	// HTTP hardening
	CSRFKey        string // 64 hex characters
	TrustedOrigins []string
	RatePerSecond  float64
	RateBurst      int

	CronEnabled           bool
	CronMeetingsSpec      string
	CronNotificationsSpec string
	CronAttendanceSpec    string
	OutboxInterval        time.Duration

	// ScheduleTables pins the cohort tables; empty means discover from the database.
	ScheduleTables []string
}

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
// PRE: getenv returns "" for unset keys
// POST: Returns a validated Config or the first parse/validation error
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	c := Config{
		Env:    p.str("MENTORDESK_ENV", "development"),
		Addr:   p.str("MENTORDESK_ADDR", ":8080"),
		DBPath: p.str("MENTORDESK_DB_PATH", "mentordesk.db"),

		DefaultMentorID: p.int64Of("MENTORDESK_DEFAULT_MENTOR_ID", 0),

		MeetingHorizonDays: p.intOf("MENTORDESK_MEETING_HORIZON_DAYS", 7),
		MeetingDuration:    p.durationOf("MENTORDESK_MEETING_DURATION", 90*time.Minute),
		MeetingDefaultTime: p.str("MENTORDESK_MEETING_DEFAULT_TIME", "19:00:00"),

		ResendKey:      getenv("MENTORDESK_RESEND_KEY"),
		EmailFrom:      p.str("MENTORDESK_EMAIL_FROM", "Mentor Desk <noreply@mentordesk.local>"),
		EmailReplyTo:   getenv("MENTORDESK_EMAIL_REPLY_TO"),
		EmailPerSecond: p.floatOf("MENTORDESK_EMAIL_PER_SECOND", 2),
		EmailBurst:     p.intOf("MENTORDESK_EMAIL_BURST", 1),

		GraphTenantID:     getenv("MS_TENANT_ID"),
		GraphClientID:     getenv("MS_CLIENT_ID"),
		GraphClientSecret: getenv("MS_CLIENT_SECRET"),
		GraphOrganizerID:  getenv("MS_ORGANIZER_USER_ID"),

		RedisAddr:     getenv("MENTORDESK_REDIS_ADDR"),
		RedisPassword: getenv("MENTORDESK_REDIS_PASSWORD"),

		TelegramToken:  getenv("MENTORDESK_TELEGRAM_TOKEN"),
		TelegramChatID: p.int64Of("MENTORDESK_TELEGRAM_CHAT_ID", 0),

		CronSecretHash:  getenv("MENTORDESK_CRON_SECRET_HASH"),
		AdminSecretHash: getenv("MENTORDESK_ADMIN_SECRET_HASH"),

		CSRFKey:        getenv("MENTORDESK_CSRF_KEY"),
		TrustedOrigins: p.listOf("MENTORDESK_TRUSTED_ORIGINS"),
		RatePerSecond:  p.floatOf("MENTORDESK_RATE_PER_SECOND", 10),
		RateBurst:      p.intOf("MENTORDESK_RATE_BURST", 20),

		CronEnabled:           p.boolOf("MENTORDESK_CRON_ENABLED", true),
		CronMeetingsSpec:      p.str("MENTORDESK_CRON_MEETINGS", "0 6 * * *"),
		CronNotificationsSpec: p.str("MENTORDESK_CRON_NOTIFICATIONS", "0 8 * * *"),
		CronAttendanceSpec:    p.str("MENTORDESK_CRON_ATTENDANCE", "30 23 * * *"),
		OutboxInterval:        p.durationOf("MENTORDESK_OUTBOX_INTERVAL", time.Minute),

		ScheduleTables: p.listOf("MENTORDESK_SCHEDULE_TABLES"),
	}

	level := p.str("MENTORDESK_LOG_LEVEL", "info")
	if err := c.LogLevel.UnmarshalText([]byte(level)); err != nil {
		p.fail("MENTORDESK_LOG_LEVEL", level, err)
	}
	zone := p.str("MENTORDESK_TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		p.fail("MENTORDESK_TIMEZONE", zone, err)
	}
	c.TimeZone = loc

	if p.err != nil {
		return Config{}, p.err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints.
// POST: Returns nil if the Config can start the service
func (c Config) Validate() error {
	var errs []error
	if c.MeetingHorizonDays < 0 {
		errs = append(errs, errors.New("meeting horizon days cannot be negative"))
	}
	if c.MeetingDuration <= 0 {
		errs = append(errs, errors.New("meeting duration must be positive"))
	}
	if _, err := time.Parse("15:04:05", c.MeetingDefaultTime); err != nil {
		errs = append(errs, fmt.Errorf("meeting default time must be HH:MM:SS: %q", c.MeetingDefaultTime))
	}
	if c.EmailPerSecond <= 0 || c.EmailBurst < 1 {
		errs = append(errs, errors.New("email rate and burst must be positive"))
	}
	if c.DefaultMentorID < 0 {
		errs = append(errs, errors.New("default mentor id cannot be negative"))
	}
	if c.GraphConfigured() && (c.GraphClientID == "" || c.GraphClientSecret == "" || c.GraphOrganizerID == "") {
		errs = append(errs, errors.New("MS_TENANT_ID requires MS_CLIENT_ID, MS_CLIENT_SECRET and MS_ORGANIZER_USER_ID"))
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		errs = append(errs, errors.New("MENTORDESK_TELEGRAM_TOKEN requires MENTORDESK_TELEGRAM_CHAT_ID"))
	}
	if c.IsProduction() && (c.CronSecretHash == "" || c.AdminSecretHash == "") {
		errs = append(errs, errors.New("production requires MENTORDESK_CRON_SECRET_HASH and MENTORDESK_ADMIN_SECRET_HASH"))
	}
	if c.IsProduction() && c.CSRFKey == "" {
		errs = append(errs, errors.New("production requires MENTORDESK_CSRF_KEY"))
	}
	if c.RatePerSecond <= 0 || c.RateBurst < 1 {
		errs = append(errs, errors.New("request rate and burst must be positive"))
	}
	if c.OutboxInterval <= 0 {
		errs = append(errs, errors.New("outbox interval must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// GraphConfigured reports whether Microsoft Graph meetings are enabled.
func (c Config) GraphConfigured() bool {
	return c.GraphTenantID != ""
}

// parser collects the first parse error so FromEnv reads top to bottom.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s=%q: %w", key, value, err)
	}
}

func (p *parser) str(key, fallback string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (p *parser) intOf(key string, fallback int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return n
}

func (p *parser) int64Of(key string, fallback int64) int64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return n
}

func (p *parser) floatOf(key string, fallback float64) float64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return f
}

func (p *parser) boolOf(key string, fallback bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return b
}

func (p *parser) durationOf(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return d
}

func (p *parser) listOf(key string) []string {
	var out []string
	for _, part := range strings.Split(p.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
