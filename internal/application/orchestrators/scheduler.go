package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single scheduled run.
const DefaultJobTimeout = 15 * time.Minute

// Job is one recurring task. Run returns a one-line summary for operators.
type Job struct {
	Name string
	Spec string // standard five-field cron expression
	Run  func(ctx context.Context) (string, error)
}

// JobRecorder records the outcome of each run (perf.Collector satisfies it).
type JobRecorder interface {
	RecordJob(name string, start time.Time, err error)
}

// OpsNotifier delivers run summaries to operators.
type OpsNotifier interface {
	Notify(ctx context.Context, text string) error
}

// Scheduler runs Jobs on their cron specs in a fixed time zone. A run that
// is still going when its next tick fires is skipped.
type Scheduler struct {
	cron     *cron.Cron
	recorder JobRecorder
	ops      OpsNotifier
	timeout  time.Duration
}

// NewScheduler builds a scheduler evaluating specs in loc.
// PRE: loc is non-nil; recorder and ops may be nil
func NewScheduler(loc *time.Location, recorder JobRecorder, ops OpsNotifier) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		recorder: recorder,
		ops:      ops,
		timeout:  DefaultJobTimeout,
	}
}

// Add registers a job.
// POST: returns an error for an unparseable cron expression; nothing is registered
func (s *Scheduler) Add(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, func() { s.RunNow(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	slog.Info("job_scheduled", "job", job.Name, "spec", job.Spec)
	return nil
}

// RunNow executes job once, records it and notifies operators.
func (s *Scheduler) RunNow(ctx context.Context, job Job) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := job.Run(ctx)
	if s.recorder != nil {
		s.recorder.RecordJob(job.Name, start, err)
	}

	text := fmt.Sprintf("%s: %s", job.Name, summary)
	if err != nil {
		slog.Error("job_failed", "job", job.Name, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		text = fmt.Sprintf("%s failed: %v", job.Name, err)
	} else {
		slog.Info("job_complete", "job", job.Name, "duration_ms", time.Since(start).Milliseconds(), "summary", summary)
	}
	if s.ops != nil {
		if nerr := s.ops.Notify(ctx, text); nerr != nil {
			slog.Warn("job_notify_failed", "job", job.Name, "error", nerr)
		}
	}
	return summary, err
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler_stop_timeout")
	}
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron_"+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}
