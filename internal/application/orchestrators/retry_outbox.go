package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mentordesk/internal/adapters/email"
	"mentordesk/internal/adapters/meeting"
	outboxStore "mentordesk/internal/adapters/storage/outbox"
	domain "mentordesk/internal/domain/outbox"
)

// Outbox processing defaults.
const (
	DefaultOutboxBaseDelay = 30 * time.Second
	DefaultOutboxMaxDelay  = time.Hour
	DefaultOutboxBatchSize = 20
	DefaultOutboxRetention = 30 * 24 * time.Hour
)

// Operator action errors.
var (
	ErrEntryTerminal = errors.New("outbox entry is in a terminal state")
	ErrNoExecutor    = errors.New("no executor registered for action type")
)

// ActionExecutor replays one kind of external call.
type ActionExecutor interface {
	// Execute runs the action described by payload and returns the
	// external ID (meeting join URL, provider message ID).
	Execute(ctx context.Context, payload string) (string, error)
}

// ResumeError is returned by an executor that completed part of its action
// before failing. The processor stores Payload on the entry so the next
// attempt starts from the remaining step.
type ResumeError struct {
	Payload string
	Err     error
}

func (e *ResumeError) Error() string { return e.Err.Error() }

func (e *ResumeError) Unwrap() error { return e.Err }

// OutboxProcessor replays queued meeting creations and reminder emails
// with exponential backoff.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a processor with the default backoff.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, now func() time.Time) *OutboxProcessor {
	if now == nil {
		now = time.Now
	}
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       now,
		baseDelay: DefaultOutboxBaseDelay,
		maxDelay:  DefaultOutboxMaxDelay,
		batchSize: DefaultOutboxBatchSize,
	}
}

// OutboxRunResult counts what one ProcessPending pass did.
type OutboxRunResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Deferred  int
}

// ProcessPending attempts every pending entry whose backoff has elapsed.
// PRE: Context is valid
// POST: attempted entries are saved with their new status; a failure on
// one entry does not stop the pass
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (OutboxRunResult, error) {
	var res OutboxRunResult
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return res, fmt.Errorf("list pending outbox entries: %w", err)
	}

	now := p.now()
	for _, entry := range entries {
		if !entry.DueAt(now, p.baseDelay, p.maxDelay) {
			res.Deferred++
			continue
		}
		res.Attempted++
		ok, err := p.attempt(ctx, &entry)
		if err != nil {
			slog.Error("outbox_save_failed", "entry_id", entry.ID, "error", err)
		}
		if ok {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	if res.Attempted > 0 {
		slog.Info("outbox_pass_complete", "attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed, "deferred", res.Deferred)
	}
	return res, nil
}

// attempt executes one entry and saves it. It reports whether the action succeeded.
func (p *OutboxProcessor) attempt(ctx context.Context, entry *domain.Entry) (bool, error) {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("%w: %s", ErrNoExecutor, entry.ActionType))
		return false, p.store.Save(ctx, *entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		var resume *ResumeError
		if errors.As(err, &resume) {
			entry.Payload = resume.Payload
		}
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "attempt", entry.Attempts, "error", err)
		return false, p.store.Save(ctx, *entry)
	}
	entry.MarkSuccess(externalID)
	slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	return true, p.store.Save(ctx, *entry)
}

// ProcessSingle attempts one entry immediately, ignoring backoff.
// PRE: entryID is non-empty
// POST: entry is attempted and saved; terminal entries are refused
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrEntryTerminal, entryID)
	}
	if _, ok := p.executors[entry.ActionType]; !ok {
		return fmt.Errorf("%w: %s", ErrNoExecutor, entry.ActionType)
	}
	_, err = p.attempt(ctx, &entry)
	return err
}

// AbandonEntry marks an entry as abandoned by an operator.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// Prune deletes done and abandoned entries older than retention.
func (p *OutboxProcessor) Prune(ctx context.Context, retention time.Duration) (int, error) {
	n, err := p.store.PruneDone(ctx, p.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune outbox: %w", err)
	}
	if n > 0 {
		slog.Info("outbox_pruned", "deleted", n)
	}
	return n, nil
}

// MeetingLinkWriter stores a join URL on a cohort row.
type MeetingLinkWriter interface {
	SetMeetingLink(ctx context.Context, table string, id int64, link string) error
}

// MeetingExecutor replays MeetingPayload entries.
type MeetingExecutor struct {
	Creator   meeting.Creator
	Schedules MeetingLinkWriter
}

// Execute creates the meeting and stores its join URL on the row. A payload
// that already carries a JoinURL only retries the row write.
// PRE: payload is a JSON MeetingPayload
// POST: returns the join URL; a stored-link failure after creation returns
// a *ResumeError whose payload carries the new JoinURL
// INVARIANT: outbox entry status managed by caller
func (e *MeetingExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p MeetingPayload
	entry := domain.Entry{ActionType: domain.ActionTypeMeeting, Payload: payload}
	if err := entry.DecodePayload(&p); err != nil {
		return "", err
	}

	created := false
	if p.JoinURL == "" {
		loc, err := time.LoadLocation(p.TimeZone)
		if err != nil {
			return "", fmt.Errorf("meeting time zone %q: %w", p.TimeZone, err)
		}
		link, err := e.Creator.CreateMeeting(ctx, meeting.Request{
			Subject:   p.Subject,
			Start:     p.Start.In(loc),
			End:       p.End.In(loc),
			Location:  loc,
			Attendees: p.Attendees,
		})
		if err != nil {
			return "", err
		}
		p.JoinURL, created = link, true
	}

	if err := e.Schedules.SetMeetingLink(ctx, p.Table, p.SessionID, p.JoinURL); err != nil {
		err = fmt.Errorf("store meeting link: %w", err)
		if created {
			b, mErr := json.Marshal(p)
			if mErr != nil {
				return "", errors.Join(err, mErr)
			}
			return "", &ResumeError{Payload: string(b), Err: err}
		}
		return "", err
	}
	return p.JoinURL, nil
}

// ReminderExecutor replays ReminderPayload entries.
type ReminderExecutor struct {
	Sender email.Sender
}

// Execute sends the stored reminder email.
// PRE: payload is a JSON ReminderPayload
// POST: returns the provider message ID
// INVARIANT: outbox entry status managed by caller
func (e *ReminderExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p ReminderPayload
	entry := domain.Entry{ActionType: domain.ActionTypeReminder, Payload: payload}
	if err := entry.DecodePayload(&p); err != nil {
		return "", err
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{To: p.To, Subject: p.Subject, HTML: p.HTML, Tag: p.Tag})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// StartBackgroundWorker processes pending outbox entries every interval
// and prunes old ones once a day.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var lastPrune time.Time

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err)
				}
				if time.Since(lastPrune) >= 24*time.Hour {
					if _, err := processor.Prune(ctx, DefaultOutboxRetention); err != nil {
						slog.Error("outbox_background_prune_failed", "error", err)
					}
					lastPrune = time.Now()
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
