// Package meeting creates online meetings for scheduled cohort sessions.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNoJoinURL is returned when the provider accepted the request but sent no link.
var ErrNoJoinURL = errors.New("meeting created without a join URL")

// Request describes one meeting to create.
type Request struct {
	Subject   string
	Start     time.Time // wall-clock time in Location
	End       time.Time
	Location  *time.Location
	Attendees []string
}

// Validate checks the request before any provider call.
func (r Request) Validate() error {
	if r.Subject == "" {
		return errors.New("meeting subject is required")
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("meeting end %s must be after start %s", r.End, r.Start)
	}
	return nil
}

// Creator creates a meeting and returns its join URL.
type Creator interface {
	CreateMeeting(ctx context.Context, req Request) (string, error)
}

// NoopCreator returns placeholder links. Used when no provider is configured.
type NoopCreator struct {
	BaseURL string
}

// CreateMeeting logs the request and returns BaseURL plus a random id.
func (c NoopCreator) CreateMeeting(_ context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	base := c.BaseURL
	if base == "" {
		base = "https://meet.invalid/"
	}
	link := base + uuid.NewString()
	slog.Info("noop_meeting_created", "subject", req.Subject, "attendees", len(req.Attendees), "link", link)
	return link, nil
}
