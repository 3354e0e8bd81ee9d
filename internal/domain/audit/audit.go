package audit

import (
	"errors"
	"time"
)

// Category groups audit events by what was touched.
type Category string

const (
	CategorySchedule   Category = "schedule"
	CategoryAttendance Category = "attendance"
	CategoryRoster     Category = "roster"
	CategoryOutbox     Category = "outbox"
)

// Action is what the caller did.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionMove        Action = "move"
	ActionDelete      Action = "delete"
	ActionRecalculate Action = "recalculate"
	ActionImport      Action = "import"
	ActionRetry       Action = "retry"
	ActionAbandon     Action = "abandon"
)

var (
	ErrEmptyID       = errors.New("audit event id is required")
	ErrEmptyCategory = errors.New("audit category is required")
	ErrEmptyAction   = errors.New("audit action is required")
)

// Event is one recorded change made through the admin API.
type Event struct {
	ID          string
	Timestamp   time.Time
	Category    Category
	Action      Action
	Actor       string // authenticated caller, or "anonymous" when auth is off
	Resource    string // cohort table, "table#id", mentor roster, outbox entry id
	Description string
	IPAddress   string
	UserAgent   string
}

// NewEvent builds an event stamped at now.
func NewEvent(id string, now time.Time, category Category, action Action, actor string) Event {
	return Event{
		ID:        id,
		Timestamp: now.UTC(),
		Category:  category,
		Action:    action,
		Actor:     actor,
	}
}

// WithResource sets the affected resource.
func (e Event) WithResource(resource string) Event {
	e.Resource = resource
	return e
}

// WithDescription sets the human readable summary.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets the caller's address and user agent.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// Validate checks the fields every stored event needs.
func (e Event) Validate() error {
	switch {
	case e.ID == "":
		return ErrEmptyID
	case e.Category == "":
		return ErrEmptyCategory
	case e.Action == "":
		return ErrEmptyAction
	}
	return nil
}
