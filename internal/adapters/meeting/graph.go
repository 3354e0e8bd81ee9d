package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	graphScope      = "https://graph.microsoft.com/.default"
	graphDateLayout = "2006-01-02T15:04:05"
)

// GraphConfig holds Microsoft Graph application credentials.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	OrganizerID  string // user id or UPN that owns the meetings
	BaseURL      string // defaults to the public Graph v1.0 endpoint
	TokenURL     string // defaults to the tenant's v2.0 token endpoint
}

// GraphCreator creates Teams meetings as calendar events on the organizer's
// calendar, falling back to a bare online meeting when event creation fails.
type GraphCreator struct {
	client    *http.Client
	baseURL   string
	organizer string
}

// NewGraphCreator builds a creator authenticated with the client credentials flow.
// PRE: TenantID, ClientID, ClientSecret and OrganizerID are set
// POST: Token acquisition is deferred to the first request
func NewGraphCreator(ctx context.Context, cfg GraphConfig) (*GraphCreator, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.OrganizerID == "" {
		return nil, fmt.Errorf("graph meeting creator: tenant, client id, client secret and organizer are required")
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://login.microsoftonline.com/" + url.PathEscape(cfg.TenantID) + "/oauth2/v2.0/token"
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultGraphURL
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{graphScope},
	}
	client := cc.Client(ctx)
	client.Timeout = 30 * time.Second
	return &GraphCreator{
		client:    client,
		baseURL:   strings.TrimRight(base, "/"),
		organizer: url.PathEscape(cfg.OrganizerID),
	}, nil
}

type graphTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphAttendee struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
	Type string `json:"type"`
}

type eventRequest struct {
	Subject               string          `json:"subject"`
	Start                 graphTime       `json:"start"`
	End                   graphTime       `json:"end"`
	IsOnlineMeeting       bool            `json:"isOnlineMeeting"`
	OnlineMeetingProvider string          `json:"onlineMeetingProvider"`
	Attendees             []graphAttendee `json:"attendees"`
	ResponseRequested     bool            `json:"responseRequested"`
	AllowNewTimeProposals bool            `json:"allowNewTimeProposals"`
}

type eventResponse struct {
	ID            string `json:"id"`
	OnlineMeeting *struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
}

type lobbyBypass struct {
	Scope                 string `json:"scope"`
	IsDialInBypassEnabled bool   `json:"isDialInBypassEnabled"`
}

type onlineMeetingRequest struct {
	StartDateTime       string      `json:"startDateTime"`
	EndDateTime         string      `json:"endDateTime"`
	Subject             string      `json:"subject"`
	LobbyBypassSettings lobbyBypass `json:"lobbyBypassSettings"`
	AutoAdmittedUsers   string      `json:"autoAdmittedUsers"`
	AllowedPresenters   string      `json:"allowedPresenters"`
	RecordAutomatically bool        `json:"recordAutomatically"`
}

type onlineMeetingResponse struct {
	ID         string `json:"id"`
	JoinWebURL string `json:"joinWebUrl"`
	JoinURL    string `json:"joinUrl"`
}

// CreateMeeting creates a calendar event with a Teams meeting and asks Graph
// to record it. If the event cannot be created, a standalone online meeting
// is created instead; attendees are then not invited by Graph.
// POST: Returns a non-empty join URL or an error
func (g *GraphCreator) CreateMeeting(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	link, err := g.createEvent(ctx, req)
	if err == nil {
		return link, nil
	}
	slog.Warn("graph_event_failed_fallback", "subject", req.Subject, "error", err)

	link, fallbackErr := g.createOnlineMeeting(ctx, req)
	if fallbackErr != nil {
		return "", fmt.Errorf("create meeting %q: event: %v; online meeting: %w", req.Subject, err, fallbackErr)
	}
	return link, nil
}

func (g *GraphCreator) createEvent(ctx context.Context, req Request) (string, error) {
	zone := locationName(req.Location)
	body := eventRequest{
		Subject:               req.Subject,
		Start:                 graphTime{DateTime: req.Start.Format(graphDateLayout), TimeZone: zone},
		End:                   graphTime{DateTime: req.End.Format(graphDateLayout), TimeZone: zone},
		IsOnlineMeeting:       true,
		OnlineMeetingProvider: "teamsForBusiness",
		Attendees:             make([]graphAttendee, 0, len(req.Attendees)),
	}
	for _, addr := range req.Attendees {
		var a graphAttendee
		a.EmailAddress.Address = addr
		a.Type = "required"
		body.Attendees = append(body.Attendees, a)
	}

	var resp eventResponse
	if err := g.do(ctx, http.MethodPost, "/users/"+g.organizer+"/events", body, &resp); err != nil {
		return "", err
	}
	if resp.OnlineMeeting == nil || resp.OnlineMeeting.JoinURL == "" {
		return "", ErrNoJoinURL
	}

	// Recording is best effort; the meeting is usable without it.
	patch := map[string]bool{"recordAutomatically": true}
	if err := g.do(ctx, http.MethodPatch, "/users/"+g.organizer+"/onlineMeetings/"+url.PathEscape(resp.ID), patch, nil); err != nil {
		slog.Warn("graph_enable_recording_failed", "event_id", resp.ID, "error", err)
	}
	return resp.OnlineMeeting.JoinURL, nil
}

func (g *GraphCreator) createOnlineMeeting(ctx context.Context, req Request) (string, error) {
	body := onlineMeetingRequest{
		StartDateTime:       req.Start.UTC().Format(time.RFC3339),
		EndDateTime:         req.End.UTC().Format(time.RFC3339),
		Subject:             req.Subject,
		LobbyBypassSettings: lobbyBypass{Scope: "everyone", IsDialInBypassEnabled: true},
		AutoAdmittedUsers:   "everyone",
		AllowedPresenters:   "everyone",
		RecordAutomatically: true,
	}
	var resp onlineMeetingResponse
	if err := g.do(ctx, http.MethodPost, "/users/"+g.organizer+"/onlineMeetings", body, &resp); err != nil {
		return "", err
	}
	switch {
	case resp.JoinWebURL != "":
		return resp.JoinWebURL, nil
	case resp.JoinURL != "":
		return resp.JoinURL, nil
	}
	return "", ErrNoJoinURL
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (g *GraphCreator) do(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("graph %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("graph %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("graph %s %s: decode: %w", method, path, err)
	}
	return nil
}

func locationName(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	return loc.String()
}
