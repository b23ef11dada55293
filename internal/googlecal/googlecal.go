// Package googlecal implements the calendar collaborator over the Google
// Calendar v3 API with OAuth2 user credentials.
package googlecal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"kscal/internal/calendar"
	appLog "kscal/internal/log"
	"kscal/internal/model"
)

// Client talks to one Google calendar with the credential stored under one
// user key. It implements calendar.Client.
type Client struct {
	oauthCfg   *oauth2.Config
	store      *TokenStore
	userKey    string
	calendarID string
	tz         *time.Location
}

// NewClient builds a Client. tz is used to interpret all-day ("date" only)
// event boundaries returned by the API; nil means time.Local.
func NewClient(oauthCfg *oauth2.Config, store *TokenStore, userKey, calendarID string, tz *time.Location) *Client {
	if userKey == "" {
		userKey = DefaultUserKey
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if tz == nil {
		tz = time.Local
	}
	return &Client{
		oauthCfg:   oauthCfg,
		store:      store,
		userKey:    userKey,
		calendarID: calendarID,
		tz:         tz,
	}
}

// service builds an authenticated calendar service, or ErrAuthRequired when
// no token has been stored for the user key.
func (c *Client) service(ctx context.Context) (*gcal.Service, error) {
	tok, ok := c.store.Get(c.userKey)
	if !ok {
		return nil, calendar.ErrAuthRequired
	}

	ts := c.oauthCfg.TokenSource(ctx, tok)
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("building calendar service: %w", err)
	}
	return svc, nil
}

// ListEvents lists existing events overlapping [timeMin, timeMax), expanded
// to single instances and ordered by start time so the first entry is the
// earliest collision in the window.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.Event, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	events := make([]model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, model.Event{
			ID:       item.Id,
			Summary:  item.Summary,
			Location: item.Location,
			Start:    c.eventTime(item.Start),
			End:      c.eventTime(item.End),
		})
	}

	appLog.Debug("google events listed",
		"calendar_id", c.calendarID,
		"time_min", timeMin.Format(time.RFC3339),
		"count", len(events),
	)
	return events, nil
}

// UpsertEvent creates the event when eventID is empty, otherwise updates the
// existing event in place. Returns the resulting event id.
func (c *Client) UpsertEvent(ctx context.Context, eventID string, payload calendar.EventPayload) (string, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}

	body := &gcal.Event{
		Summary:  payload.Summary,
		Location: payload.Location,
		Start: &gcal.EventDateTime{
			DateTime: payload.Start.Format(time.RFC3339),
			TimeZone: payload.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: payload.End.Format(time.RFC3339),
			TimeZone: payload.TimeZone,
		},
	}

	var ev *gcal.Event
	if eventID == "" {
		ev, err = svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
	} else {
		ev, err = svc.Events.Update(c.calendarID, eventID, body).Context(ctx).Do()
	}
	if err != nil {
		return "", fmt.Errorf("upserting event: %w", err)
	}
	return ev.Id, nil
}

// eventTime converts an API event boundary into time.Time. Timed events
// carry RFC3339 DateTime; all-day events only carry a Date, interpreted at
// midnight in the civil timezone.
func (c *Client) eventTime(edt *gcal.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.In(c.tz)
		}
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", edt.Date, c.tz); err == nil {
			return t
		}
	}
	return time.Time{}
}
