package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"kscal/internal/calendar"
	"kscal/internal/extract"
	"kscal/internal/googlecal"
	appLog "kscal/internal/log"
	"kscal/internal/model"
)

// timeDTO mirrors the wire shape clients already use: a wrapper object so
// "no time" can be expressed as a JSON null.
type timeDTO struct {
	Value string `json:"value"`
}

// scheduleDTO is one extracted schedule on the wire.
type scheduleDTO struct {
	Time     *timeDTO `json:"time"`
	Location string   `json:"location"`
	Event    string   `json:"event"`
}

// existingEventDTO is a JSON-friendly view of an existing calendar event.
type existingEventDTO struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func draftToDTO(d model.ScheduleDraft) scheduleDTO {
	dto := scheduleDTO{
		Location: d.Location,
		Event:    d.Event,
	}
	if dto.Location == "" {
		dto.Location = model.NoLocationMarker
	}
	if d.Time != nil {
		dto.Time = &timeDTO{Value: d.Time.Format(time.RFC3339)}
	}
	return dto
}

// dtoToDraft rebuilds a draft from the wire shape. The time value is
// usually the RFC3339 string our own parse endpoint emitted, but raw Korean
// fragments are accepted too and run through the normalizer, so clients may
// post user-edited text back.
func (s *Server) dtoToDraft(d scheduleDTO, now time.Time) model.ScheduleDraft {
	draft := model.ScheduleDraft{
		Location: d.Location,
		Event:    d.Event,
	}
	if draft.Location == model.NoLocationMarker {
		draft.Location = ""
	}
	if d.Time != nil && d.Time.Value != "" {
		draft.TimeText = d.Time.Value
		if t, err := time.Parse(time.RFC3339, d.Time.Value); err == nil {
			local := t.In(s.tz)
			draft.Time = &local
		} else {
			draft.Time = s.normalizer.Normalize(d.Time.Value, now)
		}
	}
	return draft
}

// handleParse runs extraction only: raw comma-separated Korean text in,
// ordered schedules out. Reconciliation is a separate call.
//
// POST /api/parse {"text": "내일 오후 3시 2층 회의실에서 팀 회의, ..."}
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	now := time.Now().In(s.tz)
	drafts, err := s.extractor.Extract(req.Text, now)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	batchID := uuid.NewString()
	appLog.Info("parse request", "batch_id", batchID, "clauses", len(drafts))

	s.lastMu.Lock()
	s.lastBatch = drafts
	s.lastMu.Unlock()

	dtos := make([]scheduleDTO, 0, len(drafts))
	for _, d := range drafts {
		dtos = append(dtos, draftToDTO(d))
	}

	writeJSON(w, http.StatusOK, struct {
		BatchID   string        `json:"batch_id"`
		Schedules []scheduleDTO `json:"schedules"`
	}{BatchID: batchID, Schedules: dtos})
}

// handleDuplicates reports, without writing anything, which of the posted
// schedules already collide with an existing event. Both Google Calendar
// and any configured ICS subscriptions are consulted.
//
// POST /api/duplicates [schedule, ...]
func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var items []scheduleDTO
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	type duplicateDTO struct {
		Schedule struct {
			Summary  string    `json:"summary"`
			Location string    `json:"location"`
			Start    time.Time `json:"start"`
			End      time.Time `json:"end"`
		} `json:"schedule"`
		ExistingEvent existingEventDTO `json:"existing_event"`
	}

	ctx := r.Context()
	now := time.Now().In(s.tz)
	duplicates := make([]duplicateDTO, 0)

	for i, item := range items {
		draft := s.dtoToDraft(item, now)
		if draft.Time == nil {
			// Items without a resolvable time cannot collide.
			continue
		}

		start := draft.Time.In(s.tz)
		end := start.Add(calendar.DefaultEventDuration)

		existing, err := s.listExisting(ctx, start, end)
		if err != nil {
			if errors.Is(err, calendar.ErrAuthRequired) {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			appLog.Error("duplicate check failed for item", err, "index", i)
			continue
		}
		if len(existing) == 0 {
			continue
		}

		// One collision per schedule is enough for the report.
		ev := existing[0]
		var dup duplicateDTO
		dup.Schedule.Summary = draft.Event
		if dup.Schedule.Summary == "" {
			dup.Schedule.Summary = model.DefaultEventLabel
		}
		dup.Schedule.Location = draft.Location
		dup.Schedule.Start = start
		dup.Schedule.End = end
		dup.ExistingEvent = existingEventDTO{
			ID:       ev.ID,
			Summary:  ev.Summary,
			Location: ev.Location,
			Start:    ev.Start,
			End:      ev.End,
		}
		duplicates = append(duplicates, dup)
	}

	writeJSON(w, http.StatusOK, struct {
		HasDuplicates bool           `json:"has_duplicates"`
		Duplicates    []duplicateDTO `json:"duplicates"`
	}{HasDuplicates: len(duplicates) > 0, Duplicates: duplicates})
}

// listExisting merges the writable backend's window listing with the
// optional read-only ICS feed. Feed failures degrade to Google-only.
func (s *Server) listExisting(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	events, err := s.client.ListEvents(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if s.feed != nil {
		feedEvents, ferr := s.feed.ListEvents(ctx, start, end)
		if ferr != nil {
			appLog.Warn("ics feed listing failed; continuing with calendar only", "reason", ferr)
		} else {
			events = append(events, feedEvents...)
		}
	}
	return events, nil
}

// handleRegister reconciles the posted schedules against the calendar:
// create when the draft's window is free, update the first colliding event
// otherwise. One item's failure never aborts the batch.
//
// POST /api/register [schedule, ...]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var items []scheduleDTO
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	now := time.Now().In(s.tz)
	drafts := make([]model.ScheduleDraft, 0, len(items))
	for _, item := range items {
		drafts = append(drafts, s.dtoToDraft(item, now))
	}

	outcomes, err := s.reconciler.ReconcileAll(r.Context(), drafts)
	if err != nil {
		if errors.Is(err, calendar.ErrAuthRequired) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	type failedItemDTO struct {
		Schedule scheduleDTO `json:"schedule"`
		Error    string      `json:"error"`
	}
	type resultDTO struct {
		Kind    string      `json:"kind"`
		EventID string      `json:"event_id,omitempty"`
		Reason  string      `json:"reason,omitempty"`
		Item    scheduleDTO `json:"schedule"`
	}

	createdIDs := make([]string, 0)
	failed := make([]failedItemDTO, 0)
	results := make([]resultDTO, 0, len(outcomes))

	for _, o := range outcomes {
		dto := draftToDTO(o.Draft)
		results = append(results, resultDTO{
			Kind:    string(o.Kind),
			EventID: o.EventID,
			Reason:  o.Reason,
			Item:    dto,
		})
		switch o.Kind {
		case calendar.OutcomeCreated, calendar.OutcomeUpdated:
			createdIDs = append(createdIDs, o.EventID)
		case calendar.OutcomeFailed:
			failed = append(failed, failedItemDTO{Schedule: dto, Error: o.Reason})
		}
	}

	writeJSON(w, http.StatusOK, struct {
		CreatedEventIDs []string        `json:"created_event_ids"`
		FailedItems     []failedItemDTO `json:"failed_items"`
		Results         []resultDTO     `json:"results"`
	}{CreatedEventIDs: createdIDs, FailedItems: failed, Results: results})
}

// handleLogin redirects to Google's consent screen.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		writeError(w, http.StatusServiceUnavailable, "Google OAuth is not configured")
		return
	}
	url := s.oauthCfg.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// handleAuthCallback exchanges the authorization code and stores the token
// in memory under the default user key.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		writeError(w, http.StatusServiceUnavailable, "Google OAuth is not configured")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	tok, err := s.oauthCfg.Exchange(r.Context(), code)
	if err != nil {
		appLog.Error("oauth code exchange failed", err)
		writeError(w, http.StatusBadRequest, "token exchange failed")
		return
	}

	s.store.Set(googlecal.DefaultUserKey, tok)
	appLog.Info("oauth login completed", "user_key", googlecal.DefaultUserKey, "expiry", tok.Expiry)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login ok; /api/register 를 사용할 수 있습니다.\n"))
}

// handleExportICS serializes the last parsed batch as an iCalendar
// document. Drafts without a resolved time are left out.
//
// GET /api/export.ics
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	s.lastMu.RLock()
	drafts := s.lastBatch
	s.lastMu.RUnlock()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//kscal//schedule export//KO")

	for _, d := range drafts {
		if d.Time == nil {
			continue
		}
		start := d.Time.In(s.tz)
		ev := cal.AddEvent(uuid.NewString())
		ev.SetCreatedTime(time.Now())
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(calendar.DefaultEventDuration))
		ev.SetSummary(d.Event)
		if d.Location != "" {
			ev.SetLocation(d.Location)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(cal.Serialize()))
}
