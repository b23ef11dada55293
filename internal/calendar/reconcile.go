package calendar

import (
	"context"
	"errors"
	"time"

	appLog "kscal/internal/log"
	"kscal/internal/model"
)

// SkipReasonNoTime is the fixed reason attached to drafts that arrive
// without a normalized timestamp.
const SkipReasonNoTime = "no time"

// Reconciler decides create-vs-update for schedule drafts against a calendar
// collaborator. Overlap in time alone is the duplicate signal: the first
// existing event in the draft's window becomes the update target, with no
// deeper comparison of summary or location.
type Reconciler struct {
	client Client
	tz     *time.Location
}

// NewReconciler builds a Reconciler writing through the given client.
// tz is the civil timezone attached to event payloads; nil means time.Local.
func NewReconciler(client Client, tz *time.Location) *Reconciler {
	if tz == nil {
		tz = time.Local
	}
	return &Reconciler{client: client, tz: tz}
}

// ReconcileAll processes drafts strictly in input order, issuing calendar
// writes sequentially so that two overlapping drafts cannot race each other
// into duplicate creates. One draft's failure never aborts the batch; the
// single exception is ErrAuthRequired, which is returned alongside the
// outcomes collected so far since every remaining call would fail the same
// way.
func (r *Reconciler) ReconcileAll(ctx context.Context, drafts []model.ScheduleDraft) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(drafts))

	for i, draft := range drafts {
		outcome, err := r.reconcileOne(ctx, draft)
		if err != nil {
			// Auth problems are batch-level: report once and stop.
			return outcomes, err
		}
		appLog.Info("draft reconciled",
			"index", i,
			"kind", string(outcome.Kind),
			"event_id", outcome.EventID,
			"reason", outcome.Reason,
		)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// reconcileOne produces the terminal outcome for a single draft. The
// returned error is non-nil only for ErrAuthRequired; every other failure is
// folded into a Failed outcome.
func (r *Reconciler) reconcileOne(ctx context.Context, draft model.ScheduleDraft) (Outcome, error) {
	if draft.Time == nil {
		return Outcome{Kind: OutcomeSkipped, Reason: SkipReasonNoTime, Draft: draft}, nil
	}

	start := draft.Time.In(r.tz)
	end := start.Add(DefaultEventDuration)

	existing, err := r.client.ListEvents(ctx, start, end)
	if err != nil {
		if errors.Is(err, ErrAuthRequired) {
			return Outcome{}, err
		}
		appLog.Error("listing existing events failed", err, "start", start.Format(time.RFC3339))
		return Outcome{Kind: OutcomeFailed, Reason: err.Error(), Draft: draft}, nil
	}

	payload := EventPayload{
		Summary:  draft.Event,
		Location: draft.Location,
		Start:    start,
		End:      end,
		TimeZone: r.tz.String(),
	}
	if payload.Summary == "" {
		payload.Summary = model.DefaultEventLabel
	}

	// The first returned event is the collision target; later events in
	// the window are ignored.
	targetID := ""
	if len(existing) > 0 {
		targetID = existing[0].ID
	}

	id, err := r.client.UpsertEvent(ctx, targetID, payload)
	if err != nil {
		if errors.Is(err, ErrAuthRequired) {
			return Outcome{}, err
		}
		appLog.Error("calendar upsert failed", err, "target_id", targetID)
		return Outcome{Kind: OutcomeFailed, Reason: err.Error(), Draft: draft}, nil
	}

	if targetID != "" {
		return Outcome{Kind: OutcomeUpdated, EventID: id, Draft: draft}, nil
	}
	return Outcome{Kind: OutcomeCreated, EventID: id, Draft: draft}, nil
}
