// Package calendar defines the narrow surface the engine consumes from a
// calendar collaborator and the reconciliation logic that decides
// create-vs-update for extracted schedule drafts.
package calendar

import (
	"context"
	"errors"
	"time"

	"kscal/internal/model"
)

// ErrAuthRequired is returned by a Client when no valid credential is
// available. The reconciler reports it once per batch and stops issuing
// further calendar calls.
var ErrAuthRequired = errors.New("no authenticated calendar credential; login required")

// DefaultEventDuration is the fixed duration assumed for every extracted
// event. End times are never user input in this engine.
const DefaultEventDuration = time.Hour

// EventPayload is the write shape handed to the calendar collaborator.
type EventPayload struct {
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
	// TimeZone is the IANA name of the civil timezone both timestamps are
	// expressed in.
	TimeZone string
}

// Lister lists existing events overlapping a time window.
type Lister interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.Event, error)
}

// Client is the full calendar collaborator surface: one read operation and
// one write operation in two modes (create when eventID is empty, update
// otherwise).
type Client interface {
	Lister
	UpsertEvent(ctx context.Context, eventID string, payload EventPayload) (string, error)
}

// OutcomeKind enumerates terminal reconciliation states.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the terminal result for one draft.
type Outcome struct {
	Kind OutcomeKind
	// EventID is set for Created/Updated.
	EventID string
	// Reason is set for Skipped/Failed.
	Reason string
	// Draft is the input the outcome belongs to.
	Draft model.ScheduleDraft
}
