package model

import "time"

// Fallback literals used when a clause yields no usable signal. These are
// surfaced to clients verbatim, matching the behavior users already rely on.
const (
	// DefaultEventLabel is used when no event keyword or noun can be found.
	DefaultEventLabel = "일정"
	// NoLocationMarker is displayed when no location candidate survives.
	NoLocationMarker = "위치 정보 없음"
)

// TimeKind tags which sub-pattern a raw time fragment matched. Extraction
// keeps the tag around mostly for logging and debugging; the normalizer
// pipeline itself treats all kinds uniformly.
type TimeKind string

const (
	KindAbsolute        TimeKind = "absolute"
	KindRelativeDay     TimeKind = "relative_day"
	KindRelativeWeekday TimeKind = "relative_weekday"
	KindTimeOnly        TimeKind = "time_only"
	KindUnknown         TimeKind = "unknown"
)

// TimeExpression is the raw time fragment extracted from a clause.
// Immutable once extracted.
type TimeExpression struct {
	Raw  string
	Kind TimeKind
}

// ScheduleDraft is the per-clause result of extraction. A nil Time means the
// clause's time fragment could not be normalized; such drafts are still
// returned to the caller (never silently dropped) and are skipped by the
// reconciler.
type ScheduleDraft struct {
	// SourceClause is the original comma-delimited segment this draft
	// was derived from.
	SourceClause string

	// TimeText is the raw time fragment (everything up to and including
	// the '시' boundary marker), empty when the clause had none.
	TimeText string

	// Time is the normalized absolute timestamp in the configured civil
	// timezone, or nil when normalization failed.
	Time *time.Time

	// Location is the selected location candidate, empty when none.
	Location string

	// Event is the chosen event label; never empty.
	Event string
}

// Event represents an existing calendar event as supplied by a calendar
// backend. Read-only from the engine's perspective.
type Event struct {
	ID       string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
}
