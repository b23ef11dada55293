// Package extract implements the schedule extraction engine: segmenting raw
// Korean input into per-event clauses and deriving an absolute timestamp, a
// location and an event label for each.
package extract

import (
	"time"

	"kscal/internal/lexicon"
	appLog "kscal/internal/log"
	"kscal/internal/model"
	"kscal/internal/tagger"
)

// Extractor composes the segmenter, time normalizer, location selector and
// event labeler into one per-clause assembly step. All state is immutable
// after construction, so a single Extractor is safe for concurrent use.
type Extractor struct {
	delimiter string
	norm      *Normalizer
	selector  *Selector
	labeler   *Labeler
}

// New builds an Extractor. lex may be nil (built-in defaults), tg may be nil
// (tagger strategy disabled), loc may be nil (time.Local).
func New(delimiter string, loc *time.Location, lex *lexicon.Lexicon, tg tagger.Tagger) *Extractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Extractor{
		delimiter: delimiter,
		norm:      NewNormalizer(loc),
		selector:  NewSelector(lex, tg),
		labeler:   NewLabeler(lex, tg),
	}
}

// Extract turns raw input into ordered schedule drafts, one per clause.
// Clauses whose time fragment cannot be normalized are returned with a nil
// Time rather than dropped. The only error is ErrInvalidInput for empty raw
// text.
func (e *Extractor) Extract(raw string, now time.Time) ([]model.ScheduleDraft, error) {
	clauses, err := Segment(raw, e.delimiter)
	if err != nil {
		return nil, err
	}

	drafts := make([]model.ScheduleDraft, 0, len(clauses))
	for _, clause := range clauses {
		drafts = append(drafts, e.assemble(clause, now))
	}
	return drafts, nil
}

// assemble builds one draft from one clause. Pure composition; missing
// sub-results degrade to the explicit empty/fallback states.
func (e *Extractor) assemble(clause string, now time.Time) model.ScheduleDraft {
	timePart, _, eventPart, hasTime := splitBoundaries(clause)

	draft := model.ScheduleDraft{SourceClause: clause}

	if !hasTime {
		// No '시' boundary: the whole clause is the labeler's residual
		// input; time and location stay empty.
		draft.Event = e.labeler.Label(clause, clause)
		return draft
	}

	expr := model.TimeExpression{Raw: timePart, Kind: ClassifyTime(timePart)}
	draft.TimeText = expr.Raw
	draft.Time = e.norm.Normalize(expr.Raw, now)
	if draft.Time == nil {
		appLog.Debug("time fragment unresolved", "fragment", expr.Raw, "kind", string(expr.Kind))
	}

	draft.Location = e.selector.Select(clause)
	draft.Event = e.labeler.Label(clause, eventPart)

	return draft
}
