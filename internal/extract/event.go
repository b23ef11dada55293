package extract

import (
	"strings"

	"kscal/internal/lexicon"
	appLog "kscal/internal/log"
	"kscal/internal/model"
	"kscal/internal/tagger"
)

// Labeler chooses an event title for a clause. It never fails and always
// returns a non-empty string.
type Labeler struct {
	lex *lexicon.Lexicon
	tag tagger.Tagger
}

// NewLabeler builds a Labeler over the given lexicon. tg may be nil.
func NewLabeler(lex *lexicon.Lexicon, tg tagger.Tagger) *Labeler {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Labeler{lex: lex, tag: tg}
}

// Label picks the event title, in order:
//
//  1. the residual '에서' segment verbatim, when non-empty
//  2. the first configured event keyword contained in the clause
//  3. the last noun-ish tagged span, when a tagger is available
//  4. the fixed fallback label
func (l *Labeler) Label(clause, residual string) string {
	if residual = strings.TrimSpace(residual); residual != "" {
		return residual
	}

	for _, kw := range l.lex.Event {
		if kw != "" && strings.Contains(clause, kw) {
			return kw
		}
	}

	if l.tag != nil {
		spans, err := l.tag.Tag(clause)
		if err != nil {
			appLog.Warn("entity tagger failed during event labeling", "reason", err)
		}
		for i := len(spans) - 1; i >= 0; i-- {
			if tagger.IsNounLabel(spans[i].Label) {
				return spans[i].Text
			}
		}
	}

	return model.DefaultEventLabel
}
