package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"kscal/internal/lexicon"
	appLog "kscal/internal/log"
	"kscal/internal/tagger"
)

// Candidate generation strategy names, kept on each candidate for logging.
const (
	sourceBoundary = "boundary"
	sourceKeyword  = "keyword"
	sourceTagger   = "tagger"
)

// trailingUnitsRe extends a candidate with up to a few trailing digit/unit
// tokens (floor, room, number, exit markers), e.g. "본사" -> "본사 3층".
var trailingUnitsRe = regexp.MustCompile(`^\s*(\d{1,3}(층|호|번|출구)?\s*)+`)

// How far past a tagged span we look for trailing digit/unit tokens.
const trailingLookahead = 20

// LocationCandidate is one possible location extracted from a clause.
type LocationCandidate struct {
	Text   string
	Source string
}

// Selector chooses the single best location candidate for a clause by
// pooling several noisy strategies and applying a deterministic scoring
// policy. An absent tagger simply removes one strategy from the pool.
type Selector struct {
	lex *lexicon.Lexicon
	tag tagger.Tagger

	// keywordRe anchors candidates at lexicon keyword occurrences and
	// optionally extends them with trailing digit/unit tokens and one
	// trailing alphanumeric word (e.g. a room name).
	keywordRe *regexp.Regexp
}

// NewSelector builds a Selector over the given lexicon. tg may be nil.
func NewSelector(lex *lexicon.Lexicon, tg tagger.Tagger) *Selector {
	if lex == nil {
		lex = lexicon.Default()
	}

	quoted := make([]string, 0, len(lex.Location))
	for _, kw := range lex.Location {
		if kw != "" {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
	}
	pattern := `(?:` + strings.Join(quoted, "|") + `)` +
		`(?:\s*\d{1,3}(?:층|호|번|출구)?){0,3}` +
		`(?:\s+[0-9A-Za-z가-힣]+)?`

	return &Selector{
		lex:       lex,
		tag:       tg,
		keywordRe: regexp.MustCompile(pattern),
	}
}

// Select returns the best location string for the clause, or "" when no
// candidate survives filtering. Callers render the literal 위치 정보 없음
// marker for the empty result instead of omitting the field.
func (s *Selector) Select(clause string) string {
	pool := s.Candidates(clause)
	if len(pool) == 0 {
		return ""
	}

	// Drop purely numeric or single-rune candidates.
	filtered := pool[:0]
	for _, c := range pool {
		if utf8.RuneCountInString(c.Text) > 1 && !isDigits(c.Text) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return ""
	}

	// Prefer candidates passing the place-like lexical check; among those
	// sort by (length, keyword occurrence count) descending.
	placeLike := make([]LocationCandidate, 0, len(filtered))
	for _, c := range filtered {
		if s.lex.PlaceLike(c.Text) {
			placeLike = append(placeLike, c)
		}
	}
	if len(placeLike) > 0 {
		sort.SliceStable(placeLike, func(i, j int) bool {
			li, lj := utf8.RuneCountInString(placeLike[i].Text), utf8.RuneCountInString(placeLike[j].Text)
			if li != lj {
				return li > lj
			}
			return s.keywordCount(placeLike[i].Text) > s.keywordCount(placeLike[j].Text)
		})
		return placeLike[0].Text
	}

	// Fallback: longest remaining candidate by raw length.
	sort.SliceStable(filtered, func(i, j int) bool {
		return utf8.RuneCountInString(filtered[i].Text) > utf8.RuneCountInString(filtered[j].Text)
	})
	return filtered[0].Text
}

// Candidates pools the raw candidates from all strategies, deduplicated by
// text, in strategy-priority order: boundary slice first, then
// keyword-anchored matches, then tagger spans.
func (s *Selector) Candidates(clause string) []LocationCandidate {
	var pool []LocationCandidate
	seen := map[string]bool{}

	add := func(text, source string) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		pool = append(pool, LocationCandidate{Text: text, Source: source})
	}

	// Text between the '시' and '에서' boundary markers is a single strong
	// candidate regardless of keyword match, when both markers exist.
	if _, placePart, _, hasTime := splitBoundaries(clause); hasTime && placePart != "" {
		add(placePart, sourceBoundary)
	}

	for _, m := range s.keywordRe.FindAllString(clause, -1) {
		add(m, sourceKeyword)
	}

	if s.tag != nil {
		spans, err := s.tag.Tag(clause)
		if err != nil {
			appLog.Warn("entity tagger failed; continuing without tagger candidates", "reason", err)
		}
		for _, sp := range spans {
			if !tagger.IsPlaceLabel(sp.Label) {
				continue
			}
			add(extendSpan(clause, sp), sourceTagger)
		}
	}

	return pool
}

// extendSpan appends trailing digit/unit tokens that immediately follow a
// tagged span, e.g. span "본사" in "본사 3층에서" becomes "본사 3층".
func extendSpan(clause string, sp tagger.Span) string {
	text := sp.Text
	end := sp.End
	if end < 0 || end > len(clause) {
		return text
	}
	limit := end + trailingLookahead
	if limit > len(clause) {
		limit = len(clause)
	}
	if m := trailingUnitsRe.FindString(clause[end:limit]); m != "" {
		text += m
	}
	return strings.TrimSpace(text)
}

// keywordCount counts lexicon keyword occurrences inside a candidate.
func (s *Selector) keywordCount(text string) int {
	n := 0
	for _, kw := range s.lex.Location {
		if kw != "" {
			n += strings.Count(text, kw)
		}
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
