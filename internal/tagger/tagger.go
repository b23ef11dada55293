// Package tagger defines the optional entity tagger capability. The
// extraction engine must function with no tagger at all; when one is
// configured it only contributes extra location candidates and a noun
// fallback for event labels.
package tagger

// Span is a labeled substring of the input text.
type Span struct {
	Text  string
	Label string
	// Start/End are byte offsets into the original text.
	Start int
	End   int
}

// Tagger produces labeled spans for a piece of text.
type Tagger interface {
	Tag(text string) ([]Span, error)
}

// placeLabels are the entity categories treated as location-ish. The set
// covers both the Korean modu-ner tag set (LC, OG) and the more common
// CoNLL-style labels so swapping models does not silently drop candidates.
var placeLabels = map[string]struct{}{
	"LC":   {},
	"LOC":  {},
	"GPE":  {},
	"FAC":  {},
	"OG":   {},
	"ORG":  {},
	"LCP":  {},
	"LCG":  {},
	"AFW":  {},
	"MISC": {},
}

// IsPlaceLabel reports whether the (normalized) label denotes a place,
// geo-political entity, facility, organization or location context.
func IsPlaceLabel(label string) bool {
	_, ok := placeLabels[label]
	return ok
}

// nounLabels are categories usable as a residual noun for event labeling.
var nounLabels = map[string]struct{}{
	"EVT": {},
	"TRM": {},
	"CVL": {},
}

// IsNounLabel reports whether the label is usable as an event-noun fallback.
func IsNounLabel(label string) bool {
	_, ok := nounLabels[label]
	return ok
}
