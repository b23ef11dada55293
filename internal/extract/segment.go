package extract

import (
	"errors"
	"strings"
)

// ErrInvalidInput is returned when the raw request text is empty. The caller
// should surface this immediately instead of attempting partial processing.
var ErrInvalidInput = errors.New("text input field is required")

// Boundary markers that delimit the time / location / event zones inside a
// single clause. '시' ends the time zone, '에서' ends the location zone.
const (
	timeBoundary     = "시"
	locationBoundary = "에서"
)

// Segment splits raw input into ordered per-event clauses on the given
// delimiter, trimming whitespace and dropping empty segments. Ordering among
// clauses is significant and preserved left to right.
func Segment(raw, delimiter string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidInput
	}
	if delimiter == "" {
		delimiter = ","
	}

	parts := strings.Split(raw, delimiter)
	clauses := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			clauses = append(clauses, p)
		}
	}
	if len(clauses) == 0 {
		return nil, ErrInvalidInput
	}
	return clauses, nil
}

// splitBoundaries splits one clause into time / place / event parts:
// everything up to (and including) the first '시' is the time part, text
// between '시' and '에서' is the place part, and text after '에서' is the
// event part. Without a '시' marker the whole clause is the event part.
func splitBoundaries(clause string) (timePart, placePart, eventPart string, hasTime bool) {
	si := strings.Index(clause, timeBoundary)
	if si == -1 {
		return "", "", strings.TrimSpace(clause), false
	}

	afterSi := si + len(timeBoundary)
	timePart = strings.TrimSpace(clause[:afterSi])

	rest := clause[afterSi:]
	eseo := strings.Index(rest, locationBoundary)
	if eseo == -1 {
		placePart = strings.TrimSpace(rest)
		eventPart = ""
	} else {
		placePart = strings.TrimSpace(rest[:eseo])
		eventPart = strings.TrimSpace(rest[eseo+len(locationBoundary):])
	}

	return timePart, placePart, eventPart, true
}
