// Package lexicon loads the keyword lists the extraction engine is anchored
// on. Both lists are flat JSON string arrays on disk; a missing or malformed
// file is not fatal and degrades to the built-in defaults below.
//
// A Lexicon is loaded once at process start and treated as immutable; the
// extraction components receive it explicitly at construction instead of
// reading ambient globals.
package lexicon

import (
	"encoding/json"
	"os"
	"strings"

	appLog "kscal/internal/log"
)

// Lexicon holds the immutable keyword configuration.
type Lexicon struct {
	// Location keywords anchor the rule-based location candidate pattern
	// and contribute to candidate scoring. Order is significant.
	Location []string

	// PlaceSuffixes are common place-suffix words used only for the
	// place-like lexical check (they do not anchor candidates on their own).
	PlaceSuffixes []string

	// Event keywords are scanned in order when labeling an event.
	Event []string
}

func defaultLocationKeywords() []string {
	return []string{
		"본사", "회의실", "세미나실", "강의실", "사무실",
		"카페", "도서관", "라운지", "식당", "강남역", "역",
	}
}

func defaultPlaceSuffixes() []string {
	return []string{"회의실", "카페", "도서관", "라운지", "세미나실", "출구", "동", "호", "층"}
}

func defaultEventKeywords() []string {
	return []string{
		"회의", "미팅", "워크숍", "세미나", "발표", "면접",
		"스터디", "약속", "점심", "저녁", "식사",
	}
}

// Default returns the built-in lexicon used when no files are configured or
// readable.
func Default() *Lexicon {
	return &Lexicon{
		Location:      defaultLocationKeywords(),
		PlaceSuffixes: defaultPlaceSuffixes(),
		Event:         defaultEventKeywords(),
	}
}

// Load reads the location and event keyword files. Either path may be empty
// or unreadable; the corresponding built-in default list is used instead and
// a warning is logged. Load never fails.
func Load(locationPath, eventPath string) *Lexicon {
	lex := Default()

	if kws, ok := loadKeywordFile(locationPath); ok {
		lex.Location = kws
	}
	if kws, ok := loadKeywordFile(eventPath); ok {
		lex.Event = kws
	}

	appLog.Info("lexicon loaded",
		"location_keywords", len(lex.Location),
		"event_keywords", len(lex.Event),
	)
	return lex
}

// loadKeywordFile reads a flat JSON string array. Returns ok=false when the
// file is absent, unreadable, malformed, or empty.
func loadKeywordFile(path string) ([]string, bool) {
	if path == "" {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		appLog.Warn("keyword file unreadable; using built-in defaults", "path", path, "reason", err)
		return nil, false
	}

	var kws []string
	if err := json.Unmarshal(data, &kws); err != nil {
		appLog.Warn("keyword file malformed; using built-in defaults", "path", path, "reason", err)
		return nil, false
	}

	// Drop empty entries but keep order.
	out := kws[:0]
	for _, kw := range kws {
		if kw != "" {
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		appLog.Warn("keyword file empty; using built-in defaults", "path", path)
		return nil, false
	}
	return out, true
}

// PlaceLike reports whether s contains any location keyword or common place
// suffix word.
func (l *Lexicon) PlaceLike(s string) bool {
	return containsAny(s, l.Location) || containsAny(s, l.PlaceSuffixes)
}

func containsAny(s string, kws []string) bool {
	for _, kw := range kws {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
