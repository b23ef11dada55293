package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kscal/internal/model"
)

// weekdayIndex maps Korean weekday names to indices, Monday=0.
var weekdayIndex = map[string]int{
	"월요일": 0, "화요일": 1, "수요일": 2,
	"목요일": 3, "금요일": 4, "토요일": 5, "일요일": 6,
}

const weekdayAlternation = `월요일|화요일|수요일|목요일|금요일|토요일|일요일`

var (
	nextWeekdayRe = regexp.MustCompile(`다음주\s*(` + weekdayAlternation + `)`)
	weekdayRe     = regexp.MustCompile(`(` + weekdayAlternation + `)`)

	// A 4-digit year either marked with '년' or already in dashed/slashed form.
	yearTokenRe = regexp.MustCompile(`\d{4}년|\d{4}[-/]`)

	meridiemRe = regexp.MustCompile(`(오전|오후)\s*(\d{1,2})시`)

	multiSpaceRe  = regexp.MustCompile(`\s+`)
	yearMarkerRe  = regexp.MustCompile(`(\d{4})년`)
	monthMarkerRe = regexp.MustCompile(`(\d{1,2})월`)
	dayMarkerRe   = regexp.MustCompile(`\s*(\d{1,2})일\s*`)
	multiDashRe   = regexp.MustCompile(`-{2,}`)

	// Shapes recognized by the final parse of the canonical string.
	canonDateRe = regexp.MustCompile(`(\d{4})-\s*(\d{1,2})-\s*(\d{1,2})`)
	clockRe     = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	hourMarkRe  = regexp.MustCompile(`(\d{1,2})시`)
)

// Normalizer converts raw Korean time fragments into absolute timestamps in
// a single fixed civil timezone.
//
// The conversion is an ordered pipeline of rewriting stages; each stage is a
// plain function on the working string so it can be unit tested on its own:
//
//  1. substituteRelativeDays  오늘/내일/모레 -> absolute date from `now`
//  2. substituteNextWeekday   "다음주 <weekday>" -> date >= 7 days ahead
//  3. ensureYear              prefix the current year when none is present
//  4. convertMeridiem         오전/오후 h시 -> 24-hour "HH:00"
//  5. canonicalize            collapse markers into a dashed date-like token
//  6. parseCanonical          layout parse with RELATIVE_BASE=now, future bias
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer resolving into the given civil
// timezone. A nil location falls back to time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Normalize converts a raw time fragment into an absolute timestamp, or nil
// when the fragment cannot be understood. A nil result is not an error; the
// caller carries the clause forward with no time.
func (n *Normalizer) Normalize(fragment string, now time.Time) *time.Time {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}
	now = now.In(n.loc)

	s := substituteRelativeDays(fragment, now)
	s = substituteNextWeekday(s, now)
	s = ensureYear(s, now)
	s = convertMeridiem(s)
	s = canonicalize(s)

	return n.parseCanonical(s, now)
}

// ClassifyTime tags a raw fragment with the sub-pattern it matches, mostly
// for logging. The pipeline itself treats all kinds uniformly.
func ClassifyTime(fragment string) model.TimeKind {
	switch {
	case fragment == "":
		return model.KindUnknown
	case nextWeekdayRe.MatchString(fragment):
		return model.KindRelativeWeekday
	case strings.Contains(fragment, "오늘"),
		strings.Contains(fragment, "내일"),
		strings.Contains(fragment, "모레"):
		return model.KindRelativeDay
	case yearTokenRe.MatchString(fragment),
		monthMarkerRe.MatchString(fragment) && dayMarkerRe.MatchString(fragment):
		return model.KindAbsolute
	case meridiemRe.MatchString(fragment), clockRe.MatchString(fragment), hourMarkRe.MatchString(fragment):
		return model.KindTimeOnly
	default:
		return model.KindUnknown
	}
}

// dateToken renders t as the "YYYY년 MM월 DD일" form the later stages expect.
func dateToken(t time.Time) string {
	return fmt.Sprintf("%04d년 %02d월 %02d일", t.Year(), int(t.Month()), t.Day())
}

// substituteRelativeDays replaces 오늘/내일/모레 with absolute calendar dates
// computed from now. Idempotent: the output contains none of the tokens.
func substituteRelativeDays(s string, now time.Time) string {
	s = strings.ReplaceAll(s, "오늘", dateToken(now))
	s = strings.ReplaceAll(s, "내일", dateToken(now.AddDate(0, 0, 1)))
	s = strings.ReplaceAll(s, "모레", dateToken(now.AddDate(0, 0, 2)))
	return s
}

// mondayIndex converts Go's Sunday-based weekday to the Monday=0 convention
// used by the weekday table.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// substituteNextWeekday resolves "다음주 <weekday>" to the date of that
// weekday at least 7 days after now: (target - today) mod 7 + 7.
func substituteNextWeekday(s string, now time.Time) string {
	return nextWeekdayRe.ReplaceAllStringFunc(s, func(match string) string {
		m := nextWeekdayRe.FindStringSubmatch(match)
		target := weekdayIndex[m[1]]
		today := mondayIndex(now.Weekday())
		daysUntil := ((target-today)%7+7)%7 + 7
		return dateToken(now.AddDate(0, 0, daysUntil))
	})
}

// ensureYear prefixes the current year when the string carries no 4-digit
// year token. Never fires when a year is already present.
func ensureYear(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if yearTokenRe.MatchString(s) {
		return s
	}
	return fmt.Sprintf("%d년 %s", now.Year(), s)
}

// convertMeridiem rewrites 오전/오후 h시 into 24-hour "HH:00".
// Noon/midnight edge cases: 오후 12시 stays 12, 오전 12시 becomes 0.
func convertMeridiem(s string) string {
	return meridiemRe.ReplaceAllStringFunc(s, func(match string) string {
		m := meridiemRe.FindStringSubmatch(match)
		hour, _ := strconv.Atoi(m[2])
		if m[1] == "오후" && hour < 12 {
			hour += 12
		} else if m[1] == "오전" && hour == 12 {
			hour = 0
		}
		return fmt.Sprintf("%02d:00", hour)
	})
}

// canonicalize collapses the marked Korean date form into a dashed token:
// whitespace is collapsed, 년/월 markers become '-', 일 markers are stripped,
// runs of '-' are merged and stray separators trimmed.
func canonicalize(s string) string {
	s = strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
	s = yearMarkerRe.ReplaceAllString(s, "$1-")
	s = monthMarkerRe.ReplaceAllString(s, "$1-")
	s = dayMarkerRe.ReplaceAllString(s, "$1 ")
	s = multiDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "- ")
}

// parseCanonical extracts date and clock components from the canonical
// string. now acts as the relative base: a time without a date resolves to
// the next future moment matching it (today, tomorrow, or the next named
// weekday).
func (n *Normalizer) parseCanonical(s string, now time.Time) *time.Time {
	year, month, day := 0, 0, 0
	haveDate := false
	if m := canonDateRe.FindStringSubmatch(s); m != nil {
		year = atoi(m[1])
		month = atoi(m[2])
		day = atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return nil
		}
		haveDate = true
	}

	hour, minute := -1, 0
	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour = atoi(m[1])
		minute = atoi(m[2])
	} else if m := hourMarkRe.FindStringSubmatch(s); m != nil {
		hour = atoi(m[1])
	}
	if hour > 23 || minute > 59 {
		return nil
	}

	if haveDate {
		h := hour
		if h < 0 {
			h = 0
		}
		t := time.Date(year, time.Month(month), day, h, minute, 0, 0, n.loc)
		return &t
	}

	if hour < 0 {
		// Neither a date nor a clock component survived the rewrite.
		return nil
	}

	// Time-only: anchor on today and prefer the future occurrence.
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, n.loc)

	if m := weekdayRe.FindStringSubmatch(s); m != nil {
		// A bare weekday name (not handled by the 다음주 stage) resolves
		// to its next occurrence.
		target := weekdayIndex[m[1]]
		today := mondayIndex(now.Weekday())
		days := ((target-today)%7 + 7) % 7
		t = t.AddDate(0, 0, days)
		if !t.After(now) {
			t = t.AddDate(0, 0, 7)
		}
	} else if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}

	return &t
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
