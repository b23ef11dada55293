// Package icsfeed provides a read-only source of existing events backed by
// ICS subscriptions. It is consulted by the duplicate report endpoint in
// addition to Google Calendar; it cannot take writes.
package icsfeed

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "kscal/internal/log"
	"kscal/internal/model"
)

// maxOccurrencesPerEvent caps recurrence expansion per VEVENT as a safety
// net against pathological rules.
const maxOccurrencesPerEvent = 5000

// parsedEvent is the normalized representation of a VEVENT before
// recurrence expansion.
type parsedEvent struct {
	source Source

	uid      string
	summary  string
	location string

	start  time.Time
	end    time.Time
	allDay bool

	rawRRule   string
	exDates    []time.Time
	recurrence *time.Time // RECURRENCE-ID (if present)
	isOverride bool
}

// Feed lists existing events from one or more ICS subscriptions. It
// implements calendar.Lister.
type Feed struct {
	fetcher *Fetcher
	sources []Source
	tz      *time.Location
}

// New builds a Feed over the given sources. tz is the civil timezone all
// occurrence boundaries are converted into; nil means time.Local.
func New(cacheDir string, sources []Source, tz *time.Location) *Feed {
	if tz == nil {
		tz = time.Local
	}
	return &Feed{
		fetcher: NewFetcher(cacheDir),
		sources: sources,
		tz:      tz,
	}
}

// ListEvents fetches and expands all subscriptions into concrete events
// overlapping [timeMin, timeMax), sorted by start time. Individual source
// failures are logged and skipped; an error is returned only when every
// source failed.
func (f *Feed) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.Event, error) {
	if len(f.sources) == 0 {
		return nil, nil
	}

	results, errs := f.fetcher.FetchAll(ctx, f.sources)
	if len(results) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	parsed := make([]parsedEvent, 0)
	for _, res := range results {
		events, err := parseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("ics parse failed for source", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, events...)
	}

	events := expand(parsed, timeMin, timeMax, f.tz)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	appLog.Debug("ics feed listed",
		"sources", len(f.sources),
		"time_min", timeMin.Format(time.RFC3339),
		"count", len(events),
	)
	return events, nil
}

// parseICS parses a single ICS payload. It relies on the library's
// VTIMEZONE/TZID handling for time.Time construction, detects all-day
// events from the DTSTART value format, and records RRULE/EXDATE/
// RECURRENCE-ID without expanding them.
func parseICS(src Source, body []byte) ([]parsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]parsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent
	out.source = src

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}

	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.start = start
	out.end = end

	// All-day detection: VALUE=DATE or a DTSTART value without 'T'.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.allDay = true
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.allDay = true
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.rawRRule = rruleProp.Value
	}

	// EXDATE may appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.recurrence = &t
			out.isOverride = true
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. Simplified helper
// for EXDATE/RECURRENCE-ID where full parameter context is unavailable.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, time.Local)
}

// expand materializes parsed events into concrete instances within
// [rangeStart, rangeEnd), applying RRULE/EXDATE/RECURRENCE-ID semantics and
// converting boundaries into tz.
func expand(events []parsedEvent, rangeStart, rangeEnd time.Time, tz *time.Location) []model.Event {
	// Group base events and overrides by UID.
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	uidOrder := make([]string, 0)

	for _, ev := range events {
		if ev.isOverride && ev.recurrence != nil {
			overridesByUID[ev.uid] = append(overridesByUID[ev.uid], ev)
			continue
		}
		if _, ok := baseByUID[ev.uid]; !ok {
			uidOrder = append(uidOrder, ev.uid)
		}
		baseByUID[ev.uid] = append(baseByUID[ev.uid], ev)
	}

	out := make([]model.Event, 0)
	for _, uid := range uidOrder {
		for _, ev := range baseByUID[uid] {
			out = append(out, expandEvent(ev, overridesByUID[uid], rangeStart, rangeEnd, tz)...)
		}
	}
	return out
}

func expandEvent(ev parsedEvent, overrides []parsedEvent, rangeStart, rangeEnd time.Time, tz *time.Location) []model.Event {
	if ev.rawRRule == "" {
		if !rangesOverlap(ev.start, ev.end, rangeStart, rangeEnd) {
			return nil
		}
		start, end, src := ev.start, ev.end, ev
		if o, ok := findOverrideForStart(overrides, start); ok {
			start, end, src = o.start, o.end, o
		}
		return []model.Event{makeEvent(src, start, end, tz)}
	}

	r, err := rrule.StrToRRule(ev.rawRRule)
	if err != nil {
		appLog.Warn("ics rrule unparseable; event skipped", "uid", ev.uid, "rrule", ev.rawRRule, "reason", err)
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		// Best effort: align EXDATE location with event's start.
		set.ExDate(ex.In(ev.start.Location()))
	}

	occTimes := set.Between(rangeStart.In(ev.start.Location()), rangeEnd.In(ev.start.Location()), true)
	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Warn("ics recurrence truncated", "uid", ev.uid, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	out := make([]model.Event, 0, len(occTimes))
	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.allDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(ev.end.Sub(ev.start))
		}

		start, end, src := occStart, occEnd, ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			start, end, src = o.start, o.end, o
		}
		out = append(out, makeEvent(src, start, end, tz))
	}
	return out
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches the
// given instance start with exact time equality.
func findOverrideForStart(overrides []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.recurrence == nil {
			continue
		}
		if ov.recurrence.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

// makeEvent converts a (possibly overridden) parsed event plus one concrete
// start/end into a model.Event in the civil timezone. The synthesized ID is
// stable per instance so repeated duplicate checks agree with each other.
func makeEvent(ev parsedEvent, start, end time.Time, tz *time.Location) model.Event {
	startLocal := start.In(tz)
	return model.Event{
		ID:       ev.uid + "/" + startLocal.Format(time.RFC3339),
		Summary:  ev.summary,
		Location: ev.location,
		Start:    startLocal,
		End:      end.In(tz),
	}
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
