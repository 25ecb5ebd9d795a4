package ics

import (
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "econcal/internal/log"
	"econcal/internal/model"
)

// Entry is the normalized view of one VEVENT in a feed.
type Entry struct {
	UID         string
	Summary     string
	Description string
	Categories  []string
	Start       time.Time
	End         time.Time
}

// Decode parses a feed. Events without a UID or a start are skipped and
// logged rather than failing the whole document.
func Decode(r io.Reader) ([]Entry, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	entries := make([]Entry, 0)
	for _, ve := range cal.Events() {
		e, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "err", perr)
			continue
		}
		entries = append(entries, e)
	}

	appLog.Debug("ics parse completed", "event_count", len(entries))
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (Entry, error) {
	var out Entry

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}

	return out, nil
}

// Diff compares a decoded feed with the events it should contain. missing
// lists UIDs of events absent from the feed; stale lists feed UIDs that no
// longer match any event. Both are sorted.
func Diff(entries []Entry, events []model.CalendarEvent) (missing, stale []string) {
	have := make(map[string]bool, len(entries))
	for _, e := range entries {
		have[e.UID] = true
	}
	want := make(map[string]bool, len(events))
	for _, ev := range events {
		uid := UID(ev)
		want[uid] = true
		if !have[uid] {
			missing = append(missing, uid)
		}
	}
	for uid := range have {
		if !want[uid] {
			stale = append(stale, uid)
		}
	}
	sort.Strings(missing)
	sort.Strings(stale)
	return missing, stale
}
