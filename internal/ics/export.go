// Package ics renders calendar events as an iCalendar (RFC 5545) feed and
// reads such feeds back.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "econcal/internal/log"
	"econcal/internal/model"
)

const (
	productID = "-//econcal//US Economic Calendar//ZH"
	uidDomain = "econcal"

	// DefaultDuration is the length given to every release in the feed.
	DefaultDuration = 30 * time.Minute
)

// Options controls feed-level properties.
type Options struct {
	// Name is exported as X-WR-CALNAME.
	Name string
	// Note is appended to every event description (data provenance).
	Note string
	// Stamp is written as DTSTAMP. Zero means time.Now.
	Stamp time.Time
	// Duration of each event. Zero means DefaultDuration.
	Duration time.Duration
}

// UID is stable for a given indicator and release instant so that calendar
// clients update events in place across refreshes.
func UID(ev model.CalendarEvent) string {
	return fmt.Sprintf("%s-%s@%s",
		strings.ToLower(ev.ExtendedProps.Type.String()),
		ev.Start.UTC().Format("20060102T1504Z"),
		uidDomain)
}

// Build converts events into an iCalendar document.
func Build(events []model.CalendarEvent, opts Options) *ical.Calendar {
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range events {
		ve := cal.AddEvent(UID(ev))
		ve.SetDtStampTime(opts.Stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.Start.Add(opts.Duration))
		ve.SetSummary(ev.Title)
		ve.SetDescription(describe(ev, opts.Note))
		ve.SetClass(ical.ClassificationPublic)
		if ev.ExtendedProps.Type != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, ev.ExtendedProps.Type.String())
		}
	}

	return cal
}

// Encode writes the feed for events to w.
func Encode(w io.Writer, events []model.CalendarEvent, opts Options) error {
	if err := Build(events, opts).SerializeTo(w); err != nil {
		appLog.Error("ics encode failed", err, "event_count", len(events))
		return err
	}
	return nil
}

// describe renders the detail lines shown when an event is opened.
func describe(ev model.CalendarEvent, note string) string {
	p := ev.ExtendedProps
	lines := make([]string, 0, 8)
	if p.Description != "" {
		lines = append(lines, p.Description)
	}
	lines = append(lines,
		"美东时间: "+p.ETTime,
		"北京时间: "+p.BJTime,
	)
	if p.Frequency != "" {
		lines = append(lines, "频率: "+p.Frequency)
	}
	for _, o := range []struct {
		label string
		obs   *model.Observation
	}{
		{"实际值", p.Actual},
		{"预期值", p.Forecast},
		{"前值", p.Previous},
	} {
		if o.obs != nil {
			lines = append(lines, o.label+": "+o.obs.String())
		}
	}
	if note != "" {
		lines = append(lines, note)
	}
	return strings.Join(lines, "\n")
}
