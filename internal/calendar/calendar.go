// Package calendar assembles the events handed to the rendering layer:
// computed events from the rule engine, remote events from the economic
// calendar API, and the fallback between the two.
package calendar

import (
	"context"
	"time"

	"econcal/internal/indicator"
	appLog "econcal/internal/log"
	"econcal/internal/model"
	"econcal/internal/schedule"
	"econcal/internal/tz"
)

// Source names where a list of events came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceComputed Source = "computed"
)

// Mode selects which sources a Provider may use.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeAPI      Mode = "api"
	ModeComputed Mode = "computed"
)

// ParseMode maps a query/config value onto a Mode; unknown values are auto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeAPI, ModeComputed:
		return Mode(s)
	default:
		return ModeAuto
	}
}

// BuildEvents converts the computed schedule of year into calendar events.
func BuildEvents(year int) []model.CalendarEvent {
	return FromOccurrences(schedule.Generate(year))
}

// FromOccurrences converts occurrences into events. Start is the absolute
// release instant expressed in Beijing time.
func FromOccurrences(occ []model.Occurrence) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(occ))
	for _, o := range occ {
		spec := indicator.Lookup(o.Type)
		et := o.Date.At(o.ReleaseET, time.UTC)
		bj := tz.ReleaseInstant(o.Date, o.ReleaseET)

		out = append(out, model.CalendarEvent{
			Title:     spec.Title,
			Start:     bj,
			ClassName: spec.ClassName,
			ExtendedProps: model.ExtendedProps{
				Type:        o.Type,
				ETTime:      tz.DisplayET(et),
				BJTime:      tz.DisplayBJ(et, bj),
				Frequency:   o.Frequency,
				Description: o.Description,
			},
		})
	}
	return out
}

// RemoteSource supplies events from a live calendar. An empty result means
// "no remote data".
type RemoteSource interface {
	EventsForYear(ctx context.Context, year int) []model.CalendarEvent
}

// Provider picks between remote and computed events.
type Provider struct {
	remote RemoteSource
	mode   Mode
}

// NewProvider returns a Provider. A nil remote forces computed events.
func NewProvider(remote RemoteSource, mode Mode) *Provider {
	if remote == nil {
		mode = ModeComputed
	}
	return &Provider{remote: remote, mode: mode}
}

// Events returns the events for year and where they came from. In auto mode
// the remote calendar is preferred and the computed schedule used whenever
// it comes back empty. ModeAPI never falls back.
func (p *Provider) Events(ctx context.Context, year int) ([]model.CalendarEvent, Source) {
	return p.EventsWithMode(ctx, year, p.mode)
}

// EventsWithMode is Events with a per-call mode override. Asking for the API
// on a Provider without a remote source yields computed events.
func (p *Provider) EventsWithMode(ctx context.Context, year int, mode Mode) ([]model.CalendarEvent, Source) {
	if p.remote == nil || mode == ModeComputed {
		return BuildEvents(year), SourceComputed
	}

	events := p.remote.EventsForYear(ctx, year)
	if len(events) > 0 || mode == ModeAPI {
		return events, SourceAPI
	}

	appLog.Warn("remote calendar returned no events, using computed schedule", "year", year)
	return BuildEvents(year), SourceComputed
}

// Note is the provenance hint shown alongside event details.
func Note(src Source) string {
	if src == SourceAPI {
		return "✅ 数据来源：TradingEconomics API"
	}
	return "⚠️ 注意：日期基于公布的规律计算，实际公布日期可能因节假日等因素有所调整"
}
