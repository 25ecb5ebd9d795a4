package tradingeconomics

import (
	"strings"
	"time"

	"econcal/internal/indicator"
	appLog "econcal/internal/log"
	"econcal/internal/model"
	"econcal/internal/tz"
)

// usCountries are the accepted spellings of the United States.
var usCountries = map[string]bool{
	"united states":            true,
	"united states of america": true,
	"us":                       true,
	"usa":                      true,
	"u.s.":                     true,
	"u.s.a.":                   true,
}

// MatchIndicator keeps the records that belong to the United States (or carry
// no country) and whose title or ticker contains one of t's keywords.
func MatchIndicator(records []Record, t indicator.Type) []Record {
	keywords := indicator.Lookup(t).Keywords
	out := make([]Record, 0)
	for _, r := range records {
		country := strings.ToLower(r.Country())
		if country != "" && !usCountries[country] {
			continue
		}
		title := strings.ToLower(r.Title())
		ticker := strings.ToLower(r.Ticker())
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(title, kw) || strings.Contains(ticker, kw) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// ConvertToEvents turns remote records into calendar events for year (and
// the year after it), grouped by indicator type in the fixed emission order.
// A record matching several indicators yields one event per indicator.
// Records without a usable date, or dated outside the two years, are skipped.
func ConvertToEvents(records []Record, year int) []model.CalendarEvent {
	events := make([]model.CalendarEvent, 0)
	if len(records) == 0 {
		return events
	}

	for _, t := range indicator.All() {
		spec := indicator.Lookup(t)
		for _, r := range MatchIndicator(records, t) {
			ev, ok := toEvent(r, spec, year)
			if !ok {
				continue
			}
			events = append(events, ev)
		}
	}
	return events
}

func toEvent(r Record, spec indicator.Spec, year int) (model.CalendarEvent, bool) {
	when, err := r.ReleaseTime()
	if err != nil {
		appLog.Debug("te record skipped", "reason", err.Error(), "title", r.Title())
		return model.CalendarEvent{}, false
	}

	var et time.Time
	if when.DateOnly {
		// No time of day: assume the indicator's usual release clock.
		et = when.Date.At(spec.Release, time.UTC)
	} else {
		et = tz.EasternWall(when.Instant)
	}

	etDate := model.DateOf(et)
	if etDate.Year != year && etDate.Year != year+1 {
		return model.CalendarEvent{}, false
	}

	bj := tz.EasternToBeijing(et, tz.IsDaylightSavingTime(etDate))

	frequency := r.Frequency()
	if frequency == "" {
		frequency = spec.Frequency
	}

	return model.CalendarEvent{
		Title:     spec.Title,
		Start:     bj,
		ClassName: spec.ClassName,
		ExtendedProps: model.ExtendedProps{
			Type:        spec.Type,
			ETTime:      tz.DisplayET(et),
			BJTime:      tz.DisplayBJ(et, bj),
			Frequency:   frequency,
			Description: r.Title(),
			Actual:      r.Actual(),
			Forecast:    r.Forecast(),
			Previous:    r.Previous(),
		},
	}, true
}
