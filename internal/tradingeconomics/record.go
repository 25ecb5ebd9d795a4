package tradingeconomics

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"econcal/internal/model"
)

// Record is one loosely-typed calendar entry. Field names vary between
// endpoints and plans, so every accessor tries a list of aliases.
type Record map[string]any

// Alias lists, in priority order.
var (
	titleFields     = []string{"Category", "Event", "Indicator"}
	tickerFields    = []string{"Ticker", "Symbol"}
	dateFields      = []string{"Date", "DateTime", "ReleaseDate", "EventDate", "Time"}
	actualFields    = []string{"Actual", "Value"}
	forecastFields  = []string{"Forecast", "Expected"}
	previousFields  = []string{"Previous", "LastValue"}
	frequencyFields = []string{"Frequency", "Period"}
)

var errNoDate = errors.New("no parseable date field")

// Text returns the first non-empty string value among keys.
func (r Record) Text(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Title is the category/event/indicator text of the record.
func (r Record) Title() string { return r.Text(titleFields...) }

func (r Record) Ticker() string { return r.Text(tickerFields...) }

func (r Record) Country() string { return r.Text("Country") }

func (r Record) Frequency() string { return r.Text(frequencyFields...) }

// observation returns the first present value among keys.
func (r Record) observation(keys []string) *model.Observation {
	for _, k := range keys {
		if o := model.NewObservation(r[k]); o != nil {
			return o
		}
	}
	return nil
}

func (r Record) Actual() *model.Observation { return r.observation(actualFields) }

func (r Record) Forecast() *model.Observation { return r.observation(forecastFields) }

func (r Record) Previous() *model.Observation { return r.observation(previousFields) }

// When is the parsed release time of a record.
type When struct {
	// Instant is the absolute release time. For date-only values it is
	// the zero time and DateOnly is set.
	Instant  time.Time
	Date     model.Date
	DateOnly bool
}

// instantLayouts are tried in order. Layouts without an offset are read as UTC,
// which is what the calendar API uses for its timestamps.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"1/2/2006 3:04:05 PM",
}

// ReleaseTime parses the first present and valid date-like field.
func (r Record) ReleaseTime() (When, error) {
	for _, k := range dateFields {
		if w, ok := parseWhen(r[k]); ok {
			return w, nil
		}
	}
	return When{}, errNoDate
}

func parseWhen(v any) (When, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return When{}, false
		}
		for _, layout := range instantLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return When{Instant: t.UTC()}, true
			}
		}
		if d, err := model.ParseDate(s); err == nil {
			return When{Date: d, DateOnly: true}, true
		}
	case json.Number:
		// Epoch milliseconds.
		if ms, err := x.Int64(); err == nil && ms > 0 {
			return When{Instant: time.UnixMilli(ms).UTC()}, true
		}
	case float64:
		if x > 0 {
			return When{Instant: time.UnixMilli(int64(x)).UTC()}, true
		}
	}
	return When{}, false
}
