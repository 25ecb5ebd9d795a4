package model

import (
	"fmt"
	"time"

	"econcal/internal/indicator"
)

// Date is a civil calendar date with no time-of-day and no zone attached.
// Arithmetic is done through time.Date in UTC so results never depend on
// the process timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes the given fields the way time.Date does
// (e.g. February 30 becomes March 1 or 2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the civil date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }

func (d Date) AddDays(n int) Date { return DateOf(d.utc().AddDate(0, 0, n)) }

func (d Date) Before(o Date) bool { return d.utc().Before(o.utc()) }

func (d Date) After(o Date) bool { return d.utc().After(o.utc()) }

// IsWeekend reports whether d is a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// At returns the wall-clock instant hour:minute on d in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Clock is a fixed hour:minute release time.
type Clock = indicator.Clock

// Occurrence is one scheduled release of an indicator, dated in U.S.
// Eastern civil time.
type Occurrence struct {
	Type        indicator.Type `json:"type"`
	Date        Date           `json:"date"`
	ReleaseET   Clock          `json:"release_et"`
	Frequency   string         `json:"frequency"`
	Description string         `json:"description"`
}

// NewOccurrence fills the per-type constants from the indicator table.
func NewOccurrence(t indicator.Type, d Date) Occurrence {
	spec := indicator.Lookup(t)
	return Occurrence{
		Type:        t,
		Date:        d,
		ReleaseET:   spec.Release,
		Frequency:   spec.Frequency,
		Description: spec.Description,
	}
}

// CalendarEvent is the shape handed to the rendering layer, regardless of
// whether it was computed or sourced from the remote calendar.
type CalendarEvent struct {
	Title         string        `json:"title"`
	Start         time.Time     `json:"start"`
	ClassName     string        `json:"className"`
	ExtendedProps ExtendedProps `json:"extendedProps"`
}

// ExtendedProps is the flat detail bag shown when an event is opened.
type ExtendedProps struct {
	Type        indicator.Type `json:"type"`
	ETTime      string         `json:"etTime"`
	BJTime      string         `json:"bjTime"`
	Frequency   string         `json:"frequency"`
	Description string         `json:"description"`
	Actual      *Observation   `json:"actual"`
	Forecast    *Observation   `json:"forecast"`
	Previous    *Observation   `json:"previous"`
}
