package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Observation is an indicator value as delivered by the remote calendar.
// Raw keeps the text untouched ("3.4%", "256K", "5.25"); Value holds the
// numeric part when one could be parsed.
type Observation struct {
	Raw   string
	Value decimal.NullDecimal
	// Unit is the suffix stripped from Raw before parsing, if any.
	Unit string
}

var observationUnits = []string{"%", "K", "M", "B", "T"}

// NewObservation converts a loosely-typed JSON value into an Observation.
// nil, empty strings and non-scalar values yield nil.
func NewObservation(v any) *Observation {
	var raw string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		raw = strings.TrimSpace(x)
	case float64:
		raw = strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		raw = x.String()
	case int:
		raw = strconv.Itoa(x)
	case int64:
		raw = strconv.FormatInt(x, 10)
	default:
		return nil
	}
	if raw == "" {
		return nil
	}

	obs := &Observation{Raw: raw}
	num := raw
	for _, u := range observationUnits {
		if strings.HasSuffix(num, u) {
			obs.Unit = u
			num = strings.TrimSpace(strings.TrimSuffix(num, u))
			break
		}
	}
	if d, err := decimal.NewFromString(num); err == nil {
		obs.Value = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return obs
}

// MarshalJSON emits a plain number when the value is unit-less and numeric,
// otherwise the raw text.
func (o Observation) MarshalJSON() ([]byte, error) {
	if o.Value.Valid && o.Unit == "" {
		return []byte(o.Value.Decimal.String()), nil
	}
	return json.Marshal(o.Raw)
}

func (o *Observation) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	parsed := NewObservation(v)
	if parsed == nil {
		*o = Observation{}
		return nil
	}
	*o = *parsed
	return nil
}

func (o Observation) String() string { return o.Raw }
