package tradingeconomics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econcal/internal/indicator"
	"econcal/internal/tz"
)

func records(t *testing.T, raw string) []Record {
	t.Helper()
	out, err := decodeRecords(strings.NewReader(raw))
	require.NoError(t, err)
	return out
}

func TestMatchIndicator(t *testing.T) {
	recs := records(t, `[
		{"Country": "United States", "Category": "Consumer Price Index CPI"},
		{"Country": "Canada", "Category": "Consumer Price Index CPI"},
		{"Category": "Inflation Rate YoY"},
		{"Country": "US", "Event": "Retail Sales MoM"},
		{"Country": "united states", "Ticker": "USCPI"},
		{"Country": "United States", "Category": "Housing Starts"}
	]`)

	cpi := MatchIndicator(recs, indicator.CPI)
	require.Len(t, cpi, 3)
	assert.Equal(t, "Consumer Price Index CPI", cpi[0].Title())
	assert.Equal(t, "Inflation Rate YoY", cpi[1].Title())
	assert.Equal(t, "USCPI", cpi[2].Ticker())

	retail := MatchIndicator(recs, indicator.Retail)
	require.Len(t, retail, 1)
	assert.Equal(t, "Retail Sales MoM", retail[0].Title())

	assert.Empty(t, MatchIndicator(recs, indicator.FOMC))
}

func TestConvertToEventsExcludesOtherCountries(t *testing.T) {
	recs := records(t, `[{"Country": "Canada", "Category": "CPI", "Date": "2024-07-16T12:30:00"}]`)
	assert.Empty(t, ConvertToEvents(recs, 2024))
}

func TestConvertToEvents(t *testing.T) {
	recs := records(t, `[
		{"Country": "United States", "Category": "Consumer Price Index CPI", "Date": "2024-07-11T12:30:00",
		 "Actual": "3.0%", "Forecast": "3.1%", "Previous": "3.3%"},
		{"Country": "United States", "Category": "Non-Farm Payrolls", "Ticker": "NFP", "Date": "2024-01-05T13:30:00",
		 "Value": 216, "Expected": "170K", "LastValue": 173, "Frequency": "Monthly"},
		{"Country": "United States", "Category": "FOMC", "Date": "2024-09-18T18:00:00Z"}
	]`)

	events := ConvertToEvents(recs, 2024)
	require.Len(t, events, 3)

	// Emission order: FOMC before NFP before CPI.
	fomc, nfp, cpi := events[0], events[1], events[2]

	assert.Equal(t, indicator.Lookup(indicator.FOMC).Title, fomc.Title)
	assert.Equal(t, "event-fomc", fomc.ClassName)
	assert.Equal(t, "14:00", fomc.ExtendedProps.ETTime)
	assert.Equal(t, "次日 02:00", fomc.ExtendedProps.BJTime)
	assert.Equal(t, time.Date(2024, time.September, 19, 2, 0, 0, 0, tz.Beijing), fomc.Start)
	assert.Nil(t, fomc.ExtendedProps.Actual)

	assert.Equal(t, "08:30", nfp.ExtendedProps.ETTime)
	assert.Equal(t, "21:30", nfp.ExtendedProps.BJTime)
	assert.Equal(t, "Monthly", nfp.ExtendedProps.Frequency)
	require.NotNil(t, nfp.ExtendedProps.Actual)
	assert.Equal(t, "216", nfp.ExtendedProps.Actual.Raw)
	assert.Equal(t, "170K", nfp.ExtendedProps.Forecast.Raw)
	assert.Equal(t, "173", nfp.ExtendedProps.Previous.Raw)

	assert.Equal(t, indicator.CPI, cpi.ExtendedProps.Type)
	assert.Equal(t, "美国CPI（含核心CPI）", cpi.Title)
	assert.Equal(t, "Consumer Price Index CPI", cpi.ExtendedProps.Description)
	assert.Equal(t, indicator.Lookup(indicator.CPI).Frequency, cpi.ExtendedProps.Frequency)
	assert.Equal(t, "20:30", cpi.ExtendedProps.BJTime)
	assert.True(t, cpi.Start.Equal(time.Date(2024, time.July, 11, 12, 30, 0, 0, time.UTC)))
	assert.Equal(t, "3.0%", cpi.ExtendedProps.Actual.Raw)
}

func TestConvertToEventsYearWindow(t *testing.T) {
	recs := records(t, `[
		{"Category": "Retail Sales", "Date": "2023-12-14T13:30:00"},
		{"Category": "Retail Sales", "Date": "2024-01-17T13:30:00"},
		{"Category": "Retail Sales", "Date": "2025-01-16T13:30:00"},
		{"Category": "Retail Sales", "Date": "2026-01-15T13:30:00"}
	]`)
	events := ConvertToEvents(recs, 2024)
	require.Len(t, events, 2)
	assert.Equal(t, 2024, events[0].Start.Year())
	assert.Equal(t, 2025, events[1].Start.Year())
}

func TestConvertToEventsSkipsBadDates(t *testing.T) {
	recs := records(t, `[
		{"Category": "PPI", "Date": "not a date"},
		{"Category": "PPI"},
		{"Category": "PPI", "Date": "", "ReleaseDate": "2024-02-15T13:30:00"},
		{"Category": "PPI", "Date": "garbage", "DateTime": "2024-03-14T12:30:00"}
	]`)
	events := ConvertToEvents(recs, 2024)
	require.Len(t, events, 2)
	assert.Equal(t, time.February, events[0].Start.Month())
	assert.Equal(t, time.March, events[1].Start.Month())
}

func TestConvertToEventsDateOnlyUsesReleaseClock(t *testing.T) {
	recs := records(t, `[{"Category": "ISM Manufacturing PMI", "Date": "2024-12-02"}]`)
	events := ConvertToEvents(recs, 2024)
	require.Len(t, events, 1)
	assert.Equal(t, "10:00", events[0].ExtendedProps.ETTime)
	assert.Equal(t, "23:00", events[0].ExtendedProps.BJTime)
}

func TestConvertToEventsEmpty(t *testing.T) {
	assert.Empty(t, ConvertToEvents(nil, 2024))
	assert.NotNil(t, ConvertToEvents(nil, 2024))
}

func TestReleaseTimeEpochMillis(t *testing.T) {
	var r Record
	dec := json.NewDecoder(strings.NewReader(`{"Time": 1720701000000}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&r))

	w, err := r.ReleaseTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.July, 11, 12, 30, 0, 0, time.UTC), w.Instant)
}
