package ics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econcal/internal/indicator"
	"econcal/internal/model"
	"econcal/internal/tz"
)

func sampleEvents() []model.CalendarEvent {
	return []model.CalendarEvent{
		{
			Title:     "FOMC",
			Start:     time.Date(2024, time.January, 11, 3, 0, 0, 0, tz.Beijing),
			ClassName: "event-fomc",
			ExtendedProps: model.ExtendedProps{
				Type:   indicator.FOMC,
				ETTime: "14:00",
				BJTime: "次日 03:00",
			},
		},
		{
			Title:     "CPI",
			Start:     time.Date(2024, time.July, 11, 20, 30, 0, 0, tz.Beijing),
			ClassName: "event-cpi",
			ExtendedProps: model.ExtendedProps{
				Type:      indicator.CPI,
				ETTime:    "08:30",
				BJTime:    "20:30",
				Frequency: "Monthly",
				Actual:    model.NewObservation("3.0%"),
			},
		},
	}
}

func TestUID(t *testing.T) {
	evs := sampleEvents()
	assert.Equal(t, "fomc-20240110T1900Z@econcal", UID(evs[0]))
	assert.Equal(t, "cpi-20240711T1230Z@econcal", UID(evs[1]))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	stamp := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Encode(&buf, sampleEvents(), Options{Name: "US Macro", Stamp: stamp}))

	body := buf.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "X-WR-CALNAME:US Macro")
	assert.Contains(t, body, "DTSTART:20240110T190000Z")

	entries, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "fomc-20240110T1900Z@econcal", first.UID)
	assert.Equal(t, "FOMC", first.Summary)
	assert.True(t, first.Start.Equal(time.Date(2024, time.January, 10, 19, 0, 0, 0, time.UTC)))
	assert.Equal(t, DefaultDuration, first.End.Sub(first.Start))
	assert.Equal(t, []string{"FOMC"}, first.Categories)

	assert.Equal(t, []string{"CPI"}, entries[1].Categories)
}

func TestDescribe(t *testing.T) {
	ev := sampleEvents()[1]
	got := describe(ev, "note")
	assert.Equal(t, "美东时间: 08:30\n北京时间: 20:30\n频率: Monthly\n实际值: 3.0%\nnote", got)
}

func TestDecodeSkipsEventsWithoutUID(t *testing.T) {
	const feed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:test\r\n" +
		"BEGIN:VEVENT\r\nSUMMARY:no uid\r\nDTSTART:20240101T000000Z\r\nEND:VEVENT\r\n" +
		"BEGIN:VEVENT\r\nUID:a@b\r\nSUMMARY:ok\r\nDTSTART:20240102T000000Z\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	entries, err := Decode(bytes.NewBufferString(feed))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].Summary)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("not a calendar"))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	evs := sampleEvents()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, evs[:1], Options{}))
	entries, err := Decode(&buf)
	require.NoError(t, err)

	missing, stale := Diff(entries, evs)
	assert.Equal(t, []string{"cpi-20240711T1230Z@econcal"}, missing)
	assert.Empty(t, stale)

	missing, stale = Diff(entries, evs[1:])
	assert.Equal(t, []string{"cpi-20240711T1230Z@econcal"}, missing)
	assert.Equal(t, []string{"fomc-20240110T1900Z@econcal"}, stale)

	missing, stale = Diff(entries, evs[:1])
	assert.Empty(t, missing)
	assert.Empty(t, stale)
}
