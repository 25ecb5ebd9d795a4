package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/feeds"

	"econcal/internal/calendar"
	"econcal/internal/ics"
	"econcal/internal/model"
	"econcal/internal/tz"
)

const (
	defaultFeedDays = 14
	maxFeedDays     = 366
)

// upcoming returns the events starting within [from, from+days), drawing
// from the years the window touches. Remote year lists overlap (each one
// also carries the following year), so events are de-duplicated by UID.
func (s *Server) upcoming(r *http.Request, from time.Time, days int) ([]model.CalendarEvent, calendar.Source) {
	until := from.AddDate(0, 0, days)
	mode := s.modeParam(r)

	var (
		out  []model.CalendarEvent
		src  calendar.Source
		seen = make(map[string]bool)
	)
	for year := from.In(tz.Beijing).Year(); year <= until.In(tz.Beijing).Year(); year++ {
		events, ysrc := s.events(r.Context(), year, mode)
		if src == "" || ysrc == calendar.SourceComputed {
			src = ysrc
		}
		for _, ev := range events {
			if ev.Start.Before(from) || !ev.Start.Before(until) {
				continue
			}
			uid := ics.UID(ev)
			if seen[uid] {
				continue
			}
			seen[uid] = true
			out = append(out, ev)
		}
	}
	return out, src
}

// handleFeed serves the upcoming releases as Atom (default) or RSS.
//
// GET /feed?days=14&format=atom|rss&source=...
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), defaultFeedDays)
	if days <= 0 || days > maxFeedDays {
		writeError(w, http.StatusBadRequest, "days must be between 1 and "+strconv.Itoa(maxFeedDays))
		return
	}

	now := s.now()
	events, src := s.upcoming(r, now, days)

	feed := &feeds.Feed{
		Title:       "美国宏观经济日历",
		Link:        &feeds.Link{Href: "/calendar.ics"},
		Description: calendar.Note(src),
		Created:     now,
	}
	for _, ev := range events {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          ics.UID(ev),
			Title:       ev.Title + " " + ev.ExtendedProps.BJTime,
			Link:        &feeds.Link{Href: "/api/events?year=" + strconv.Itoa(ev.Start.Year())},
			Description: ev.ExtendedProps.Description,
			Created:     ev.Start,
		})
	}

	var (
		body        string
		err         error
		contentType string
	)
	switch q.Get("format") {
	case "rss":
		body, err = feed.ToRss()
		contentType = "application/rss+xml; charset=utf-8"
	case "", "atom":
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	default:
		writeError(w, http.StatusBadRequest, "format must be atom or rss")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode feed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
