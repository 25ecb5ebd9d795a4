package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"econcal/internal/calendar"
	"econcal/internal/config"
	"econcal/internal/ics"
	"econcal/internal/indicator"
	appLog "econcal/internal/log"
	"econcal/internal/model"
	"econcal/internal/schedule"
	"econcal/internal/tz"
)

const (
	minYear = 1
	maxYear = 9999
)

// Server exposes the calendar over HTTP: JSON event lists for the
// front-end, the raw computed schedule, a DST helper, an iCalendar feed
// and an Atom/RSS feed of upcoming releases.
type Server struct {
	cfg      *config.Config
	provider *calendar.Provider
	router   chi.Router
	now      func() time.Time

	// Built event lists keyed by year and mode. Building the computed
	// schedule is cheap, but the remote path costs an HTTP round trip.
	eventsMu    sync.RWMutex
	eventsCache map[eventsKey]*eventsCache
}

type eventsKey struct {
	year int
	mode calendar.Mode
}

// eventsCache holds a built event list and its timestamp.
type eventsCache struct {
	events    []model.CalendarEvent
	source    calendar.Source
	updatedAt time.Time
}

// NewServer constructs a new Server. A nil now selects time.Now.
func NewServer(cfg *config.Config, provider *calendar.Provider, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg:         cfg,
		provider:    provider,
		now:         now,
		eventsCache: make(map[eventsKey]*eventsCache),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards every handler except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="econcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(recoveryLoggingMiddleware)
	r.Use(requestLoggingMiddleware)

	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization"},
		MaxAge:         300,
	}))

	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		r.Use(s.basicAuthMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/occurrences", s.handleOccurrences)
	r.Get("/api/indicators", s.handleIndicators)
	r.Get("/api/dst", s.handleDST)
	r.Get("/calendar.ics", s.handleICS)
	r.Get("/feed", s.handleFeed)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Year   int                   `json:"year"`
	Source calendar.Source       `json:"source"`
	Note   string                `json:"note"`
	Events []model.CalendarEvent `json:"events"`
}

// handleEvents returns the calendar events for one year.
//
// GET /api/events?year=2024&source=auto|api|computed
//   - year:   defaults to the current year in Beijing
//   - source: defaults to the configured mode
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r)
	if !ok {
		return
	}
	mode := s.modeParam(r)

	events, src := s.events(r.Context(), year, mode)
	writeJSON(w, http.StatusOK, eventsResponse{
		Year:   year,
		Source: src,
		Note:   calendar.Note(src),
		Events: events,
	})
}

// handleOccurrences exposes the raw computed schedule in Eastern dates.
//
// GET /api/occurrences?year=2024&type=CPI
//   - type: optional indicator filter
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r)
	if !ok {
		return
	}
	occ := schedule.Generate(year)

	raw := r.URL.Query().Get("type")
	if raw == "" {
		writeJSON(w, http.StatusOK, occ)
		return
	}
	typ := indicator.Type(raw)
	if !typ.Valid() {
		writeError(w, http.StatusBadRequest, "unknown indicator type")
		return
	}
	filtered := schedule.ByType(occ)[typ]
	if filtered == nil {
		filtered = []model.Occurrence{}
	}
	writeJSON(w, http.StatusOK, filtered)
}

type indicatorDTO struct {
	Type        indicator.Type  `json:"type"`
	Title       string          `json:"title"`
	ClassName   string          `json:"className"`
	Release     indicator.Clock `json:"releaseET"`
	Frequency   string          `json:"frequency"`
	Description string          `json:"description"`
}

func (s *Server) handleIndicators(w http.ResponseWriter, _ *http.Request) {
	types := indicator.All()
	out := make([]indicatorDTO, 0, len(types))
	for _, t := range types {
		spec := indicator.Lookup(t)
		out = append(out, indicatorDTO{
			Type:        spec.Type,
			Title:       spec.Title,
			ClassName:   spec.ClassName,
			Release:     spec.Release,
			Frequency:   spec.Frequency,
			Description: spec.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type dstResponse struct {
	Date         model.Date `json:"date"`
	IsDST        bool       `json:"isDST"`
	EasternZone  string     `json:"easternZone"`
	OffsetToBJHr int        `json:"offsetToBeijingHours"`
}

// handleDST reports the Eastern DST state for ?date=YYYY-MM-DD (default
// today in Beijing).
func (s *Server) handleDST(w http.ResponseWriter, r *http.Request) {
	d := model.DateOf(s.now().In(tz.Beijing))
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		d = parsed
	}

	isDST := tz.IsDaylightSavingTime(d)
	zone, _ := d.At(model.Clock{}, tz.Eastern(isDST)).Zone()
	shift := 13
	if isDST {
		shift = 12
	}
	writeJSON(w, http.StatusOK, dstResponse{Date: d, IsDST: isDST, EasternZone: zone, OffsetToBJHr: shift})
}

// handleICS serves the events for one year as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r)
	if !ok {
		return
	}
	events, src := s.events(r.Context(), year, s.modeParam(r))

	var buf bytes.Buffer
	err := ics.Encode(&buf, events, ics.Options{
		Name:  "美国宏观经济日历 " + strconv.Itoa(year),
		Note:  calendar.Note(src),
		Stamp: s.now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="econcal-`+strconv.Itoa(year)+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// events returns the cached event list for (year, mode), rebuilding it when
// missing or older than the configured TTL.
func (s *Server) events(ctx context.Context, year int, mode calendar.Mode) ([]model.CalendarEvent, calendar.Source) {
	key := eventsKey{year: year, mode: mode}
	now := s.now()

	s.eventsMu.RLock()
	ec := s.eventsCache[key]
	s.eventsMu.RUnlock()
	if ec != nil && now.Sub(ec.updatedAt) < s.eventsTTL() {
		return ec.events, ec.source
	}

	return s.rebuild(ctx, key)
}

func (s *Server) rebuild(ctx context.Context, key eventsKey) ([]model.CalendarEvent, calendar.Source) {
	events, src := s.provider.EventsWithMode(ctx, key.year, key.mode)
	appLog.Debug("events built", "year", key.year, "mode", key.mode, "source", src, "count", len(events))

	s.eventsMu.Lock()
	s.eventsCache[key] = &eventsCache{events: events, source: src, updatedAt: s.now()}
	s.eventsMu.Unlock()
	return events, src
}

// Warm rebuilds the cached event list for year in the configured mode. The
// refresh scheduler calls it so requests rarely wait on the remote API.
func (s *Server) Warm(ctx context.Context, year int) {
	_, src := s.rebuild(ctx, eventsKey{year: year, mode: s.defaultMode()})
	appLog.Info("events cache warmed", "year", year, "source", src)
}

func (s *Server) eventsTTL() time.Duration {
	if s.cfg == nil || s.cfg.EventsCacheTTL <= 0 {
		return 10 * time.Minute
	}
	return s.cfg.EventsCacheTTL
}

func (s *Server) defaultMode() calendar.Mode {
	if s.cfg == nil {
		return calendar.ModeAuto
	}
	return calendar.ParseMode(s.cfg.Source)
}

func (s *Server) modeParam(r *http.Request) calendar.Mode {
	if v := r.URL.Query().Get("source"); v != "" {
		return calendar.ParseMode(v)
	}
	return s.defaultMode()
}

// yearParam reads ?year=, defaulting to the current year in Beijing. It
// writes a 400 and returns false when the value is out of range.
func (s *Server) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year := parseIntDefault(r.URL.Query().Get("year"), s.now().In(tz.Beijing).Year())
	if year < minYear || year > maxYear {
		writeError(w, http.StatusBadRequest, "year out of range")
		return 0, false
	}
	return year, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	if lw, ok := w.(*loggingResponseWriter); ok {
		lw.errorMessage = msg
	}
	writeJSON(w, status, errResp{Error: msg})
}
