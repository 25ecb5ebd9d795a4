package tradingeconomics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econcal/internal/model"
)

const samplePayload = `[
	{"Country": "United States", "Category": "Consumer Price Index CPI", "Date": "2024-07-11T12:30:00", "Actual": "3.0%"},
	{"Country": "Canada", "Category": "Inflation Rate", "Date": "2024-07-16T12:30:00"}
]`

func newTestClient(srv *httptest.Server, cache Cache) *Client {
	return NewClient(Options{
		BaseURL:       srv.URL,
		APIKey:        "test-key",
		HTTPClient:    srv.Client(),
		Cache:         cache,
		RatePerSecond: -1,
	})
}

var (
	jan2024 = model.NewDate(2024, time.January, 1)
	dec2025 = model.NewDate(2025, time.December, 31)
)

func TestFetchCalendar_FirstEndpoint(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/calendar/country/united%20states", r.URL.EscapedPath())
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("d1"))
		assert.Equal(t, "2025-12-31", r.URL.Query().Get("d2"))
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	recs := c.FetchCalendar(context.Background(), jan2024, dec2025)
	require.Len(t, recs, 2)
	assert.Equal(t, "Consumer Price Index CPI", recs[0].Title())

	// Second call is served from the cache.
	recs = c.FetchCalendar(context.Background(), jan2024, dec2025)
	require.Len(t, recs, 2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCalendar_FallsBackToAlternateEndpoints(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path != "/calendar" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Equal(t, "united states", r.URL.Query().Get("country"))
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	recs := newTestClient(srv, nil).FetchCalendar(context.Background(), jan2024, dec2025)
	assert.Len(t, recs, 2)
	assert.Equal(t, []string{"/calendar/country/united states", "/calendar"}, paths)
}

func TestFetchCalendar_AllEndpointsFail(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := NewMemoryCache(time.Hour, nil)
	c := newTestClient(srv, cache)
	recs := c.FetchCalendar(context.Background(), jan2024, dec2025)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Equal(t, int32(3), hits.Load())

	_, ok := cache.Get(rangeKey("2024-01-01", "2025-12-31"))
	assert.False(t, ok, "failures must not be cached")
}

func TestFetch_ErrorWrapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).fetch(context.Background(), "2024-01-01", "2025-12-31")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestFetchCalendar_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	recs := newTestClient(srv, nil).FetchCalendar(context.Background(), jan2024, dec2025)
	assert.Empty(t, recs)
}

func TestFetchCalendar_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Message": "No Access"}`))
	}))
	defer srv.Close()

	assert.Empty(t, newTestClient(srv, nil).FetchCalendar(context.Background(), jan2024, dec2025))
}

func TestFetchCalendar_SharedFetchOutlivesCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(srv, nil)
	recs := c.FetchCalendar(ctx, jan2024, dec2025)
	assert.Len(t, recs, 2)

	// Concurrent callers sharing one fetch all see the payload.
	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			callerCtx, callerCancel := context.WithCancel(context.Background())
			if i == 0 {
				callerCancel()
			} else {
				defer callerCancel()
			}
			results[i] = len(c.FetchCalendar(callerCtx, model.NewDate(2026, time.January, 1), model.NewDate(2027, time.December, 31)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, []int{2, 2, 2, 2}, results)
}

func TestFetchCalendar_CacheExpires(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Hour, func() time.Time { return now })
	c := newTestClient(srv, cache)

	c.FetchCalendar(context.Background(), jan2024, dec2025)
	now = now.Add(59 * time.Minute)
	c.FetchCalendar(context.Background(), jan2024, dec2025)
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(time.Minute)
	c.FetchCalendar(context.Background(), jan2024, dec2025)
	assert.Equal(t, int32(2), hits.Load())

	stored, ok := cache.storedAt(rangeKey("2024-01-01", "2025-12-31"))
	require.True(t, ok)
	assert.Equal(t, now, stored)
}

func TestFetchCalendar_CacheKeyedByRange(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	c.FetchCalendar(context.Background(), jan2024, dec2025)
	c.FetchCalendar(context.Background(), model.NewDate(2025, time.January, 1), model.NewDate(2026, time.December, 31))
	assert.Equal(t, int32(2), hits.Load())
}

func TestEventsForYear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	events := newTestClient(srv, nil).EventsForYear(context.Background(), 2024)
	require.Len(t, events, 1)
	assert.Equal(t, "event-cpi", events[0].ClassName)
	assert.Equal(t, "3.0%", events[0].ExtendedProps.Actual.Raw)
}

func TestEventsForYear_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.Empty(t, newTestClient(srv, nil).EventsForYear(context.Background(), 2024))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://api.tradingeconomics.com/calendar?...(redacted)",
		redactURL("https://api.tradingeconomics.com/calendar?c=secret"))
	assert.Equal(t, "https://api.tradingeconomics.com/calendar/country/united%20states",
		redactURL("https://api.tradingeconomics.com/calendar/country/united%20states"))
	assert.Equal(t, "te://...(redacted)", redactURL("::bad"))
}
