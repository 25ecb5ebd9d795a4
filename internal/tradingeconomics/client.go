// Package tradingeconomics reconciles the computed release schedule with the
// TradingEconomics economic calendar. Every public entry point degrades to an
// empty result when the remote service cannot be used, so callers treat
// "empty" as "use the computed schedule".
package tradingeconomics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	appLog "econcal/internal/log"
	"econcal/internal/model"
)

const (
	DefaultBaseURL = "https://api.tradingeconomics.com"
	// GuestKey is the anonymous credential accepted by the API.
	GuestKey = "guest:guest"

	country = "united states"
)

// ErrUnavailable is returned by fetch when no endpoint produced a payload.
var ErrUnavailable = errors.New("tradingeconomics: calendar unavailable")

// StatusError records a non-2xx response from one endpoint.
type StatusError struct {
	Code     int
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.Endpoint)
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Cache      Cache
	// RatePerSecond paces outgoing requests. Zero means 1 request/second;
	// negative disables pacing.
	RatePerSecond float64
}

// Client fetches the U.S. economic calendar.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   Cache
	limiter *rate.Limiter
	group   singleflight.Group
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIKey == "" {
		opts.APIKey = GuestKey
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache(DefaultCacheTTL, nil)
	}

	limit := rate.Inf
	switch {
	case opts.RatePerSecond == 0:
		limit = rate.Limit(1)
	case opts.RatePerSecond > 0:
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    opts.HTTPClient,
		cache:   opts.Cache,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// endpoints lists the URL shapes tried in order for a date range.
func (c *Client) endpoints(start, end string) []string {
	path := "/calendar/country/" + url.PathEscape(country)
	q := url.Values{}
	q.Set("d1", start)
	q.Set("d2", end)

	alt := url.Values{}
	alt.Set("country", country)
	alt.Set("d1", start)
	alt.Set("d2", end)

	return []string{
		c.baseURL + path + "?" + q.Encode(),
		c.baseURL + "/calendar?" + alt.Encode(),
		c.baseURL + path,
	}
}

// FetchCalendar returns the raw calendar between start and end (inclusive).
// Successful payloads are cached per range. When every endpoint fails the
// error is logged and an empty slice returned.
func (c *Client) FetchCalendar(ctx context.Context, start, end model.Date) []Record {
	key := rangeKey(start.String(), end.String())
	if records, ok := c.cache.Get(key); ok {
		appLog.Debug("te calendar cache hit", "range", key, "records", len(records))
		return records
	}

	// The fetch is shared by every caller waiting on key, so it must not die
	// with whichever request happened to start it.
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), start.String(), end.String())
	})
	if err != nil {
		appLog.Error("te calendar fetch failed", err, "range", key)
		return []Record{}
	}
	records := v.([]Record)
	appLog.Info("te calendar fetched", "range", key, "records", len(records), "shared", shared)
	return records
}

func (c *Client) fetch(ctx context.Context, start, end string) ([]Record, error) {
	urls := c.endpoints(start, end)

	var lastErr error
	for _, u := range urls {
		resp, err := c.get(ctx, u)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			appLog.Warn("te endpoint failed", "url", redactURL(u), "err", err)
			continue
		}

		records, err := decodeRecords(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", redactURL(u), err)
		}

		c.cache.Set(rangeKey(start, end), records)
		return records, nil
	}

	return nil, fmt.Errorf("%w after %d endpoints: %w", ErrUnavailable, len(urls), lastErr)
}

// get issues one request and returns the response only for a 2xx status.
func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Endpoint: redactURL(u)}
	}
	return resp, nil
}

func decodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// EventsForYear fetches the calendar for year and the year after and
// converts it to events. Any failure yields an empty slice.
func (c *Client) EventsForYear(ctx context.Context, year int) []model.CalendarEvent {
	start := model.NewDate(year, time.January, 1)
	end := model.NewDate(year+1, time.December, 31)
	return ConvertToEvents(c.FetchCalendar(ctx, start, end), year)
}

// redactURL keeps scheme, host and path of u and hides the query, which may
// carry credentials on some plans.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "te://...(redacted)"
	}
	out := parsed.Scheme + "://" + parsed.Host + parsed.EscapedPath()
	if parsed.RawQuery != "" {
		out += "?...(redacted)"
	}
	return out
}
