package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"econcal/internal/calendar"
	"econcal/internal/config"
	"econcal/internal/ics"
	appLog "econcal/internal/log"
	"econcal/internal/refresh"
	"econcal/internal/tradingeconomics"
	"econcal/internal/tz"
	"econcal/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	source     string
	once       bool
	verify     string
	year       int
	format     string
}

// errFeedOutOfDate is returned by verifyFeed when a published feed no longer
// matches the current schedule.
var errFeedOutOfDate = errors.New("feed out of date")

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(flags.envFile); err != nil {
		appLog.Error("failed to load env file", err, "env_file", flags.envFile)
		os.Exit(1)
	}

	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.source != "" {
		conf.Source = flags.source
		conf.Normalize()
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("econcal starting",
		"version", version,
		"listen", conf.Listen,
		"source", conf.Source,
		"refresh", conf.RefreshCron,
		"api_base", conf.API.BaseURL,
		"api_key_set", conf.API.Key != "",
		"cache_dir", conf.API.CacheDir,
		"once", flags.once,
	)

	provider := calendar.NewProvider(newClient(conf), calendar.ParseMode(conf.Source))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.verify != "" {
		if err := verifyFile(ctx, os.Stdout, provider, flags); err != nil {
			appLog.Error("feed verification failed", err, "path", flags.verify)
			os.Exit(1)
		}
		return
	}

	if flags.once {
		if err := runOnce(ctx, os.Stdout, provider, flags); err != nil {
			appLog.Error("one-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, conf, provider); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("econcal exiting")
}

func newClient(conf *config.Config) *tradingeconomics.Client {
	var cache tradingeconomics.Cache
	if conf.API.CacheDir != "" {
		cache = tradingeconomics.NewDiskCache(conf.API.CacheDir, conf.API.CacheTTL, nil)
	} else {
		cache = tradingeconomics.NewMemoryCache(conf.API.CacheTTL, nil)
	}
	return tradingeconomics.NewClient(tradingeconomics.Options{
		BaseURL:       conf.API.BaseURL,
		APIKey:        conf.API.Key,
		HTTPClient:    &http.Client{Timeout: conf.API.Timeout},
		Cache:         cache,
		RatePerSecond: conf.API.RatePerSecond,
	})
}

// runOnce builds the events for one year and writes them to w as JSON or
// an iCalendar feed.
func runOnce(ctx context.Context, w io.Writer, provider *calendar.Provider, flags flagConfig) error {
	year := flags.year
	if year == 0 {
		year = time.Now().In(tz.Beijing).Year()
	}
	events, src := provider.Events(ctx, year)
	appLog.Info("events built", "year", year, "source", src, "count", len(events))

	switch flags.format {
	case "ics":
		return ics.Encode(w, events, ics.Options{
			Name: fmt.Sprintf("美国宏观经济日历 %d", year),
			Note: calendar.Note(src),
		})
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Year   int             `json:"year"`
			Source calendar.Source `json:"source"`
			Note   string          `json:"note"`
			Events any             `json:"events"`
		}{year, src, calendar.Note(src), events})
	default:
		return fmt.Errorf("unknown format %q", flags.format)
	}
}

func verifyFile(ctx context.Context, w io.Writer, provider *calendar.Provider, flags flagConfig) error {
	f, err := os.Open(flags.verify)
	if err != nil {
		return err
	}
	defer f.Close()
	return verifyFeed(ctx, w, f, provider, flags.year)
}

// verifyFeed reads a previously published iCalendar feed and reports the
// releases it is missing or that have since moved.
func verifyFeed(ctx context.Context, w io.Writer, feed io.Reader, provider *calendar.Provider, year int) error {
	if year == 0 {
		year = time.Now().In(tz.Beijing).Year()
	}
	entries, err := ics.Decode(feed)
	if err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}
	events, src := provider.Events(ctx, year)
	missing, stale := ics.Diff(entries, events)

	for _, uid := range missing {
		fmt.Fprintln(w, "missing", uid)
	}
	for _, uid := range stale {
		fmt.Fprintln(w, "stale  ", uid)
	}
	appLog.Info("feed verified", "year", year, "source", src, "entries", len(entries), "missing", len(missing), "stale", len(stale))

	if len(missing) > 0 || len(stale) > 0 {
		return fmt.Errorf("%w: %d missing, %d stale", errFeedOutOfDate, len(missing), len(stale))
	}
	return nil
}

// serve runs the HTTP server and refresh scheduler until ctx is cancelled.
func serve(ctx context.Context, conf *config.Config, provider *calendar.Provider) error {
	srv := web.NewServer(conf, provider, nil)

	sched, err := refresh.New(conf.RefreshCron, srv, conf.WarmYearsAhead, nil)
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", conf.RefreshCron, err)
	}
	go sched.RunOnce(ctx)
	sched.Start(ctx)

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./econcal.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional dotenv file loaded before reading the environment")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.source, "source", "", "Event source: auto, api or computed (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Build one year of events, print them and exit")
	flag.StringVar(&cfg.verify, "verify", "", "Check a published .ics file against the current schedule and exit")
	flag.IntVar(&cfg.year, "year", 0, "Year for -once and -verify (default: current year in Beijing)")
	flag.StringVar(&cfg.format, "format", "json", "Output format for -once: json or ics")

	flag.Parse()

	return cfg
}
