// Package refresh keeps the event cache warm on a cron schedule so HTTP
// requests rarely wait on the remote calendar.
package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	appLog "econcal/internal/log"
	"econcal/internal/tz"
)

// Warmer rebuilds cached events for one year.
type Warmer interface {
	Warm(ctx context.Context, year int)
}

// Scheduler runs Warm for the current Beijing year and the configured
// number of following years on every cron tick.
type Scheduler struct {
	warmer     Warmer
	yearsAhead int
	now        func() time.Time
	cron       *cron.Cron
}

// New validates spec (standard 5-field cron, evaluated in Beijing time) and
// returns a stopped Scheduler.
func New(spec string, warmer Warmer, yearsAhead int, now func() time.Time) (*Scheduler, error) {
	if warmer == nil {
		return nil, errors.New("refresh: nil warmer")
	}
	if now == nil {
		now = time.Now
	}
	if yearsAhead < 0 {
		yearsAhead = 0
	}

	s := &Scheduler{
		warmer:     warmer,
		yearsAhead: yearsAhead,
		now:        now,
		cron:       cron.New(cron.WithLocation(tz.Beijing), cron.WithLogger(cronLogger{})),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce warms every configured year immediately.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, year := range s.Years() {
		if ctx.Err() != nil {
			return
		}
		s.warmer.Warm(ctx, year)
	}
}

// Years lists the years warmed on each tick.
func (s *Scheduler) Years() []int {
	current := s.now().In(tz.Beijing).Year()
	out := make([]int, 0, s.yearsAhead+1)
	for i := 0; i <= s.yearsAhead; i++ {
		out = append(out, current+i)
	}
	return out
}

// Start begins the cron loop and stops it when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	appLog.Info("refresh scheduler started", "years", s.Years())
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		appLog.Info("refresh scheduler stopped")
	}()
}

// cronLogger routes the cron library's own logs into the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
