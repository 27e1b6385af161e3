package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// exchangeZone is the exchanges' local time, UTC+8.
var exchangeZone = time.FixedZone("CST", 8*60*60)

// Scheduler settles every account once a day at a fixed exchange-local time
// of day.
type Scheduler struct {
	interval time.Duration
	at       time.Duration // offset from local midnight
	settle   *SettlementService
	logger   *slog.Logger

	mu      sync.Mutex
	lastDay string // local date of the last run, YYYY-MM-DD
}

// NewScheduler creates a Scheduler that checks the clock every interval and
// settles once the exchange-local time passes at ("HH:MM:SS").
func NewScheduler(settle *SettlementService, at string, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	t, err := time.Parse(time.TimeOnly, at)
	if err != nil {
		return nil, fmt.Errorf("invalid settle time %q: %w", at, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid check interval %s", interval)
	}
	offset := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
	return &Scheduler{
		interval: interval,
		at:       offset,
		settle:   settle,
		logger:   logger,
	}, nil
}

// Start launches a background goroutine that ticks at the configured
// interval. A start after today's settle time waits for tomorrow's. It stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.skipPassed(time.Now())
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.tick(ctx, t)
			}
		}
	}()
}

// skipPassed marks today as done when its settle time has already passed.
func (s *Scheduler) skipPassed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if day, due := s.due(now); due {
		s.lastDay = day
	}
}

// tick settles every account when today's settle time has passed and no
// run happened today yet. It reports whether it settled.
func (s *Scheduler) tick(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	day, due := s.due(now)
	if !due || day == s.lastDay {
		s.mu.Unlock()
		return false
	}
	s.lastDay = day
	s.mu.Unlock()

	results := s.settle.SettleAll(ctx)
	s.logger.Info("scheduled settlement done",
		slog.String("day", day),
		slog.Int("accounts", len(results)),
	)
	return true
}

func (s *Scheduler) due(now time.Time) (string, bool) {
	local := now.In(exchangeZone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, exchangeZone)
	return local.Format(time.DateOnly), local.Sub(midnight) >= s.at
}
