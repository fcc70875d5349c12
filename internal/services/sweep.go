package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/codesurge/hackathon/pkg/logger"
)

// Expirer is the work the sweep runs on every tick.
type Expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// SweepScheduler periodically expires participations past their end time.
type SweepScheduler struct {
	expirer  Expirer
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

func NewSweepScheduler(expirer Expirer, interval time.Duration) *SweepScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepScheduler{
		expirer:  expirer,
		interval: interval,
		timeout:  interval,
	}
}

// Start schedules the sweep. A tick is skipped while the previous one is
// still running.
func (s *SweepScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()

	s.cron = c
	s.running = true
	logger.Infof("[Sweep] Scheduler started, interval=%s", s.interval)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	logger.Infof("[Sweep] Scheduler stopped")
}

// RunOnce runs a single sweep immediately.
func (s *SweepScheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.expirer.ExpireStale(ctx)
}

func (s *SweepScheduler) tick() {
	start := time.Now()
	n, err := s.RunOnce(context.Background())
	if err != nil {
		logger.Error().Err(err).Int("expired", n).Msg("[Sweep] Sweep finished with errors")
		return
	}
	logger.Debug().Int("expired", n).Dur("took", time.Since(start)).Msg("[Sweep] Sweep finished")
}
