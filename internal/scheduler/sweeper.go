package scheduler

import (
	"context"
	"time"

	"github.com/leadscout/leadscout/internal/logger"
)

// SweepFunc runs one reconciliation sweep.
type SweepFunc func(ctx context.Context) error

// Sweeper drives the periodic poll across recent items. It does not
// run on start: the process usually boots unauthenticated, and the
// OAuth callback fires the first sweep through the manual trigger.
type Sweeper struct {
	sweep         SweepFunc
	log           logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSweeper creates a sweeper. manualTrigger lets the HTTP layer and
// the auth flow request an immediate sweep.
func NewSweeper(sweep SweepFunc, log logger.Logger, interval time.Duration, manualTrigger chan struct{}) *Sweeper {
	return &Sweeper{
		sweep:         sweep,
		log:           log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(ctx)
			case <-s.manualTrigger:
				s.log.Info("manual sweep triggered")
				s.run(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) run(ctx context.Context) {
	if err := s.sweep(ctx); err != nil {
		// The ledger stays consistent; the next trigger retries.
		s.log.Error("sweep failed", logger.Error(err))
	}
}
