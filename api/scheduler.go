/*
scheduler.go - Periodic salary recalculation

PURPOSE:
  Stored net salaries reflect the tax rates active when each employee was
  last saved. When an administrator changes the rate table, records drift
  until they are recalculated. The scheduler runs RecalculateAll on a
  fixed interval so the drift is bounded.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Errors are logged and the next tick tries again

CONFIGURATION:
  - Interval: How often to run (RECALC_INTERVAL, default: disabled)

USAGE:
  scheduler := NewRecalculationScheduler(svc, time.Hour, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Recalculate endpoint (manual recalculation)
  - payroll/service.go: RecalculateAll
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/compensation-engine/payroll"
)

// Recalculator is the part of payroll.Service the scheduler drives.
type Recalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// RecalculationScheduler re-applies current tax rates on an interval.
type RecalculationScheduler struct {
	Service  Recalculator
	Interval time.Duration
	Logger   *zap.Logger

	// RunTimeout bounds one recalculation pass.
	RunTimeout time.Duration

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
}

var _ Recalculator = (*payroll.Service)(nil)

// NewRecalculationScheduler creates a scheduler. A non-positive interval
// leaves it disabled.
func NewRecalculationScheduler(svc Recalculator, interval time.Duration, logger *zap.Logger) *RecalculationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecalculationScheduler{
		Service:    svc,
		Interval:   interval,
		Logger:     logger,
		RunTimeout: 5 * time.Minute,
	}
}

// Start begins the scheduler. It is a no-op when disabled or already running.
func (rs *RecalculationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.Interval <= 0 {
		rs.Logger.Info("recalculation scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("recalculation scheduler started", zap.Duration("interval", rs.Interval))
}

// Stop stops the scheduler and waits for a running pass to finish.
func (rs *RecalculationScheduler) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.ticker = nil
	rs.mu.Unlock()

	rs.wg.Wait()
	rs.Logger.Info("recalculation scheduler stopped")
}

func (rs *RecalculationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	rs.RunNow()
	for {
		select {
		case <-ticker.C:
			rs.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one recalculation pass synchronously.
func (rs *RecalculationScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), rs.RunTimeout)
	defer cancel()

	changed, err := rs.Service.RecalculateAll(ctx)
	if err != nil {
		rs.Logger.Error("scheduled recalculation failed", zap.Error(err), zap.Int("changed", changed))
		return
	}

	rs.mu.Lock()
	rs.lastRun = time.Now()
	rs.mu.Unlock()
	rs.Logger.Debug("scheduled recalculation finished", zap.Int("changed", changed))
}

// LastRun returns when the last successful pass finished, zero if none.
func (rs *RecalculationScheduler) LastRun() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastRun
}
