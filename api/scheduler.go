/*
scheduler.go - Automated scholarship batch scheduler

PURPOSE:
  Periodically runs the scholarship batch aggregation so monthly billing
  lines appear without anyone pressing a button. Safe to run as often as
  desired: sessions already belonging to a line are never selected again.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates to the same aggregation path as POST /api/batches/run
  - A run that generates nothing is normal and logged only when verbose

CONFIGURATION:
  - CheckInterval: How often to run (default: 24 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBatchScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunBatch endpoint (manual trigger)
  - invoicing/batch.go: BatchAggregator
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// BatchScheduler runs scholarship aggregation on a timer.
type BatchScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBatchScheduler creates a new scheduler.
func NewBatchScheduler(handler *Handler) *BatchScheduler {
	return &BatchScheduler{
		Handler:       handler,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.aggregate()

	for {
		select {
		case <-bs.ticker.C:
			bs.aggregate()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) aggregate() {
	ctx := context.Background()
	now := time.Now()

	lines, err := bs.Handler.runAggregation(ctx, now)
	if err != nil {
		log.Printf("[Scheduler] Batch aggregation failed: %v", err)
		return
	}

	if len(lines) > 0 {
		log.Printf("[Scheduler] Generated %d scholarship batch lines", len(lines))
	}
}

// RunNow triggers an immediate run (for testing/admin).
func (bs *BatchScheduler) RunNow() {
	bs.aggregate()
}
