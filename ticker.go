package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// intervalTicker is a fixed-period ticker with run/skip counters, adapted
// from the teacher's cron-schedule Ticker (ticker.go in the reference repo):
// where that one computed its next fire time from a cron expression and
// tracked ticksSeen/ticksSent/ticksDropped, this one fires on a plain
// time.Duration interval and tracks ticksRun/ticksSkipped — the counters the
// Scheduler's re-sort loop needs for idle-loop observability (spec.md §4.6)
// without any calendar/cron machinery, which has no counterpart in this
// domain. The Dispatcher runs its own loop and does not use this type.
type intervalTicker struct {
	period time.Duration

	ticksRun     atomic.Int64
	ticksSkipped atomic.Int64

	mu       sync.Mutex
	lastFire time.Time
}

func newIntervalTicker(period time.Duration) *intervalTicker {
	return &intervalTicker{period: period}
}

// run invokes fn every period until ctx is done. fn returns true if it did
// work (counted as a run) or false if it found nothing to do (counted as
// skipped) — this maps directly onto the Scheduler's "idle if !needsSort"
// branch.
func (t *intervalTicker) run(ctx context.Context, fn func() bool) {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if fn() {
				t.ticksRun.Add(1)
			} else {
				t.ticksSkipped.Add(1)
			}
			t.mu.Lock()
			t.lastFire = now
			t.mu.Unlock()
		}
	}
}
