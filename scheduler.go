package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is the background reorderer: it keeps the pending sequence
// ordered under the active Policy without forcing the Dispatcher to sort on
// every pop (spec.md §4.6). It never removes a job from the queue, only
// permutes it.
type Scheduler struct {
	qm     *QueueManager
	sink   EventSink
	ticker *intervalTicker

	policy atomic.Int64 // Policy, stored as int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewScheduler builds a Scheduler over qm with the given initial policy and
// tick period (spec.md's schedulerTickMs, default 500ms).
func NewScheduler(qm *QueueManager, sink EventSink, initial Policy, tick time.Duration) *Scheduler {
	if sink == nil {
		sink = NopEventSink{}
	}
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	s := &Scheduler{
		qm:     qm,
		sink:   sink,
		ticker: newIntervalTicker(tick),
	}
	s.policy.Store(int64(initial))
	qm.SetNeedsSort(true) // settle the initial policy before first pop
	return s
}

// Policy returns the currently active policy.
func (s *Scheduler) Policy() Policy {
	return Policy(s.policy.Load())
}

// SetPolicy changes the active policy. If it differs from the current one,
// needsSort is set so the next tick (or pop, if the implementation chooses
// to piggy-back) observes the new ordering (spec.md §4.6).
func (s *Scheduler) SetPolicy(p Policy) {
	old := Policy(s.policy.Swap(int64(p)))
	if old != p {
		s.qm.SetNeedsSort(true)
		s.sink.Log(LevelInfo, "policy changed from "+old.String()+" to "+p.String())
	}
}

// Start performs one scheduling pass synchronously, so the pending sequence
// is already ordered under the initial policy when Start returns, then runs
// the background re-sort loop until ctx is done or Stop is called. It is
// safe to call Start exactly once per Scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	s.tick()

	go func() {
		defer close(s.stopped)
		s.ticker.run(ctx, s.tick)
	}()
}

// tick performs one scheduling pass: if needsSort is set, snapshot the
// pending sequence, stable-sort it under the active policy, atomically
// replace, then clear needsSort. Returns true if it did work (sorted),
// false if it was idle.
func (s *Scheduler) tick() bool {
	if !s.qm.IsNeedingSort() {
		return false
	}

	seq := s.qm.Snapshot(sourceSchedulerSort)
	Sort(seq, s.Policy())
	s.qm.ReplaceAll(seq, sourceSchedulerSort)
	s.qm.SetNeedsSort(false)
	s.sink.Log(LevelDebug, "scheduler sorted pending sequence")
	return true
}

// Stop cooperatively stops the background loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if stopped != nil {
		<-stopped
	}
}
