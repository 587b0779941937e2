package batch

import (
	"context"
	"time"
)

// Config holds the recognized configuration options from spec.md §6. The
// zero value is not directly usable for CPUTimeSlice (0 legitimately means
// "no slicing") but SchedulerTick/DispatcherIdle/InitialPolicy all fall back
// to documented defaults when zero, matching the teacher's
// ScheduledJobOptions pattern of "value struct + zero-means-default".
type Config struct {
	// CPUTimeSlice is the positive-integer simulated-second slice; 0 means
	// no slicing (the job always runs to completion in one dispatch cycle),
	// and a negative value is rejected by NewEngine.
	CPUTimeSlice int

	// SchedulerTick is the Scheduler's background re-sort period. Default
	// 500ms if zero.
	SchedulerTick time.Duration

	// DispatcherIdle is the Dispatcher's empty-queue backoff. Default 100ms
	// if zero.
	DispatcherIdle time.Duration

	// SimulatedSecond is the real-time duration standing in for one
	// simulated cpu-second. Default time.Second if zero; tests shrink this.
	SimulatedSecond time.Duration

	// InitialPolicy is the policy active at startup. Default FCFS (the zero
	// value of Policy already is FCFS, so no special-casing is needed).
	InitialPolicy Policy

	// Sink receives structured log events. Defaults to NopEventSink.
	Sink EventSink
}

// Engine is the explicit, constructed-once controller that wires together
// the job queue, policy, state manager, dispatcher, scheduler and metrics
// recorder. It replaces the original source's process-wide singleton
// coordinator (spec.md §9): callers construct one Engine, pass it by
// reference to collaborators, and tear it down with Shutdown. There is no
// global mutable state.
type Engine struct {
	cfg        Config
	sink       EventSink
	stateMgr   *JobStateManager
	qm         *QueueManager
	scheduler  *Scheduler
	dispatcher *Dispatcher
	metrics    *MetricsRecorder

	cancel context.CancelFunc
}

// NewEngine validates cfg and constructs an Engine. Workers are not started
// until Start is called.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.CPUTimeSlice < 0 {
		return nil, newValidationError("CPUTimeSlice must be non-negative")
	}
	if cfg.SchedulerTick < 0 {
		return nil, newValidationError("SchedulerTick must be non-negative")
	}
	if cfg.DispatcherIdle < 0 {
		return nil, newValidationError("DispatcherIdle must be non-negative")
	}

	sink := cfg.Sink
	if sink == nil {
		sink = NopEventSink{}
	}

	stateMgr := NewJobStateManager(sink)
	qm := NewQueueManager(stateMgr, sink, cfg.DispatcherIdle)
	scheduler := NewScheduler(qm, sink, cfg.InitialPolicy, cfg.SchedulerTick)
	metrics := NewMetricsRecorder(nowMillis())
	dispatcher := NewDispatcher(qm, stateMgr, metrics, sink, cfg.CPUTimeSlice, cfg.DispatcherIdle, cfg.SimulatedSecond)

	return &Engine{
		cfg:        cfg,
		sink:       sink,
		stateMgr:   stateMgr,
		qm:         qm,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		metrics:    metrics,
	}, nil
}

// Start launches the Scheduler and Dispatcher background workers.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.scheduler.Start(ctx)
	e.dispatcher.Start(ctx)
}

// Shutdown stops the Dispatcher before the Scheduler, so no job is popped
// after the Scheduler stops reordering, and waits (bounded by ctx) for both
// to observe cancellation (SPEC_FULL.md supplement over spec.md §5's
// per-worker Stop()).
func (e *Engine) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.dispatcher.Stop()
		e.scheduler.Stop()
		close(done)
	}()
	if e.cancel != nil {
		defer e.cancel()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit validates and enqueues a new job (spec.md §6 Submission interface).
// arrivalTime is assigned by the caller (typically the current epoch
// milliseconds) so tests can control ordering deterministically.
func (e *Engine) Submit(name string, cpuTime, priority int, arrivalTime int64) (*Job, error) {
	if err := ValidateSubmission(name, cpuTime, priority); err != nil {
		return nil, err
	}
	job := NewJob(name, cpuTime, priority, arrivalTime)
	if err := e.qm.Add(job, "Submitter"); err != nil {
		return nil, err
	}
	e.metrics.OnSubmit(name, cpuTime, priority, arrivalTime)
	return job, nil
}

// List returns an ordered snapshot of pending jobs plus the running job, if
// any (spec.md §6).
func (e *Engine) List() []*Job { return e.qm.List() }

// SetPolicy changes the active scheduling policy.
func (e *Engine) SetPolicy(p Policy) { e.scheduler.SetPolicy(p) }

// Remove cancels a pending job by name, reporting whether it was found
// (spec.md §6).
func (e *Engine) Remove(name string) bool {
	return e.qm.RemoveByName(name, "Submitter")
}

// Get looks up a pending job by name, for introspection callers that need the
// job itself rather than a bool (e.g. inspecting its priority before
// deciding whether to remove it).
func (e *Engine) Get(name string) (*Job, error) {
	job := e.qm.GetByName(name)
	if job == nil {
		return nil, newNotFoundError(name)
	}
	return job, nil
}

// Subscribe registers a StateObserver for job status change notifications.
func (e *Engine) Subscribe(o StateObserver) { e.stateMgr.Subscribe(o) }

// Unsubscribe removes a previously-registered StateObserver.
func (e *Engine) Unsubscribe(o StateObserver) { e.stateMgr.Unsubscribe(o) }

// Metrics returns the engine's MetricsRecorder for aggregate/per-job reads.
func (e *Engine) Metrics() *MetricsRecorder { return e.metrics }

// QueueManager exposes the underlying facade for advanced callers (e.g. a
// CLI shell driving getShortest/getHighestPriority introspection).
func (e *Engine) QueueManager() *QueueManager { return e.qm }
