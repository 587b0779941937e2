package batch

import (
	"context"
	"sync"
	"time"
)

// DispatcherState mirrors the teacher's ScheduleState lifecycle
// (job.go: ScheduleStarted/ScheduleSuspended/ScheduleStopped), with the
// suspended state dropped and an initial idle state added: the Dispatcher has
// no Suspend/Resume (spec.md has no such operation for the Dispatcher).
type DispatcherState int

const (
	DispatcherIdle DispatcherState = iota
	DispatcherRunning
	DispatcherStopped
)

// Dispatcher is the single worker that owns the simulated CPU: it pops jobs
// from the QueueManager and drives them through
// SELECTED -> RUNNING -> COMPLETED/WAITING/INTERRUPTED, with time-slicing
// (spec.md §4.5).
type Dispatcher struct {
	qm       *QueueManager
	stateMgr *JobStateManager
	metrics  *MetricsRecorder
	sink     EventSink
	now      func() int64

	cpuTimeSlice  int // simulated seconds; <=0 means no slicing
	idlePoll      time.Duration
	simulatedUnit time.Duration // real time per simulated second

	mu      sync.Mutex
	state   DispatcherState
	stopCh  chan struct{}
	stopped chan struct{}

	remMu     sync.Mutex
	remaining map[string]int // remaining simulated cpu seconds, keyed by job name
}

// NewDispatcher builds a Dispatcher. cpuTimeSlice <= 0 means no slicing
// (spec.md default "effectively infinite"). simulatedUnit is the real-time
// duration that stands in for one simulated cpu-second; tests shrink it to
// keep runs fast, production code would set it to time.Second.
func NewDispatcher(
	qm *QueueManager,
	stateMgr *JobStateManager,
	metrics *MetricsRecorder,
	sink EventSink,
	cpuTimeSlice int,
	idlePoll time.Duration,
	simulatedUnit time.Duration,
) *Dispatcher {
	if sink == nil {
		sink = NopEventSink{}
	}
	if idlePoll <= 0 {
		idlePoll = 100 * time.Millisecond
	}
	if simulatedUnit <= 0 {
		simulatedUnit = time.Second
	}
	return &Dispatcher{
		qm:            qm,
		stateMgr:      stateMgr,
		metrics:       metrics,
		sink:          sink,
		now:           nowMillis,
		cpuTimeSlice:  cpuTimeSlice,
		idlePoll:      idlePoll,
		simulatedUnit: simulatedUnit,
		remaining:     make(map[string]int),
	}
}

// State returns the dispatcher's current lifecycle state.
func (d *Dispatcher) State() DispatcherState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start runs the main loop (spec.md §4.5) until Stop is called or ctx is
// done. It is safe to call exactly once per Dispatcher.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.state == DispatcherRunning || d.state == DispatcherStopped {
		d.mu.Unlock()
		return
	}
	d.state = DispatcherRunning
	d.stopCh = make(chan struct{})
	d.stopped = make(chan struct{})
	stopCh := d.stopCh
	stopped := d.stopped
	d.mu.Unlock()

	go func() {
		defer close(stopped)
		d.loop(ctx, stopCh)
		d.mu.Lock()
		d.state = DispatcherStopped
		d.mu.Unlock()
	}()
}

// Stop cooperatively stops the loop and waits for it to exit. A job in
// RUNNING at the moment of Stop transitions to INTERRUPTED (spec.md §4.5,
// §5, scenario F).
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	stopCh := d.stopCh
	stopped := d.stopped
	d.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	if stopped != nil {
		<-stopped
	}
}

func (d *Dispatcher) loop(ctx context.Context, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		if d.qm.IsEmpty() {
			if !d.sleepInterruptible(d.idlePoll, stopCh, ctx) {
				return
			}
			continue
		}

		job, err := d.qm.Retrieve(stopCh)
		if err != nil {
			// Retrieve retries empty pops internally and only returns
			// ErrCancelled (stop observed): loop around, and the outer
			// select exits promptly because stopCh fired.
			continue
		}

		if !d.runOne(ctx, stopCh, job) {
			return
		}
	}
}

// runOne drives one dispatch cycle for job. Returns false if the dispatcher
// observed a stop/cancel signal and the loop should exit.
func (d *Dispatcher) runOne(ctx context.Context, stopCh chan struct{}, job *Job) bool {
	if job.Status() != StatusSelected {
		d.stateMgr.UpdateStatus(job, StatusSelected, "Dispatcher", "popped for dispatch")
	}
	if _, err := d.stateMgr.UpdateStatus(job, StatusRunning, "Dispatcher", "starting execution"); err != nil {
		d.sink.LogJob(LevelWarn, jobContext(job), "dispatcher could not start job: "+err.Error())
		return true
	}
	d.qm.SetRunning(job)
	d.metrics.OnStart(job.Name(), d.now())

	remaining := d.remainingFor(job)
	slice := d.cpuTimeSlice
	if slice <= 0 {
		slice = remaining
	}
	t := remaining
	if slice < t {
		t = slice
	}

	completed := d.sleepInterruptible(time.Duration(t)*d.simulatedUnit, stopCh, ctx)
	if !completed {
		d.stateMgr.UpdateStatus(job, StatusInterrupted, "Dispatcher", "dispatcher stopped mid-run")
		d.qm.ClearRunning()
		d.clearRemaining(job)
		return false
	}

	remaining -= t
	if remaining <= 0 {
		d.clearRemaining(job)
		d.stateMgr.UpdateStatus(job, StatusCompleted, "Dispatcher", "execution complete")
		d.qm.ClearRunning()
		d.metrics.OnCompletion(job.Name(), d.now())
		return true
	}

	d.setRemaining(job, remaining)
	d.stateMgr.UpdateStatus(job, StatusWaiting, "Dispatcher", "time slice expired, rescheduled")
	d.qm.ClearRunning()
	d.qm.Reschedule(job, "Dispatcher")
	return true
}

// sleepInterruptible sleeps for dur, returning false if stopCh or ctx fired
// first.
func (d *Dispatcher) sleepInterruptible(dur time.Duration, stopCh <-chan struct{}, ctx context.Context) bool {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (d *Dispatcher) remainingFor(job *Job) int {
	d.remMu.Lock()
	defer d.remMu.Unlock()
	if rem, ok := d.remaining[job.Name()]; ok {
		return rem
	}
	return job.CPUTime()
}

func (d *Dispatcher) setRemaining(job *Job, rem int) {
	d.remMu.Lock()
	defer d.remMu.Unlock()
	d.remaining[job.Name()] = rem
}

func (d *Dispatcher) clearRemaining(job *Job) {
	d.remMu.Lock()
	defer d.remMu.Unlock()
	delete(d.remaining, job.Name())
}

func jobContext(job *Job) JobContext {
	return JobContext{
		Name:     job.Name(),
		CPUTime:  job.CPUTime(),
		Priority: job.Priority(),
		Status:   job.Status(),
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }
