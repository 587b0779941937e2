package batch

import (
	"sync"
	"time"
)

// sourceSchedulerSort is the distinguished source string a Scheduler passes
// to QueueManager operations performing its own re-sort. Operations tagged
// with it do not re-set needsSort (spec.md §4.7), since the sort they just
// performed is exactly what cleared it.
const sourceSchedulerSort = "Scheduler-Sort"

// QueueManager is the single-writer facade over JobQueue: the only component
// that holds the queue's mutual-exclusion primitive (spec.md §4.7, §5). All
// other components — Dispatcher, Scheduler, submitters — must go through it.
type QueueManager struct {
	mu        sync.Mutex
	queue     *JobQueue
	needsSort bool
	stateMgr  *JobStateManager
	sink      EventSink
	idlePoll  time.Duration
}

// NewQueueManager builds a QueueManager over a fresh JobQueue. stateMgr
// drives status transitions triggered by queue operations (e.g. coercing an
// incoming job's status to WAITING, or CANCELED on removal); idlePoll is the
// backoff used by Retrieve while the queue is empty.
func NewQueueManager(stateMgr *JobStateManager, sink EventSink, idlePoll time.Duration) *QueueManager {
	if sink == nil {
		sink = NopEventSink{}
	}
	if idlePoll <= 0 {
		idlePoll = 100 * time.Millisecond
	}
	return &QueueManager{
		queue:    NewJobQueue(),
		stateMgr: stateMgr,
		sink:     sink,
		idlePoll: idlePoll,
	}
}

// Add appends job to the pending sequence. needsSort is set unless source is
// the Scheduler's own sort pass. If the job's status is not already WAITING,
// it is coerced there via the state manager and a notification is published
// (spec.md §4.7); a job in a terminal status is rejected by the state manager
// and keeps its status.
func (qm *QueueManager) Add(job *Job, source string) error {
	if job == nil {
		return newValidationError("job must not be nil")
	}

	qm.mu.Lock()
	err := qm.queue.Add(job)
	if err == nil && source != sourceSchedulerSort {
		qm.needsSort = true
	}
	qm.mu.Unlock()
	if err != nil {
		return err
	}

	if job.Status() != StatusWaiting && qm.stateMgr != nil {
		qm.stateMgr.UpdateStatus(job, StatusWaiting, source, "coerced to WAITING on enqueue")
	}
	return nil
}

// TryRetrieve removes and returns the head of the pending sequence without
// blocking. If the sequence is empty it returns ErrTransientUnavailable, an
// internal signal callers retry against rather than surface further
// (Retrieve is built on top of this).
func (qm *QueueManager) TryRetrieve() (*Job, error) {
	qm.mu.Lock()
	job := qm.queue.PollHead()
	qm.mu.Unlock()
	if job == nil {
		return nil, ErrTransientUnavailable
	}
	return job, nil
}

// Retrieve blocks until a job is available in the pending sequence or
// cancelled is closed, then removes and returns the head. It never holds the
// mutex across the backoff sleep (spec.md §5, §9): quick check under lock,
// release, sleep, retry.
func (qm *QueueManager) Retrieve(cancelled <-chan struct{}) (*Job, error) {
	for {
		job, err := qm.TryRetrieve()
		if err == nil {
			return job, nil
		}

		select {
		case <-cancelled:
			return nil, ErrCancelled
		case <-time.After(qm.idlePoll):
			// retry
		}
	}
}

// Reschedule re-appends job to the pending sequence (used by the Dispatcher
// after a time-slice expires). needsSort is set unless source is the
// Scheduler's own sort pass.
func (qm *QueueManager) Reschedule(job *Job, source string) error {
	if job == nil {
		return newValidationError("job must not be nil")
	}
	qm.mu.Lock()
	defer qm.mu.Unlock()
	if err := qm.queue.Add(job); err != nil {
		return err
	}
	if source != sourceSchedulerSort {
		qm.needsSort = true
	}
	return nil
}

// Remove deletes the first occurrence of job from the pending sequence and
// transitions it to CANCELED via the state manager. Reports whether the job
// was found.
func (qm *QueueManager) Remove(job *Job, source string) bool {
	if job == nil {
		return false
	}
	qm.mu.Lock()
	removed := qm.queue.Remove(job)
	qm.mu.Unlock()

	if removed && qm.stateMgr != nil {
		qm.stateMgr.UpdateStatus(job, StatusCanceled, source, "removed from queue")
	}
	return removed
}

// RemoveByName looks up a pending job by name and removes it, per Remove.
func (qm *QueueManager) RemoveByName(name, source string) bool {
	qm.mu.Lock()
	job := qm.queue.FindByName(name)
	qm.mu.Unlock()
	if job == nil {
		return false
	}
	return qm.Remove(job, source)
}

// GetByName returns the first pending job with the given name, or nil.
func (qm *QueueManager) GetByName(name string) *Job {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.queue.FindByName(name)
}

// Snapshot returns an ordered copy of the pending sequence. Used by the
// Scheduler to sort and by introspection callers (source is unused today but
// kept for symmetry with the other operations and future auditing).
func (qm *QueueManager) Snapshot(source string) []*Job {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.queue.Snapshot()
}

// ReplaceAll atomically replaces the pending sequence with seq, preserving
// its order. needsSort is set unless source is the Scheduler's own sort pass
// — in the normal case, the Scheduler itself calls this with
// sourceSchedulerSort immediately after sorting, which is exactly the
// operation that clears needsSort (via SetNeedsSort).
func (qm *QueueManager) ReplaceAll(seq []*Job, source string) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.queue.ReplaceAll(seq)
	if source != sourceSchedulerSort {
		qm.needsSort = true
	}
}

// Clear empties the pending sequence. needsSort is set unless source is the
// Scheduler's own sort pass.
func (qm *QueueManager) Clear(source string) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.queue.ReplaceAll(nil)
	if source != sourceSchedulerSort {
		qm.needsSort = true
	}
}

// GetShortest returns the pending job with the smallest cpuTime, or nil if
// empty. Used by tests and introspection, not by the dispatch path itself.
func (qm *QueueManager) GetShortest() *Job {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return minBy(qm.queue.pending, func(j *Job) int { return j.CPUTime() })
}

// GetHighestPriority returns the pending job with the smallest priority
// value (highest priority), or nil if empty.
func (qm *QueueManager) GetHighestPriority() *Job {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return minBy(qm.queue.pending, func(j *Job) int { return j.Priority() })
}

func minBy(jobs []*Job, key func(*Job) int) *Job {
	if len(jobs) == 0 {
		return nil
	}
	best := jobs[0]
	bestKey := key(best)
	for _, j := range jobs[1:] {
		if k := key(j); k < bestKey {
			best, bestKey = j, k
		}
	}
	return best
}

// Size returns the number of pending jobs, consistent with the most recently
// completed mutation.
func (qm *QueueManager) Size() int {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.queue.Size()
}

// IsEmpty reports whether the pending sequence is empty.
func (qm *QueueManager) IsEmpty() bool {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.queue.IsEmpty()
}

// SetRunning occupies the queue's running slot.
func (qm *QueueManager) SetRunning(job *Job) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.queue.SetRunning(job)
}

// ClearRunning empties the queue's running slot.
func (qm *QueueManager) ClearRunning() {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.queue.ClearRunning()
}

// GetRunning returns the job in the running slot, or nil.
func (qm *QueueManager) GetRunning() *Job {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.queue.GetRunning()
}

// SetNeedsSort directly sets the needsSort flag (used by NewScheduler,
// Scheduler.SetPolicy, and by Scheduler itself after a successful sort).
func (qm *QueueManager) SetNeedsSort(v bool) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.needsSort = v
}

// IsNeedingSort reports the current needsSort flag.
func (qm *QueueManager) IsNeedingSort() bool {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.needsSort
}

// List returns an ordered snapshot of the pending jobs followed by the
// running job, if any — the Submission interface's list() operation
// (spec.md §6).
func (qm *QueueManager) List() []*Job {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	out := qm.queue.Snapshot()
	if running := qm.queue.GetRunning(); running != nil {
		out = append(out, running)
	}
	return out
}
