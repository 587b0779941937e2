package batch

// JobQueue is an ordered sequence of pending jobs plus an optional "running"
// slot (0 or 1 job). It exposes no internal locking guarantees beyond
// per-operation atomicity of its own state; all multi-step invariants
// (add-then-notify, pop-with-retry, etc.) are enforced by QueueManager
// (spec.md §4.2). JobQueue itself is not safe for concurrent use without an
// external lock — exactly the role QueueManager plays.
type JobQueue struct {
	pending []*Job
	running *Job
}

// NewJobQueue returns an empty queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{}
}

// Add appends job to the tail of the pending sequence.
func (q *JobQueue) Add(job *Job) error {
	if job == nil {
		return newValidationError("job must not be nil")
	}
	q.pending = append(q.pending, job)
	return nil
}

// PollHead removes and returns the head of the pending sequence, or nil if
// empty.
func (q *JobQueue) PollHead() *Job {
	if len(q.pending) == 0 {
		return nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job
}

// PeekHead returns the head of the pending sequence without removing it, or
// nil if empty.
func (q *JobQueue) PeekHead() *Job {
	if len(q.pending) == 0 {
		return nil
	}
	return q.pending[0]
}

// Size returns the number of pending jobs (the running slot, if occupied, is
// not counted).
func (q *JobQueue) Size() int { return len(q.pending) }

// IsEmpty reports whether the pending sequence has no jobs.
func (q *JobQueue) IsEmpty() bool { return len(q.pending) == 0 }

// Snapshot returns a copy of the pending sequence in current order.
func (q *JobQueue) Snapshot() []*Job {
	out := make([]*Job, len(q.pending))
	copy(out, q.pending)
	return out
}

// ReplaceAll atomically replaces the pending contents with seq, preserving
// seq's order. The caller retains ownership of seq's backing array; ReplaceAll
// copies it.
func (q *JobQueue) ReplaceAll(seq []*Job) {
	cp := make([]*Job, len(seq))
	copy(cp, seq)
	q.pending = cp
}

// Remove deletes the first occurrence of job from the pending sequence,
// reporting whether it was found.
func (q *JobQueue) Remove(job *Job) bool {
	for i, existing := range q.pending {
		if existing == job {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// FindByName returns the first pending job with the given name, or nil.
func (q *JobQueue) FindByName(name string) *Job {
	for _, job := range q.pending {
		if job.Name() == name {
			return job
		}
	}
	return nil
}

// SetRunning occupies the running slot.
func (q *JobQueue) SetRunning(job *Job) { q.running = job }

// ClearRunning empties the running slot.
func (q *JobQueue) ClearRunning() { q.running = nil }

// GetRunning returns the job in the running slot, or nil if empty.
func (q *JobQueue) GetRunning() *Job { return q.running }
