package batch

import (
	"reflect"
	"sync"
)

// observerEqual safely compares two StateObserver values for identity,
// without panicking on non-comparable dynamic types (e.g. a func-based
// StateObserverFunc, whose underlying type is never comparable in Go).
func observerEqual(a, b StateObserver) bool {
	at := reflect.TypeOf(a)
	bt := reflect.TypeOf(b)
	if at == nil || bt == nil || at != bt || !at.Comparable() {
		return false
	}
	return a == b
}

// transitionTable encodes spec.md §4.4. A transition is legal iff
// transitionTable[from][to] is true.
var transitionTable = map[Status]map[Status]bool{
	StatusWaiting: {
		StatusSelected: true,
		StatusCanceled: true,
	},
	StatusSelected: {
		StatusRunning:  true,
		StatusWaiting:  true,
		StatusCanceled: true,
	},
	StatusRunning: {
		StatusWaiting:     true,
		StatusCompleted:   true,
		StatusInterrupted: true,
		StatusCanceled:    true,
	},
	// Terminal states (StatusCompleted, StatusInterrupted, StatusCanceled)
	// have no outgoing entries: any attempted transition out of them is
	// rejected by the zero-value lookup below.
}

// TransitionResult is the outcome of JobStateManager.UpdateStatus.
type TransitionResult int

const (
	// TransitionOK means the status was changed and observers notified.
	TransitionOK TransitionResult = iota
	// TransitionInvalid means the transition was rejected; the job's status
	// is unchanged.
	TransitionInvalid
)

// JobStateManager owns the job status state machine: it validates
// transitions against transitionTable and publishes JobStateEvent
// notifications to registered observers synchronously on the caller's
// goroutine (spec.md §4.4).
type JobStateManager struct {
	sink EventSink

	mu        sync.RWMutex
	observers []StateObserver
}

// NewJobStateManager builds a JobStateManager that reports rejected
// transitions and observer panics to sink. A nil sink is replaced with
// NopEventSink.
func NewJobStateManager(sink EventSink) *JobStateManager {
	if sink == nil {
		sink = NopEventSink{}
	}
	return &JobStateManager{sink: sink}
}

// Subscribe registers an observer to receive future JobStateEvent
// notifications.
func (m *JobStateManager) Subscribe(o StateObserver) {
	if o == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Unsubscribe removes a previously-registered observer. It is a no-op if o
// was never subscribed, including when o's dynamic type (e.g. a plain
// StateObserverFunc) isn't comparable — register a pointer-identity
// observer (a struct pointer) if you need Unsubscribe to find it later.
func (m *JobStateManager) Unsubscribe(o StateObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.observers {
		if observerEqual(existing, o) {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// UpdateStatus attempts to move job from its current status to newStatus.
// source and message are carried into the published JobStateEvent and, on
// rejection, into the warn-level EventSink report. On success, observers are
// notified synchronously in registration order from a point-in-time
// snapshot, so a Subscribe/Unsubscribe call during notification does not
// affect the jobs already in flight (spec.md §9).
func (m *JobStateManager) UpdateStatus(job *Job, newStatus Status, source, message string) (TransitionResult, error) {
	old := job.Status()

	if old.Terminal() || !transitionTable[old][newStatus] {
		err := newInvalidTransitionError(old, newStatus)
		m.sink.LogJob(LevelWarn, JobContext{
			Name:     job.Name(),
			CPUTime:  job.CPUTime(),
			Priority: job.Priority(),
			Status:   old,
		}, "rejected invalid transition: "+err.Error())
		return TransitionInvalid, err
	}

	job.setStatus(newStatus)

	event := JobStateEvent{
		Job:       job,
		OldStatus: old,
		NewStatus: newStatus,
		Source:    source,
		Message:   message,
	}
	m.notify(event)
	return TransitionOK, nil
}

func (m *JobStateManager) notify(event JobStateEvent) {
	m.mu.RLock()
	snapshot := make([]StateObserver, len(m.observers))
	copy(snapshot, m.observers)
	m.mu.RUnlock()

	for _, o := range snapshot {
		m.dispatchSafely(o, event)
	}
}

// dispatchSafely runs one observer callback, recovering from panics so one
// misbehaving observer cannot prevent delivery to the rest or abort the
// transition that already happened (spec.md §4.4, §7, §8 property 7).
func (m *JobStateManager) dispatchSafely(o StateObserver, event JobStateEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.sink.LogJob(LevelWarn, JobContext{
				Name:     event.Job.Name(),
				CPUTime:  event.Job.CPUTime(),
				Priority: event.Job.Priority(),
				Status:   event.NewStatus,
			}, "observer panicked while handling state change")
		}
	}()
	o.OnJobStateChanged(event)
}
