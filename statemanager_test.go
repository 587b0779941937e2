package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStatusValidTransition(t *testing.T) {
	sm := NewJobStateManager(nil)
	job := NewJob("a", 1, 1, 1)

	var got JobStateEvent
	sm.Subscribe(StateObserverFunc(func(e JobStateEvent) { got = e }))

	result, err := sm.UpdateStatus(job, StatusSelected, "Dispatcher", "popped")
	require.NoError(t, err)
	assert.Equal(t, TransitionOK, result)
	assert.Equal(t, StatusSelected, job.Status())
	assert.Equal(t, StatusWaiting, got.OldStatus)
	assert.Equal(t, StatusSelected, got.NewStatus)
	assert.Equal(t, "Dispatcher", got.Source)
}

// TestUpdateStatusInvalidTransition is scenario D: updateStatus(J, COMPLETED)
// from WAITING must be rejected, status unchanged, no observer notified.
func TestUpdateStatusInvalidTransition(t *testing.T) {
	sm := NewJobStateManager(nil)
	job := NewJob("a", 1, 1, 1)

	notified := false
	sm.Subscribe(StateObserverFunc(func(e JobStateEvent) { notified = true }))

	result, err := sm.UpdateStatus(job, StatusCompleted, "test", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, TransitionInvalid, result)
	assert.Equal(t, StatusWaiting, job.Status())
	assert.False(t, notified)
}

func TestUpdateStatusFromTerminalRejected(t *testing.T) {
	sm := NewJobStateManager(nil)
	job := NewJob("a", 1, 1, 1)
	sm.UpdateStatus(job, StatusSelected, "t", "")
	sm.UpdateStatus(job, StatusRunning, "t", "")
	_, err := sm.UpdateStatus(job, StatusCompleted, "t", "")
	require.NoError(t, err)

	result, err := sm.UpdateStatus(job, StatusWaiting, "t", "")
	assert.Equal(t, TransitionInvalid, result)
	require.Error(t, err)
	assert.Equal(t, StatusCompleted, job.Status())
}

// TestObserverPanicIsolation is spec.md §8 property 7: a panicking observer
// does not prevent other observers from receiving the event and does not
// roll back the transition.
func TestObserverPanicIsolation(t *testing.T) {
	sm := NewJobStateManager(nil)
	job := NewJob("a", 1, 1, 1)

	var mu sync.Mutex
	secondSaw := false

	sm.Subscribe(StateObserverFunc(func(e JobStateEvent) {
		panic("boom")
	}))
	sm.Subscribe(StateObserverFunc(func(e JobStateEvent) {
		mu.Lock()
		secondSaw = true
		mu.Unlock()
	}))

	result, err := sm.UpdateStatus(job, StatusSelected, "t", "")
	require.NoError(t, err)
	assert.Equal(t, TransitionOK, result)
	assert.Equal(t, StatusSelected, job.Status())

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, secondSaw)
}

// countingObserver is a pointer-identity observer: struct pointers are
// comparable, unlike a bare StateObserverFunc, so Subscribe/Unsubscribe with
// the same *countingObserver value round-trips correctly.
type countingObserver struct{ count int }

func (c *countingObserver) OnJobStateChanged(e JobStateEvent) { c.count++ }

func TestUnsubscribeStopsNotifications(t *testing.T) {
	sm := NewJobStateManager(nil)
	job := NewJob("a", 1, 1, 1)

	obs := &countingObserver{}
	sm.Subscribe(obs)
	sm.Unsubscribe(obs)

	sm.UpdateStatus(job, StatusSelected, "t", "")
	assert.Equal(t, 0, obs.count)
}
