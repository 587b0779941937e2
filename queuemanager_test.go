package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueManagerAddSetsNeedsSort(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)
	qm.SetNeedsSort(false)

	require.NoError(t, qm.Add(NewJob("a", 1, 1, 1), "Submitter"))
	assert.True(t, qm.IsNeedingSort())
}

func TestQueueManagerAddFromSchedulerSortDoesNotDirty(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)
	qm.SetNeedsSort(false)

	require.NoError(t, qm.Add(NewJob("a", 1, 1, 1), sourceSchedulerSort))
	assert.False(t, qm.IsNeedingSort())
}

func TestQueueManagerRetrieveBlocksUntilAvailable(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)

	result := make(chan *Job, 1)
	go func() {
		job, err := qm.Retrieve(nil)
		if err != nil {
			t.Errorf("unexpected error: %s", err)
			return
		}
		result <- job
	}()

	time.Sleep(30 * time.Millisecond)
	job := NewJob("late", 1, 1, 1)
	qm.Add(job, "Submitter")

	select {
	case got := <-result:
		assert.Equal(t, job, got)
	case <-time.After(time.Second):
		t.Fatalf("expected Retrieve to unblock once a job was added")
	}
}

func TestQueueManagerTryRetrieve(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)

	_, err := qm.TryRetrieve()
	assert.ErrorIs(t, err, ErrTransientUnavailable)

	job := NewJob("a", 1, 1, 1)
	qm.Add(job, "Submitter")
	got, err := qm.TryRetrieve()
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestQueueManagerRetrieveCancels(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)

	cancelled := make(chan struct{})
	close(cancelled)

	_, err := qm.Retrieve(cancelled)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestQueueManagerRemoveCancelsJob(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)
	job := NewJob("a", 1, 1, 1)
	qm.Add(job, "Submitter")

	assert.True(t, qm.Remove(job, "Submitter"))
	assert.Equal(t, StatusCanceled, job.Status())
	assert.False(t, qm.Remove(job, "Submitter"))
}

func TestQueueManagerRemoveByName(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)
	job := NewJob("a", 1, 1, 1)
	qm.Add(job, "Submitter")

	assert.True(t, qm.RemoveByName("a", "Submitter"))
	assert.False(t, qm.RemoveByName("a", "Submitter"))
	assert.False(t, qm.RemoveByName("missing", "Submitter"))
}

func TestQueueManagerGetShortestAndHighestPriority(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)
	qm.Add(NewJob("J1", 5, 3, 1), "Submitter")
	qm.Add(NewJob("J2", 2, 1, 2), "Submitter")
	qm.Add(NewJob("J3", 9, 2, 3), "Submitter")

	assert.Equal(t, "J2", qm.GetShortest().Name())
	assert.Equal(t, "J2", qm.GetHighestPriority().Name())
}

func TestQueueManagerListIncludesRunning(t *testing.T) {
	sm := NewJobStateManager(nil)
	qm := NewQueueManager(sm, nil, 10*time.Millisecond)
	pending := NewJob("pending", 1, 1, 1)
	running := NewJob("running", 1, 1, 2)
	qm.Add(pending, "Submitter")
	qm.SetRunning(running)

	list := qm.List()
	require.Len(t, list, 2)
	assert.Equal(t, pending, list[0])
	assert.Equal(t, running, list[1])
}
