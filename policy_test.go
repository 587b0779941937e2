package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func jobsABC() []*Job {
	return []*Job{
		NewJob("J1", 5, 1, 1000),
		NewJob("J2", 3, 2, 2000),
		NewJob("J3", 7, 3, 3000),
	}
}

func names(jobs []*Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Name()
	}
	return out
}

func TestSortFCFS(t *testing.T) {
	jobs := jobsABC()
	Sort(jobs, FCFS)
	assert.Equal(t, []string{"J1", "J2", "J3"}, names(jobs))
}

func TestSortSJF(t *testing.T) {
	jobs := jobsABC()
	Sort(jobs, SJF)
	assert.Equal(t, []string{"J2", "J1", "J3"}, names(jobs))
}

func TestSortPriority(t *testing.T) {
	jobs := jobsABC()
	Sort(jobs, PRIORITY)
	assert.Equal(t, []string{"J1", "J2", "J3"}, names(jobs))
}

// TestSortStableOnTies verifies spec.md §8 property 3: jobs with equal
// P-keys retain their submission (pre-sort) order.
func TestSortStableOnTies(t *testing.T) {
	a := NewJob("a", 5, 1, 1000)
	b := NewJob("b", 5, 1, 1000) // identical cpuTime, priority, arrivalTime
	c := NewJob("c", 5, 1, 1000)
	jobs := []*Job{a, b, c}

	Sort(jobs, SJF)
	assert.Equal(t, []string{"a", "b", "c"}, names(jobs))

	Sort(jobs, PRIORITY)
	assert.Equal(t, []string{"a", "b", "c"}, names(jobs))
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "FCFS", FCFS.String())
	assert.Equal(t, "SJF", SJF.String())
	assert.Equal(t, "PRIORITY", PRIORITY.String())
}
