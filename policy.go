package batch

import "slices"

// Policy is a tagged enumeration over the total orders CSUbatch can apply to
// the pending sequence. Represented as a variant with a comparator resolved
// by a pure function rather than a per-policy type hierarchy, so adding a
// policy is a local change (spec.md §9).
type Policy int

const (
	// FCFS orders ascending by arrivalTime: first come, first served.
	FCFS Policy = iota
	// SJF orders ascending by cpuTime: shortest job first.
	SJF
	// PRIORITY orders ascending by priority value: smaller value runs
	// earlier. This fixes the contradiction in the original source, which
	// contained two incompatible PRIORITY comparators (spec.md §9); smaller
	// value = earlier is the convention tests assume.
	PRIORITY
)

func (p Policy) String() string {
	switch p {
	case FCFS:
		return "FCFS"
	case SJF:
		return "SJF"
	case PRIORITY:
		return "PRIORITY"
	default:
		return "UNKNOWN"
	}
}

// less returns the comparator for p: true if a must sort before b. Ties are
// always broken by arrivalTime (then left as-is, relying on the stable sort
// in Sort to preserve submission order among exact ties).
func (p Policy) less(a, b *Job) bool {
	switch p {
	case SJF:
		if a.CPUTime() != b.CPUTime() {
			return a.CPUTime() < b.CPUTime()
		}
	case PRIORITY:
		if a.Priority() != b.Priority() {
			return a.Priority() < b.Priority()
		}
	}
	// FCFS, and the tie-break for SJF/PRIORITY: ascending arrivalTime.
	return a.ArrivalTime() < b.ArrivalTime()
}

// Sort stable-sorts seq in place according to p. Ties broken by arrivalTime,
// then by pre-sort (i.e. submission) order, since slices.SortStableFunc
// preserves the relative order of equal elements (spec.md §4.3, §8
// property 3). The teacher's own code (schedule.go) reached for the stdlib
// "slices" package for exactly this kind of ordered-slice manipulation.
func Sort(seq []*Job, p Policy) {
	slices.SortStableFunc(seq, func(a, b *Job) int {
		switch {
		case p.less(a, b):
			return -1
		case p.less(b, a):
			return 1
		default:
			return 0
		}
	})
}
