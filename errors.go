package batch

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, per spec.md §7. Inspect with errors.Is.
var (
	// ErrValidation marks a rejected construction-time input: null job,
	// empty/whitespace name, non-positive cpuTime, negative priority, or a
	// negative Config duration or time slice.
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition marks a state-machine transition rejected by
	// JobStateManager's transition table.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotFound marks a name-keyed lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrCancelled marks cooperative cancellation observed during a blocking
	// wait.
	ErrCancelled = errors.New("cancelled")

	// ErrTransientUnavailable marks an internal retry condition, such as the
	// queue appearing non-empty then being empty on pop. Callers should not
	// see this surface; it is retried internally with a small backoff.
	ErrTransientUnavailable = errors.New("transiently unavailable")
)

func newValidationError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}

func newInvalidTransitionError(from, to Status) error {
	return fmt.Errorf("cannot transition %s -> %s: %w", from, to, ErrInvalidTransition)
}

func newNotFoundError(name string) error {
	return fmt.Errorf("job %q: %w", name, ErrNotFound)
}
