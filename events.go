package batch

import (
	"os"

	"github.com/rs/zerolog"
)

// Level is one of the four structured-logging levels the core emits to an
// EventSink. The core never formats file paths or handles rotation; that is
// the logging collaborator's concern (spec.md §1, out of scope).
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// JobContext is the structured job information an EventSink may attach to a
// log line, per spec.md §6.
type JobContext struct {
	Name     string
	CPUTime  int
	Priority int
	Status   Status
}

// EventSink is the logging capability the core consumes, supplied by an
// external collaborator (spec.md §6). Implementations must not block
// indefinitely; the core calls these synchronously on the calling goroutine.
type EventSink interface {
	Log(level Level, message string)
	LogJob(level Level, job JobContext, message string)
}

// NopEventSink discards everything. Used as the default sink and in tests
// that don't care about log output, mirroring the teacher's package-level
// Logger that discards by default (ticker.go: slog.New(slog.NewTextHandler(io.Discard, nil))).
type NopEventSink struct{}

func (NopEventSink) Log(Level, string)                {}
func (NopEventSink) LogJob(Level, JobContext, string) {}

// zerologSink adapts EventSink onto github.com/rs/zerolog, the backend the
// reference corpus's logiface-zerolog package wraps.
type zerologSink struct {
	logger zerolog.Logger
}

// NewZerologEventSink builds an EventSink backed by zerolog, writing to w (or
// os.Stderr if w is nil).
func NewZerologEventSink(w *os.File) EventSink {
	if w == nil {
		w = os.Stderr
	}
	return &zerologSink{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func (z *zerologSink) Log(level Level, message string) {
	z.event(level).Msg(message)
}

func (z *zerologSink) LogJob(level Level, job JobContext, message string) {
	z.event(level).
		Str("job_name", job.Name).
		Int("cpu_time", job.CPUTime).
		Int("priority", job.Priority).
		Str("status", job.Status.String()).
		Msg(message)
}

func (z *zerologSink) event(level Level) *zerolog.Event {
	switch level {
	case LevelDebug:
		return z.logger.Debug()
	case LevelWarn:
		return z.logger.Warn()
	case LevelError:
		return z.logger.Error()
	default:
		return z.logger.Info()
	}
}

// JobStateEvent is an immutable record of a status transition, published
// synchronously to observers by JobStateManager (spec.md §3).
type JobStateEvent struct {
	Job       *Job
	OldStatus Status
	NewStatus Status
	Source    string
	Message   string
}

// StateObserver receives JobStateEvent notifications. Implementations must
// not block indefinitely (spec.md §6); a panicking or slow observer does not
// prevent delivery to other observers and does not roll back the transition
// that triggered the event (spec.md §7).
type StateObserver interface {
	OnJobStateChanged(event JobStateEvent)
}

// StateObserverFunc adapts a plain function to StateObserver.
type StateObserverFunc func(event JobStateEvent)

func (f StateObserverFunc) OnJobStateChanged(event JobStateEvent) { f(event) }
