package batch

import (
	"sync"
	"time"
)

// MetricsRecord is the per-job performance record (spec.md §3). Times are
// epoch milliseconds; 0 means "not yet reached".
type MetricsRecord struct {
	Name        string
	CPUTime     int
	Priority    int
	ArrivalTime int64

	StartTime      int64
	CompletionTime int64
}

// WaitTime returns startTime - arrivalTime, or 0 if unstarted.
func (r MetricsRecord) WaitTime() int64 {
	if r.StartTime == 0 {
		return 0
	}
	return r.StartTime - r.ArrivalTime
}

// ActualCPUTime returns completionTime - startTime, or 0 if not completed.
func (r MetricsRecord) ActualCPUTime() int64 {
	if r.CompletionTime == 0 || r.StartTime == 0 {
		return 0
	}
	return r.CompletionTime - r.StartTime
}

// TurnaroundTime returns completionTime - arrivalTime, or 0 if not completed.
func (r MetricsRecord) TurnaroundTime() int64 {
	if r.CompletionTime == 0 {
		return 0
	}
	return r.CompletionTime - r.ArrivalTime
}

// MetricsSnapshot bundles the aggregate accessors with the per-job records,
// for callers that want them from a single call (SPEC_FULL.md supplement
// over spec.md §4.8's five separate accessors).
type MetricsSnapshot struct {
	Records        map[string]MetricsRecord
	TotalCompleted int64
	AvgTurnaround  float64
	AvgWaiting     float64
	AvgCPU         float64
	Throughput     float64
}

// MetricsRecorder aggregates per-job arrival/start/completion timestamps and
// derived aggregates, keyed by job name (spec.md §4.8). All operations are
// safe for concurrent use; updates referencing an unknown name are silently
// ignored.
type MetricsRecorder struct {
	mu sync.RWMutex

	records        map[string]MetricsRecord
	totalCompleted int64
	systemStart    int64
	lastReset      int64
	now            func() int64
}

// NewMetricsRecorder builds an empty recorder. startMillis is the engine's
// construction time (epoch ms), used as both systemStartTime and the initial
// lastResetTime.
func NewMetricsRecorder(startMillis int64) *MetricsRecorder {
	return &MetricsRecorder{
		records:     make(map[string]MetricsRecord),
		systemStart: startMillis,
		lastReset:   startMillis,
		now:         nowMillis,
	}
}

// OnSubmit creates (or overwrites) the per-job record for name.
func (m *MetricsRecorder) OnSubmit(name string, cpuTime, priority int, arrivalTime int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = MetricsRecord{
		Name:        name,
		CPUTime:     cpuTime,
		Priority:    priority,
		ArrivalTime: arrivalTime,
	}
}

// OnStart sets startTime for name. Ignored if name is unknown.
func (m *MetricsRecorder) OnStart(name string, t int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	if !ok {
		return
	}
	rec.StartTime = t
	m.records[name] = rec
}

// OnCompletion sets completionTime for name and increments totalCompleted.
// Ignored if name is unknown.
func (m *MetricsRecorder) OnCompletion(name string, t int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	if !ok {
		return
	}
	rec.CompletionTime = t
	m.records[name] = rec
	m.totalCompleted++
}

// AvgTurnaround returns the mean turnaround time over completed records, or
// 0 if none have completed.
func (m *MetricsRecorder) AvgTurnaround() float64 {
	return m.avgOver(func(r MetricsRecord) float64 { return float64(r.TurnaroundTime()) })
}

// AvgWaiting returns the mean wait time over completed records, or 0 if none.
func (m *MetricsRecorder) AvgWaiting() float64 {
	return m.avgOver(func(r MetricsRecord) float64 { return float64(r.WaitTime()) })
}

// AvgCPU returns the mean actual cpu time over completed records, or 0 if
// none.
func (m *MetricsRecorder) AvgCPU() float64 {
	return m.avgOver(func(r MetricsRecord) float64 { return float64(r.ActualCPUTime()) })
}

func (m *MetricsRecorder) avgOver(metric func(MetricsRecord) float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum float64
	var n int
	for _, rec := range m.records {
		if rec.CompletionTime > 0 {
			sum += metric(rec)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Throughput returns totalCompleted / elapsed-seconds-since-lastReset.
func (m *MetricsRecorder) Throughput() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	elapsed := time.Duration(m.now()-m.lastReset) * time.Millisecond
	if elapsed <= 0 {
		return 0
	}
	return float64(m.totalCompleted) / elapsed.Seconds()
}

// TotalCompleted returns the number of completed jobs since the last reset.
func (m *MetricsRecorder) TotalCompleted() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalCompleted
}

// Reset clears the per-job map and counters, preserves systemStartTime, and
// updates lastResetTime to now.
func (m *MetricsRecorder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]MetricsRecord)
	m.totalCompleted = 0
	m.lastReset = m.now()
}

// SnapshotMap returns a copy of the per-job records, for saving/restoring
// metrics in tests.
func (m *MetricsRecorder) SnapshotMap() map[string]MetricsRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]MetricsRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out
}

// MergeMap merges other into the recorder's per-job records, overwriting any
// existing entries with the same name. totalCompleted is recomputed from the
// merged set of completed records.
func (m *MetricsRecorder) MergeMap(other map[string]MetricsRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range other {
		m.records[k] = v
	}
	var completed int64
	for _, rec := range m.records {
		if rec.CompletionTime > 0 {
			completed++
		}
	}
	m.totalCompleted = completed
}

// Snapshot returns the aggregates plus per-job records in one value
// (SPEC_FULL.md supplement). Each field is read under its own lock
// acquisition, so an update that lands between them can make the fields
// disagree with each other.
func (m *MetricsRecorder) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Records:        m.SnapshotMap(),
		TotalCompleted: m.TotalCompleted(),
		AvgTurnaround:  m.AvgTurnaround(),
		AvgWaiting:     m.AvgWaiting(),
		AvgCPU:         m.AvgCPU(),
		Throughput:     m.Throughput(),
	}
}
