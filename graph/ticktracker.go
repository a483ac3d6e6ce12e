package graph

import (
	"sync"
	"time"
)

// Clock supplies the high-precision tick source node timing is measured
// against. Production code uses realClock; tests substitute a fakeClock to
// get deterministic TicksElapsed values without depending on wall time.
type Clock interface {
	NowTicks() int64
}

// realClock measures ticks in nanoseconds since an arbitrary epoch.
type realClock struct{ start time.Time }

func newRealClock() *realClock {
	return &realClock{start: time.Now()}
}

func (c *realClock) NowTicks() int64 {
	return time.Since(c.start).Nanoseconds()
}

// TickTracker accumulates per-operation-kind timing across a job's
// lifetime and exposes it through Total and Count. It is separate from the
// Prometheus node-ticks histogram, which Metrics observes directly.
// Structurally this mirrors an accumulate-under-mutex, query-on-demand
// pattern: a map of running totals guarded by a single mutex, with no
// per-key locking since contention is never a concern for a
// single-threaded job.
type TickTracker struct {
	mu     sync.Mutex
	totals map[string]int64
	counts map[string]int64
}

// NewTickTracker returns an empty tracker.
func NewTickTracker() *TickTracker {
	return &TickTracker{
		totals: make(map[string]int64),
		counts: make(map[string]int64),
	}
}

// Record attributes elapsed ticks to opName.
func (t *TickTracker) Record(opName string, elapsed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals[opName] += elapsed
	t.counts[opName]++
}

// Total returns the cumulative ticks recorded for opName.
func (t *TickTracker) Total(opName string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals[opName]
}

// Count returns how many times opName was recorded.
func (t *TickTracker) Count(opName string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[opName]
}
