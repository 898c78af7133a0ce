package tracking

import (
	"sync"
	"time"
)

// PollMetrics tracks poll-cycle performance.
type PollMetrics struct {
	TicksCompleted int64     `json:"ticks_completed"`
	TicksSkipped   int64     `json:"ticks_skipped"`
	TicksFailed    int64     `json:"ticks_failed"`
	AssetsSeen     int       `json:"assets_seen"`
	LoadsTracked   int       `json:"loads_tracked"`
	EventsEmitted  int64     `json:"events_emitted"`
	LastTickAt     time.Time `json:"last_tick_at"`
	LastTickMillis int64     `json:"last_tick_millis"`
}

// MetricsTracker provides a goroutine-safe wrapper around PollMetrics.
type MetricsTracker struct {
	mu      sync.RWMutex
	metrics PollMetrics
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation in a thread-safe way.
func (t *MetricsTracker) Update(fn func(*PollMetrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.metrics)
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() PollMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// Reset clears accumulated metrics.
func (t *MetricsTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = PollMetrics{}
}
