// Package metrics keeps in-process latency percentiles per operation.
package metrics

import (
	"sort"
	"sync"
	"time"
)

const defaultWindow = 1000

// Tracker holds a sliding window of latency samples in microseconds, in arrival order.
type Tracker struct {
	mu      sync.Mutex
	samples []int64
	window  int
}

func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = defaultWindow
	}
	return &Tracker{
		samples: make([]int64, 0, window),
		window:  window,
	}
}

func (t *Tracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) >= t.window {
		// drop the oldest tenth at once so a full window is not shifted on every sample
		drop := t.window / 10
		if drop < 1 {
			drop = 1
		}
		t.samples = t.samples[drop:]
	}
	t.samples = append(t.samples, d.Microseconds())
}

// Stats summarizes the current window.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.samples)
	if n == 0 {
		return Stats{}
	}

	sorted := make([]int64, n)
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, v := range sorted {
		sum += v
	}

	at := func(p float64) time.Duration {
		return time.Duration(sorted[int(float64(n-1)*p)]) * time.Microsecond
	}
	return Stats{
		Count: n,
		Min:   time.Duration(sorted[0]) * time.Microsecond,
		Max:   time.Duration(sorted[n-1]) * time.Microsecond,
		Avg:   time.Duration(sum/int64(n)) * time.Microsecond,
		P50:   at(0.50),
		P95:   at(0.95),
		P99:   at(0.99),
	}
}

// Stats is a percentile summary of one tracker.
type Stats struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Millis renders the summary with millisecond values for JSON output.
func (s Stats) Millis() map[string]any {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return map[string]any{
		"count":  s.Count,
		"min_ms": ms(s.Min),
		"max_ms": ms(s.Max),
		"avg_ms": ms(s.Avg),
		"p50_ms": ms(s.P50),
		"p95_ms": ms(s.P95),
		"p99_ms": ms(s.P99),
	}
}

// Registry keys trackers by operation name, e.g. "POST /api/v1/emails/process".
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
	window   int
}

func NewRegistry(window int) *Registry {
	return &Registry{
		trackers: make(map[string]*Tracker),
		window:   window,
	}
}

func (r *Registry) Record(op string, d time.Duration) {
	r.mu.RLock()
	t, ok := r.trackers[op]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if t, ok = r.trackers[op]; !ok {
			t = NewTracker(r.window)
			r.trackers[op] = t
		}
		r.mu.Unlock()
	}
	t.Record(d)
}

func (r *Registry) Stats(op string) Stats {
	r.mu.RLock()
	t, ok := r.trackers[op]
	r.mu.RUnlock()
	if !ok {
		return Stats{}
	}
	return t.Stats()
}

func (r *Registry) All() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Stats, len(r.trackers))
	for op, t := range r.trackers {
		out[op] = t.Stats()
	}
	return out
}
