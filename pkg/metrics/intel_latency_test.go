package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Stats(t *testing.T) {
	tr := NewTracker(100)
	for i := 1; i <= 100; i++ {
		tr.Record(time.Duration(i) * time.Millisecond)
	}

	s := tr.Stats()
	assert.Equal(t, 100, s.Count)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 95*time.Millisecond, s.P95)
	assert.Equal(t, 99*time.Millisecond, s.P99)
}

func TestTracker_WindowDropsOldest(t *testing.T) {
	tr := NewTracker(10)
	for i := 1; i <= 10; i++ {
		tr.Record(time.Duration(i) * time.Millisecond)
	}
	tr.Record(50 * time.Millisecond)

	s := tr.Stats()
	assert.Equal(t, 10, s.Count)
	assert.Equal(t, 2*time.Millisecond, s.Min)
	assert.Equal(t, 50*time.Millisecond, s.Max)
}

func TestTracker_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, NewTracker(0).Stats())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record("classify", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, r.Stats("classify").Count)
	assert.Equal(t, Stats{}, r.Stats("unknown"))
	assert.Len(t, r.All(), 1)
}

func TestStats_Millis(t *testing.T) {
	m := Stats{Count: 1, P50: 1500 * time.Microsecond}.Millis()
	assert.Equal(t, 1, m["count"])
	assert.Equal(t, 1.5, m["p50_ms"])
}
