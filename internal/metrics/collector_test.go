package metrics

import (
	"sync"
	"testing"
	"time"
)

type mockStatsProvider struct {
	mu   sync.Mutex
	name string
	n    int
}

func (m *mockStatsProvider) Name() string { return m.name }

func (m *mockStatsProvider) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

func (m *mockStatsProvider) set(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n = n
}

func entriesGauge(t *testing.T, cache string) float64 {
	t.Helper()
	return readMetric(t, ThumbnailCacheEntries.WithLabelValues(cache)).GetGauge().GetValue()
}

func waitForGauge(t *testing.T, cache string, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if entriesGauge(t, cache) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cache %s entries = %v, want %v", cache, entriesGauge(t, cache), want)
}

func TestCollectorCollectsImmediately(t *testing.T) {
	provider := &mockStatsProvider{name: "collector_test_immediate", n: 42}

	c := NewCollector(time.Hour, provider)
	c.Start()
	defer c.Stop()

	waitForGauge(t, provider.name, 42)
}

func TestCollectorTicks(t *testing.T) {
	provider := &mockStatsProvider{name: "collector_test_ticks", n: 1}

	c := NewCollector(10*time.Millisecond, provider)
	c.Start()
	defer c.Stop()

	waitForGauge(t, provider.name, 1)
	provider.set(7)
	waitForGauge(t, provider.name, 7)
}

func TestCollectorSkipsNilProvider(t *testing.T) {
	provider := &mockStatsProvider{name: "collector_test_nil", n: 3}

	c := NewCollector(time.Hour, nil, provider)
	c.collect()

	if got := entriesGauge(t, provider.name); got != 3 {
		t.Errorf("entries = %v, want 3", got)
	}
}

func TestCollectorStop(t *testing.T) {
	provider := &mockStatsProvider{name: "collector_test_stop", n: 5}

	c := NewCollector(5*time.Millisecond, provider)
	c.Start()
	waitForGauge(t, provider.name, 5)
	c.Stop()

	// Let any tick already in progress finish.
	time.Sleep(20 * time.Millisecond)
	provider.set(99)
	time.Sleep(30 * time.Millisecond)

	if got := entriesGauge(t, provider.name); got != 5 {
		t.Errorf("entries after Stop = %v, want 5", got)
	}
}
