package metrics

import (
	"time"

	"media-browser/internal/logging"
)

// StatsProvider reports the number of entries held by a named cache.
type StatsProvider interface {
	Name() string
	Len() int
}

// Collector periodically copies cache sizes into gauges.
type Collector struct {
	providers []StatsProvider
	interval  time.Duration
	stopChan  chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(interval time.Duration, providers ...StatsProvider) *Collector {
	return &Collector{
		providers: providers,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	for _, p := range c.providers {
		if p == nil {
			continue
		}
		n := p.Len()
		ThumbnailCacheEntries.WithLabelValues(p.Name()).Set(float64(n))
		logging.Debug("Metrics collected: cache=%s entries=%d", p.Name(), n)
	}
}
