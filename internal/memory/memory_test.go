package memory

import (
	"sync/atomic"
	"testing"
	"time"
)

const testLimit = 100 * 1024 * 1024

func newTestMonitor(alloc *atomic.Uint64) *Monitor {
	m := NewMonitor(Config{
		MemoryLimitBytes:  testLimit,
		ResumeWaterMark:   0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
	m.readAlloc = alloc.Load
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MemoryLimitBytes != 0 {
		t.Errorf("MemoryLimitBytes = %d, want 0", cfg.MemoryLimitBytes)
	}
	if cfg.ResumeWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("ResumeWaterMark %v must be below CriticalWaterMark %v", cfg.ResumeWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", cfg.CheckInterval)
	}
}

func TestMonitorPauseAndResume(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)
	defer m.Stop()

	tests := []struct {
		name       string
		alloc      uint64
		wantPaused bool
	}{
		{"low usage", testLimit / 2, false},
		{"critical usage pauses", testLimit * 9 / 10, true},
		{"between marks stays paused", testLimit * 8 / 10, true},
		{"below resume mark resumes", testLimit * 6 / 10, false},
		{"between marks stays running", testLimit * 8 / 10, false},
	}

	for _, tt := range tests {
		alloc.Store(tt.alloc)
		m.checkMemory()
		if m.IsPaused() != tt.wantPaused {
			t.Errorf("%s: IsPaused() = %v, want %v", tt.name, m.IsPaused(), tt.wantPaused)
		}
	}
}

func TestWaitIfPausedBlocksUntilResume(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)
	defer m.Stop()

	if !m.WaitIfPaused() {
		t.Fatal("WaitIfPaused() = false while running")
	}

	alloc.Store(testLimit)
	m.checkMemory()

	released := make(chan bool)
	go func() { released <- m.WaitIfPaused() }()

	select {
	case <-released:
		t.Fatal("WaitIfPaused returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	alloc.Store(0)
	m.checkMemory()

	select {
	case ok := <-released:
		if !ok {
			t.Error("WaitIfPaused() = false after resume, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after resume")
	}
}

func TestWaitIfPausedReleasedByStop(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)

	alloc.Store(testLimit)
	m.checkMemory()

	released := make(chan bool)
	go func() { released <- m.WaitIfPaused() }()

	m.Stop()
	m.Stop()

	select {
	case ok := <-released:
		if ok {
			t.Error("WaitIfPaused() = true after Stop, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Stop did not release the waiter")
	}
}

func TestGetStats(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)
	defer m.Stop()

	alloc.Store(testLimit / 4)
	m.checkMemory()

	current, limit, usage := m.GetStats()
	if current != testLimit/4 {
		t.Errorf("current = %d, want %d", current, testLimit/4)
	}
	if limit != testLimit {
		t.Errorf("limit = %d, want %d", limit, testLimit)
	}
	if usage != 0.25 {
		t.Errorf("usage = %v, want 0.25", usage)
	}
}

func TestMonitorStartStop(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  testLimit,
		ResumeWaterMark:   0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     10 * time.Millisecond,
	})
	m.Start()
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	if current, _, _ := m.GetStats(); current <= 0 {
		t.Errorf("monitor did not sample, current = %d", current)
	}
}
