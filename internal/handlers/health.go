package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-browser/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	Ready           bool   `json:"ready"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	FFmpegAvailable bool   `json:"ffmpegAvailable"`

	// Memory pressure; present only when a monitor is configured
	MemoryPaused bool    `json:"memoryPaused"`
	MemoryUsage  float64 `json:"memoryUsage,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

func (h *Handlers) memoryPaused() bool {
	return h.memory != nil && h.memory.IsPaused()
}

// HealthCheck returns the health status of the service. It always answers
// 200; a paused extractor only degrades the status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:          statusHealthy,
		Ready:           !h.memoryPaused(),
		Version:         startup.Version,
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		FFmpegAvailable: h.ffmpegAvailable,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	if h.memory != nil {
		_, _, usage := h.memory.GetStats()
		response.MemoryUsage = usage
		response.MemoryPaused = h.memory.IsPaused()
	}
	if response.MemoryPaused || !h.ffmpegAvailable {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 503 while memory pressure holds back extractions
// so load balancers send new work elsewhere.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.memoryPaused() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}
