// Package memory sets the Go memory limit for containerised deployments and
// provides backpressure for frame extraction.
//
// Call [ConfigureFromEnv] first thing in main. It reads GOMEMLIMIT, or derives
// a limit from MEMORY_LIMIT (bytes, usually from the Kubernetes Downward API)
// and MEMORY_RATIO (default 0.85). The remaining share is left for ffmpeg and
// libvips, which allocate outside the Go heap.
//
// A [Monitor] samples the heap periodically. Once usage crosses the critical
// water mark, [Monitor.WaitIfPaused] blocks new extractions until usage drops
// below the resume mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	monitor.WaitIfPaused()
//	// ... run ffmpeg
package memory
