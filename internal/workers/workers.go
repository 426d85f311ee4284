package workers

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// OverrideEnv names the environment variable that pins the worker count.
const OverrideEnv = "THUMBNAIL_WORKERS"

// Count returns the number of workers for a task type, derived from
// GOMAXPROCS so container CPU limits are respected.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks (ffmpeg decode plus network reads)
//
// The limit caps the result; 0 means no cap. THUMBNAIL_WORKERS overrides
// the computed value but is still capped.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// PoolLimit interprets a BACKGROUND_WORKERS style setting:
//   - "" or "0": unbounded (returns 0)
//   - "auto": ForMixed(limit)
//   - a positive integer: that number
//
// Anything else is treated as unbounded and ok is false.
func PoolLimit(setting string, limit int) (n int, ok bool) {
	s := strings.ToLower(strings.TrimSpace(setting))
	switch s {
	case "", "0":
		return 0, true
	case "auto":
		return ForMixed(limit), true
	}

	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
