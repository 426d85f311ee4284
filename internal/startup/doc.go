// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded from environment variables via [LoadConfig]. A
// .env file (or the file named by ENV_FILE) is read first; variables already
// set in the environment win.
//
//   - MEDIA_DIR: Root for local video paths accepted over HTTP (optional; unset rejects local paths)
//   - CACHE_DIR: Thumbnail cache directory (default: /cache)
//   - CACHE_BACKEND: memory, disk or sqlite (default: disk)
//   - ASSET_DIR: Directory with placeholder image overrides (optional)
//   - FFMPEG_PATH: ffmpeg binary (default: ffmpeg)
//   - EXTRACT_TIMEOUT: Per-frame extraction timeout (default: 30s)
//   - FETCH_TIMEOUT: Remote image download timeout (default: 15s)
//   - FETCH_MAX_MB: Largest remote image response read, in MiB (default: 20)
//   - FETCH_ALLOW_PRIVATE: Allow image URLs on loopback or private networks (default: false)
//   - BACKGROUND_WORKERS: 0 for unbounded, auto, or a number (default: 0)
//   - COALESCE_EXTRACTIONS: Share one extraction between concurrent requests for the same video (default: false)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//   - THUMBNAIL_WORKERS: pins the worker count used by BACKGROUND_WORKERS=auto
//
// When the cache directory is not writable the disk and sqlite backends
// fall back to memory.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
