// Package main provides the entry point for the Media Browser thumbnail
// server.
//
// Media Browser resolves thumbnails for a scrolling media list: remote still
// images are downloaded and cached, videos have a frame extracted with
// FFmpeg three seconds in, and failed extractions fall back to a placeholder
// image. Results are served as JPEG over HTTP.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets the Go memory limit from MEMORY_LIMIT or GOMEMLIMIT
//  2. Configuration Loading: Reads .env and environment variables, validates directories
//  3. Thumbnail Cache: Opens the memory, disk or SQLite backend
//  4. Component Initialization:
//     - Frame Extractor: FFmpeg, bounded by EXTRACT_TIMEOUT
//     - Image Fetcher: resty client with retries and its own cache
//     - Memory Monitor: Holds back extractions under heap pressure
//     - Resolver: Background pool plus a completion loop
//     - Metrics Collector: Copies cache sizes into gauges every minute
//  5. HTTP Server Setup: Routes, logging and metrics middleware
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, drains background work
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - GET /api/thumbnail?image=URL
//     - GET /api/thumbnail?video=URL-or-path&kind=youtube|vimeo|stream|other
//     - GET /api/thumbnail?youtube=ID&image=POSTER
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// See package startup for environment variables.
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests
//  2. Shutdown metrics server (if running)
//  3. Stop memory monitor and metrics collector
//  4. Wait for in-flight fetches and extractions
//  5. Close the completion loop and the thumbnail store
//
// # Build Requirements
//
// CGO is required for SQLite and libvips; FFmpeg must be on PATH or named by
// FFMPEG_PATH.
//
//	go build -o media-browser ./cmd/media-browser
package main
