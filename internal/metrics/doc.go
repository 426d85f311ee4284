// Package metrics provides Prometheus instrumentation for the thumbnail
// pipeline. All metrics are prefixed with "media_browser_".
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight gauge.
//   - Resolver: resolutions by branch and outcome, time to delivery,
//     background tasks in flight, coalesced extractions.
//   - Extraction: ffmpeg frame extractions by locality and status,
//     extraction duration, fallback deliveries by asset name.
//   - Cache: hits by tier, misses, entries, persistent tier errors.
//   - Fetch: remote image fetches by status and duration.
//   - Filesystem: stat/open durations and NFS retry counts.
//   - Memory: usage ratio, paused state, GOMEMLIMIT.
//
// Label combinations are pre-populated by [InitializeMetrics] so dashboards
// see every series from the first scrape.
package metrics
