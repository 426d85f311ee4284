package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Resolver metrics
var (
	// ResolutionsTotal counts resolve calls by branch (inline, image_url,
	// cache_hit, extract, invalid) and outcome (delivered, fallback, failed).
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_resolutions_total",
			Help: "Total number of thumbnail resolutions",
		},
		[]string{"branch", "outcome"},
	)

	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_resolution_duration_seconds",
			Help:    "Time from resolve call to delivery",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"branch"},
	)

	BackgroundTasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_background_tasks_in_flight",
			Help: "Number of resolver tasks running on the background pool",
		},
	)

	CoalescedExtractions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_coalesced_extractions_total",
			Help: "Extractions that joined an in-flight extraction for the same key",
		},
	)
)

// Frame extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_extractions_total",
			Help: "Total number of video frame extractions",
		},
		[]string{"locality", "status"}, // local|remote, success|open_error|decode_error
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_extraction_duration_seconds",
			Help:    "Video frame extraction duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"locality"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_fallbacks_total",
			Help: "Total number of fallback placeholder deliveries",
		},
		[]string{"asset"},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
		[]string{"cache", "tier"}, // tier: memory|store
	)

	ThumbnailCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
		[]string{"cache"},
	)

	ThumbnailCacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_browser_thumbnail_cache_entries",
			Help: "Number of thumbnails held in memory",
		},
		[]string{"cache"},
	)

	ThumbnailStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_thumbnail_store_errors_total",
			Help: "Errors reading or writing the persistent thumbnail tier",
		},
		[]string{"backend", "operation"},
	)
)

// Image fetch metrics
var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_image_fetches_total",
			Help: "Total number of remote image fetches",
		},
		[]string{"status"}, // success|cached|http_error|decode_error|transport_error|too_large|forbidden
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_browser_image_fetch_duration_seconds",
			Help:    "Remote image fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_filesystem_retry_attempts_total",
			Help: "Retries caused by stale NFS file handles",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_filesystem_retry_failures_total",
			Help: "Operations that still failed after all retries",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_memory_paused",
			Help: "Whether extraction is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_memory_gc_pauses_total",
			Help: "Times processing was paused and a GC forced",
		},
	)

	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_browser_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
