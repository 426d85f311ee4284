package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	branches := []string{"inline", "image_url", "cache_hit", "extract"}
	for _, b := range branches {
		for _, o := range []string{"delivered", "fallback", "failed"} {
			ResolutionsTotal.WithLabelValues(b, o)
		}
		ResolutionDuration.WithLabelValues(b)
	}
	ResolutionsTotal.WithLabelValues("invalid", "failed")

	for _, loc := range []string{"local", "remote"} {
		for _, s := range []string{"success", "open_error", "decode_error"} {
			ExtractionsTotal.WithLabelValues(loc, s)
		}
		ExtractionDuration.WithLabelValues(loc)
	}

	FallbacksTotal.WithLabelValues("Video-Streaming")

	for _, c := range []string{"thumbnails", "images"} {
		ThumbnailCacheHits.WithLabelValues(c, "memory")
		ThumbnailCacheHits.WithLabelValues(c, "store")
		ThumbnailCacheMisses.WithLabelValues(c)
		ThumbnailCacheEntries.WithLabelValues(c)
	}

	for _, backend := range []string{"disk", "sqlite"} {
		for _, op := range []string{"load", "save"} {
			ThumbnailStoreErrors.WithLabelValues(backend, op)
		}
	}

	for _, s := range []string{"success", "cached", "http_error", "decode_error", "transport_error", "too_large", "forbidden"} {
		FetchesTotal.WithLabelValues(s)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}
}
