package handlers

import (
	"context"
	"time"

	"media-browser/internal/media"
	"media-browser/internal/resolver"
)

// ThumbnailResolver turns a media reference into a display-ready image and
// reports which branch produced it.
type ThumbnailResolver interface {
	ResolveResult(ctx context.Context, ref media.Reference) (resolver.Result, error)
}

// MemoryStatus reports whether new extractions are held back by memory
// pressure.
type MemoryStatus interface {
	IsPaused() bool
	GetStats() (current, limit int64, usage float64)
}

// Options configures Handlers.
type Options struct {
	Resolver ThumbnailResolver

	// Memory is optional.
	Memory MemoryStatus

	// MediaDir is the root for local video paths. Empty rejects them.
	MediaDir string

	// RequestTimeout bounds how long a thumbnail request waits for the
	// resolver. Zero means the request context alone decides.
	RequestTimeout time.Duration

	// FFmpegAvailable is reported by the health endpoint.
	FFmpegAvailable bool
}

// Handlers serves the HTTP API.
type Handlers struct {
	resolver        ThumbnailResolver
	memory          MemoryStatus
	mediaDir        string
	requestTimeout  time.Duration
	ffmpegAvailable bool
	started         time.Time
}

// New creates the handler set.
func New(opts Options) *Handlers {
	return &Handlers{
		resolver:        opts.Resolver,
		memory:          opts.Memory,
		mediaDir:        opts.MediaDir,
		requestTimeout:  opts.RequestTimeout,
		ffmpegAvailable: opts.FFmpegAvailable,
		started:         time.Now(),
	}
}
