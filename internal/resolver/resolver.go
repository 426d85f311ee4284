package resolver

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/media"
	"media-browser/internal/metrics"
	"media-browser/internal/thumbcache"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidReference is returned for a reference with no source set.
	// The callback is never invoked for such a reference.
	ErrInvalidReference = errors.New("invalid media reference: no source set")

	// ErrImageUnavailable is returned by ResolveWait when the image fetcher
	// failed. Resolve itself never delivers in that case.
	ErrImageUnavailable = errors.New("image unavailable")

	errNilCallback = errors.New("resolver: nil callback")
)

// Extractor decodes one representative frame from a video source.
type Extractor interface {
	Extract(ctx context.Context, source string, local bool) (image.Image, error)
}

// Fetcher resolves a remote image URL. It is expected to cache on its own.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// Assets supplies named placeholder images.
type Assets interface {
	Named(name string) (image.Image, error)
}

// Gate holds back extractions under memory pressure. WaitIfPaused returns
// false when the gate shut down while waiting; the extraction proceeds
// either way.
type Gate interface {
	WaitIfPaused() bool
}

// Options configures a Resolver. Cache, Fetcher and Extractor are required.
type Options struct {
	Cache     *thumbcache.Cache
	Fetcher   Fetcher
	Extractor Extractor

	// Fallback defaults to the built-in assets.
	Fallback Assets
	// Completion is where onReady runs. Defaults to Inline.
	Completion Dispatcher
	// Pool runs fetches and extractions. Defaults to an unbounded pool.
	Pool *Pool
	// Gate is optional.
	Gate Gate
	// Exists overrides the locality check of every reference.
	Exists media.ExistsFunc
	// Coalesce shares one extraction between concurrent resolutions of the
	// same uncached video key.
	Coalesce bool
}

// Resolver turns media references into thumbnails.
type Resolver struct {
	cache      *thumbcache.Cache
	fetcher    Fetcher
	extractor  Extractor
	fallback   Assets
	builtin    *media.Assets
	completion Dispatcher
	pool       *Pool
	gate       Gate
	exists     media.ExistsFunc
	coalesce   bool
	group      singleflight.Group
}

// Branch names reported in Result and the resolution metrics.
const (
	BranchInline   = "inline"
	BranchImageURL = "image_url"
	BranchCacheHit = "cache_hit"
	BranchExtract  = "extract"
	BranchFallback = "fallback"
)

// Result is a delivered thumbnail and the branch that produced it.
type Result struct {
	Image image.Image
	// Branch is one of the Branch constants. BranchFallback means the
	// extraction failed and Image is the placeholder.
	Branch string
}

// Fallback reports whether Image is the placeholder.
func (r Result) Fallback() bool { return r.Branch == BranchFallback }

// outcome is what the background stage hands to delivery.
type outcome struct {
	img    image.Image
	branch string
	result string // delivered|fallback|failed
	err    error
}

// New creates a resolver.
func New(opts Options) (*Resolver, error) {
	if opts.Cache == nil {
		return nil, errors.New("resolver: cache is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("resolver: fetcher is required")
	}
	if opts.Extractor == nil {
		return nil, errors.New("resolver: extractor is required")
	}

	r := &Resolver{
		cache:      opts.Cache,
		fetcher:    opts.Fetcher,
		extractor:  opts.Extractor,
		fallback:   opts.Fallback,
		builtin:    media.NewAssets(""),
		completion: opts.Completion,
		pool:       opts.Pool,
		gate:       opts.Gate,
		exists:     opts.Exists,
		coalesce:   opts.Coalesce,
	}
	if r.fallback == nil {
		r.fallback = r.builtin
	}
	if r.completion == nil {
		r.completion = Inline{}
	}
	if r.pool == nil {
		r.pool = NewPool(0)
	}
	return r, nil
}

// Resolve produces a thumbnail for ref and passes it to onReady on the
// completion dispatcher.
//
// Sources are tried in a fixed order: inline image, image URL, video. A
// video is looked up in the cache first; on a miss its frame is extracted
// in the background, cached, then delivered. A failed extraction delivers
// the "Video-Streaming" placeholder, which is not cached.
//
// onReady is called exactly once for every reference with a source, except
// when the image fetcher fails: then nothing is delivered. A reference with
// no source returns ErrInvalidReference and onReady is never called.
//
// Once background work starts it is not cancelled. ctx supplies values to
// the fetcher and extractor, but its cancellation is ignored.
func (r *Resolver) Resolve(ctx context.Context, ref media.Reference, onReady func(image.Image)) error {
	if onReady == nil {
		return errNilCallback
	}
	return r.resolve(ctx, ref, func(o outcome) { onReady(o.img) }, nil)
}

// ResolveWait is Resolve for callers that want to block. It returns
// ErrImageUnavailable if the image fetcher fails and ctx.Err() if ctx ends
// first. It must not be called from the completion dispatcher's goroutine.
func (r *Resolver) ResolveWait(ctx context.Context, ref media.Reference) (image.Image, error) {
	res, err := r.ResolveResult(ctx, ref)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// ResolveResult is ResolveWait that also reports the branch taken. A ctx
// that is already done returns its error without starting any work.
func (r *Resolver) ResolveResult(ctx context.Context, ref media.Reference) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	delivered := make(chan Result, 1)
	failed := make(chan error, 1)

	err := r.resolve(ctx, ref,
		func(o outcome) { delivered <- Result{Image: o.img, Branch: o.reportedBranch()} },
		func(err error) { failed <- err },
	)
	if err != nil {
		return Result{}, err
	}

	select {
	case res := <-delivered:
		return res, nil
	case err := <-failed:
		return Result{}, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cache returns the thumbnail cache.
func (r *Resolver) Cache() *thumbcache.Cache {
	return r.cache
}

// Wait blocks until all background work started so far has finished.
func (r *Resolver) Wait() {
	r.pool.Wait()
}

func (r *Resolver) resolve(ctx context.Context, ref media.Reference, onReady func(outcome), onFailed func(error)) error {
	start := time.Now()

	switch ref.Primary() {
	case media.SourceInline:
		r.deliver(start, outcome{img: ref.InlineImage(), branch: BranchInline, result: "delivered"}, onReady, onFailed)

	case media.SourceImageURL:
		bg := context.WithoutCancel(ctx)
		r.pool.Go(func() {
			r.deliver(start, r.produceImage(bg, ref.ImageURL()), onReady, onFailed)
		})

	case media.SourceVideo:
		key := ref.CacheKey()
		if img, ok := r.cache.Get(key); ok {
			logging.Debug("Thumbnail cache hit: %s", key)
			r.deliver(start, outcome{img: img, branch: BranchCacheHit, result: "delivered"}, onReady, onFailed)
			return nil
		}
		bg := context.WithoutCancel(ctx)
		r.pool.Go(func() {
			r.deliver(start, r.produceFrame(bg, ref), onReady, onFailed)
		})

	default:
		metrics.ResolutionsTotal.WithLabelValues("invalid", "failed").Inc()
		logging.Warn("Refusing to resolve reference with no source")
		return ErrInvalidReference
	}
	return nil
}

// produceImage is the background stage of the image URL branch.
func (r *Resolver) produceImage(ctx context.Context, url string) outcome {
	img, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return outcome{branch: BranchImageURL, result: "failed", err: err}
	}
	return outcome{img: img, branch: BranchImageURL, result: "delivered"}
}

// produceFrame is the background stage of the video branch. On success the
// frame is in the cache before it is returned.
func (r *Resolver) produceFrame(ctx context.Context, ref media.Reference) outcome {
	source := ref.VideoSource()
	local := r.isLocal(ref, source)

	if r.gate != nil && !r.gate.WaitIfPaused() {
		logging.Debug("Memory gate closed while waiting, extracting %s anyway", source)
	}

	img, err := r.extractAndStore(ctx, source, local)
	if err != nil {
		logging.Warn("Frame extraction failed for %s (local=%v): %v", source, local, err)
		return outcome{img: r.placeholder(), branch: BranchExtract, result: "fallback", err: err}
	}
	return outcome{img: img, branch: BranchExtract, result: "delivered"}
}

func (r *Resolver) extractAndStore(ctx context.Context, source string, local bool) (image.Image, error) {
	run := func() (image.Image, error) {
		img, err := r.extractor.Extract(ctx, source, local)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, errors.New("extractor returned no frame")
		}
		r.cache.Set(source, img)
		return img, nil
	}

	if !r.coalesce {
		return run()
	}

	v, err, shared := r.group.Do(source, func() (interface{}, error) {
		return run()
	})
	if shared {
		metrics.CoalescedExtractions.Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (r *Resolver) isLocal(ref media.Reference, path string) bool {
	if r.exists != nil {
		return r.exists(path)
	}
	return ref.IsLocalFile(path)
}

func (r *Resolver) placeholder() image.Image {
	metrics.FallbacksTotal.WithLabelValues(media.VideoPlaceholder).Inc()

	img, err := r.fallback.Named(media.VideoPlaceholder)
	if err == nil {
		return img
	}
	logging.Error("Fallback asset %s unavailable, using built-in: %v", media.VideoPlaceholder, err)

	// The built-in placeholder is generated, it cannot fail
	img, _ = r.builtin.Named(media.VideoPlaceholder)
	return img
}

// deliver is the single completion point of every resolution.
func (r *Resolver) deliver(start time.Time, o outcome, onReady func(outcome), onFailed func(error)) {
	metrics.ResolutionsTotal.WithLabelValues(o.branch, o.result).Inc()

	if o.img == nil {
		logging.Warn("No thumbnail delivered (%s): %v", o.branch, o.err)
		if onFailed != nil {
			onFailed(o.err)
		}
		return
	}

	r.completion.Dispatch(func() {
		metrics.ResolutionDuration.WithLabelValues(o.branch).Observe(time.Since(start).Seconds())
		onReady(o)
	})
}

func (o outcome) reportedBranch() string {
	if o.result == "fallback" {
		return BranchFallback
	}
	return o.branch
}
