package resolver

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"media-browser/internal/thumbcache"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

type extractCall struct {
	source string
	local  bool
}

type fakeExtractor struct {
	mu      sync.Mutex
	calls   []extractCall
	img     image.Image
	err     error
	release chan struct{} // if set, Extract blocks until closed
	started chan struct{} // if set, receives once per call
	// checkCtx fails the extraction if ctx is already done
	checkCtx bool
}

func (f *fakeExtractor) Extract(ctx context.Context, source string, local bool) (image.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, extractCall{source, local})
	img, err := f.img, f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.checkCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return img, err
}

func (f *fakeExtractor) Calls() []extractCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]extractCall(nil), f.calls...)
}

type fakeFetcher struct {
	mu   sync.Mutex
	urls []string
	img  image.Image
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	img, err := f.img, f.err
	f.mu.Unlock()
	return img, err
}

func (f *fakeFetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type fakeAssets struct {
	img image.Image
	err error
}

func (f fakeAssets) Named(string) (image.Image, error) { return f.img, f.err }

type countingGate struct{ waits atomic.Int32 }

func (g *countingGate) WaitIfPaused() bool {
	g.waits.Add(1)
	return true
}

// uiDispatcher wraps a Loop and records whether a callback is running on it.
type uiDispatcher struct {
	loop   *Loop
	active atomic.Bool
	count  atomic.Int32
}

func newUIDispatcher(t *testing.T) *uiDispatcher {
	t.Helper()
	d := &uiDispatcher{loop: NewLoop()}
	t.Cleanup(d.loop.Close)
	return d
}

func (d *uiDispatcher) Dispatch(fn func()) {
	d.count.Add(1)
	d.loop.Dispatch(func() {
		d.active.Store(true)
		defer d.active.Store(false)
		fn()
	})
}

func (d *uiDispatcher) OnUI() bool { return d.active.Load() }

// collector records deliveries for one resolve call.
type collector struct {
	mu     sync.Mutex
	images []image.Image
	onUI   []bool
	done   chan struct{}
	once   sync.Once
	ui     *uiDispatcher
}

func newCollector(ui *uiDispatcher) *collector {
	return &collector{done: make(chan struct{}), ui: ui}
}

func (c *collector) onReady(img image.Image) {
	c.mu.Lock()
	c.images = append(c.images, img)
	if c.ui != nil {
		c.onUI = append(c.onUI, c.ui.OnUI())
	}
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *collector) wait(t *testing.T) image.Image {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("onReady was never called")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.images[0]
}

func (c *collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

type fixture struct {
	cache     *thumbcache.Cache
	extractor *fakeExtractor
	fetcher   *fakeFetcher
	ui        *uiDispatcher
	fallback  image.Image
	resolver  *Resolver
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		cache:     thumbcache.New(thumbcache.Options{}),
		extractor: &fakeExtractor{img: solid(16, 9, color.White)},
		fetcher:   &fakeFetcher{img: solid(4, 4, color.Black)},
		ui:        newUIDispatcher(t),
		fallback:  solid(2, 2, color.Gray{Y: 0x40}),
	}
	opts := Options{
		Cache:      f.cache,
		Fetcher:    f.fetcher,
		Extractor:  f.extractor,
		Fallback:   fakeAssets{img: f.fallback},
		Completion: f.ui,
		Pool:       NewPool(0),
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	f.resolver = r
	return f
}

var errBoom = errors.New("boom")

func writeFile(path string) error {
	return os.WriteFile(path, []byte("video"), 0o644)
}
