package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"media-browser/internal/extractor"
	"media-browser/internal/fetcher"
	"media-browser/internal/logging"
	"media-browser/internal/manifest"
	"media-browser/internal/media"
	"media-browser/internal/resolver"
	"media-browser/internal/thumbcache"
	"media-browser/internal/workers"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const (
	// Upper bound for concurrent resolutions
	maxWorkers = 8
	// Default time allowed for a single entry
	defaultEntryTimeout = time.Minute
)

// status is the outcome of one manifest entry.
type status int

const (
	statusWritten status = iota
	statusSkipped
	statusFailed
)

func (s status) String() string {
	switch s {
	case statusWritten:
		return "ok"
	case statusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// result records what happened to one entry.
type result struct {
	index  int
	label  string
	path   string
	status status
	err    error
}

// options are the parsed command line flags.
type options struct {
	manifest     string
	outDir       string
	cacheDir     string
	ffmpegPath   string
	assetDir     string
	workers      int
	entryTimeout time.Duration
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("thumbgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.manifest, "manifest", "", "manifest JSON file (required)")
	fs.StringVar(&opts.outDir, "out", "thumbnails", "output directory for NNN.jpg files")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "persist extracted frames in this directory between runs")
	fs.StringVar(&opts.ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary")
	fs.StringVar(&opts.assetDir, "assets", "", "directory with placeholder image overrides")
	fs.IntVar(&opts.workers, "workers", workers.ForMixed(maxWorkers), "concurrent resolutions")
	fs.DurationVar(&opts.entryTimeout, "timeout", defaultEntryTimeout, "time allowed per entry")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Media Browser Thumbnail Generator")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Usage: thumbgen -manifest file.json [-out dir]")
		fmt.Fprintln(stderr, "")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.manifest == "" && fs.NArg() == 1 {
		opts.manifest = fs.Arg(0)
	}
	if opts.manifest == "" {
		fs.Usage()
		return opts, errors.New("-manifest is required")
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	entries, err := manifest.Load(opts.manifest)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to read manifest: %v\n", err)
		return 1
	}

	if err := media.InitVips(); err != nil {
		logging.Debug("libvips unavailable: %v", err)
	}
	defer media.ShutdownVips()

	res, closeRes, err := newResolver(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeRes()

	results, err := generate(ctx, res, entries, opts, newProgress(stdout, len(entries)))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return report(stdout, stderr, results)
}

// newResolver wires the pipeline used by the server, with completions run
// inline because every caller blocks in ResolveWait anyway.
func newResolver(opts options) (*resolver.Resolver, func(), error) {
	cacheOpts := thumbcache.Options{Name: "thumbnails"}
	if opts.cacheDir != "" {
		store, err := thumbcache.NewDiskStore(opts.cacheDir)
		if err != nil {
			return nil, nil, err
		}
		cacheOpts.Store = store
	}

	pool := resolver.NewPool(opts.workers)
	res, err := resolver.New(resolver.Options{
		Cache:     thumbcache.New(cacheOpts),
		Fetcher:   fetcher.New(fetcher.Options{Retries: 2, AllowPrivate: true}),
		Extractor: extractor.New(extractor.Options{FFmpegPath: opts.ffmpegPath}),
		Fallback:  media.NewAssets(opts.assetDir),
		Pool:      pool,
		Coalesce:  true,
	})
	if err != nil {
		return nil, nil, err
	}
	return res, res.Wait, nil
}

// ThumbnailResolver is the part of the resolver generate needs.
type ThumbnailResolver interface {
	ResolveWait(ctx context.Context, ref media.Reference) (image.Image, error)
}

// generate resolves every entry and writes the results into opts.outDir as
// 001.jpg, 002.jpg, ... in manifest order. Entry failures are recorded in
// the results; only setup errors are returned.
func generate(ctx context.Context, res ThumbnailResolver, entries []manifest.Entry, opts options, prog *progress) ([]result, error) {
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]result, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)

	for i, entry := range entries {
		g.Go(func() error {
			r := resolveEntry(gctx, res, i, entry, opts)
			results[i] = r
			prog.done(r)
			// Entry failures never cancel the rest of the run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	prog.finish()
	return results, ctx.Err()
}

func resolveEntry(ctx context.Context, res ThumbnailResolver, i int, entry manifest.Entry, opts options) result {
	r := result{index: i, label: entry.Label()}

	// Interrupted: leave the remaining entries undispatched
	if err := ctx.Err(); err != nil {
		r.status, r.err = statusSkipped, err
		return r
	}

	ref, err := entry.Reference()
	if err != nil {
		r.status, r.err = statusSkipped, err
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, opts.entryTimeout)
	defer cancel()

	img, err := res.ResolveWait(ctx, ref)
	switch {
	case errors.Is(err, resolver.ErrInvalidReference):
		r.status, r.err = statusSkipped, errors.New("no image_file, image_url or video")
		return r
	case err != nil:
		r.status, r.err = statusFailed, err
		return r
	}

	data, err := media.EncodeJPEG(img)
	if err != nil {
		r.status, r.err = statusFailed, err
		return r
	}

	r.path = filepath.Join(opts.outDir, fmt.Sprintf("%03d.jpg", i+1))
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.status, r.err = statusFailed, fmt.Errorf("failed to write %s: %w", r.path, err)
		return r
	}
	r.status = statusWritten
	return r
}

// report prints skipped and failed entries and returns the exit code: 1 if
// anything failed, 0 otherwise.
func report(stdout, stderr io.Writer, results []result) int {
	counts := map[status]int{}
	for _, r := range results {
		counts[r.status]++
		if r.status != statusWritten {
			fmt.Fprintf(stderr, "  #%03d %-7s %s: %v\n", r.index+1, r.status, r.label, r.err)
		}
	}

	fmt.Fprintf(stdout, "Done: %d written, %d skipped, %d failed\n",
		counts[statusWritten], counts[statusSkipped], counts[statusFailed])
	if counts[statusFailed] > 0 {
		return 1
	}
	return 0
}

// progress prints one line per finished entry, or a single updating line
// when stdout is a terminal.
type progress struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	total int
	count int
}

func newProgress(w io.Writer, total int) *progress {
	p := &progress{w: w, total: total}
	if f, ok := w.(*os.File); ok {
		p.tty = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progress) done(r result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	if p.tty {
		fmt.Fprintf(p.w, "\r[%d/%d] %-60.60s", p.count, p.total, r.label)
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s %s\n", p.count, p.total, r.status, r.label)
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty && p.count > 0 {
		fmt.Fprintln(p.w)
	}
}
