package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-browser/internal/extractor"
	"media-browser/internal/fetcher"
	"media-browser/internal/filesystem"
	"media-browser/internal/handlers"
	"media-browser/internal/logging"
	"media-browser/internal/media"
	"media-browser/internal/memory"
	"media-browser/internal/metrics"
	"media-browser/internal/middleware"
	"media-browser/internal/resolver"
	"media-browser/internal/startup"
	"media-browser/internal/thumbcache"

	"github.com/gorilla/mux"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

// closer is a shutdown step that may fail.
type closer struct {
	name string
	fn   func() error
}

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure Go resizing: %v", err)
	}

	// Thumbnail cache
	cacheStart := time.Now()
	store, location, closeStore, err := newStore(context.Background(), config)
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail cache: %v", err)
	}
	thumbnails := thumbcache.New(thumbcache.Options{Name: "thumbnails", Store: store})
	startup.LogCacheInit(config.CacheBackend, location, time.Since(cacheStart))

	// Collaborators
	startup.LogExtractorInit(config.FFmpegPath, config.ExtractTimeout)
	ffmpeg := extractor.New(extractor.Options{
		FFmpegPath: config.FFmpegPath,
		Timeout:    config.ExtractTimeout,
	})
	images := fetcher.New(fetcher.Options{
		Timeout:      config.FetchTimeout,
		Retries:      2,
		UserAgent:    startup.UserAgent(),
		MaxBodyBytes: config.FetchMaxBytes,
		AllowPrivate: config.FetchAllowPrivate,
	})

	var monitor *memory.Monitor
	if memResult.Configured {
		monitor = memory.NewMonitor(memory.DefaultConfig())
		monitor.Start()
	}

	startup.LogResolverInit(config.BackgroundWorkers, config.CoalesceExtractions)
	loop := resolver.NewLoop()
	pool := resolver.NewPool(config.BackgroundWorkers)
	opts := resolver.Options{
		Cache:      thumbnails,
		Fetcher:    images,
		Extractor:  ffmpeg,
		Fallback:   media.NewAssets(config.AssetDir),
		Completion: loop,
		Pool:       pool,
		Coalesce:   config.CoalesceExtractions,
	}
	if monitor != nil {
		opts.Gate = monitor
	}
	res, err := resolver.New(opts)
	if err != nil {
		startup.LogFatal("Failed to initialize resolver: %v", err)
	}

	collector := metrics.NewCollector(collectorInterval, thumbnails, images.Cache())
	collector.Start()

	// HTTP
	ffmpegAvailable := ffmpeg.Available() == nil
	handlerOpts := handlers.Options{
		Resolver:        res,
		MediaDir:        config.MediaDir,
		RequestTimeout:  config.ExtractTimeout + config.FetchTimeout,
		FFmpegAvailable: ffmpegAvailable,
	}
	if monitor != nil {
		handlerOpts.Memory = monitor
	}
	h := handlers.New(handlerOpts)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	srv := newServer(":"+config.Port, middleware.Logger(loggingConfig)(router))

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(":"+config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	steps := []closer{
		{"Stopping metrics collector", func() error { collector.Stop(); return nil }},
		{"Waiting for background thumbnail work", func() error { res.Wait(); return nil }},
		{"Closing completion loop", func() error { loop.Close(); return nil }},
		{"Closing thumbnail store", closeStore},
		{"Shutting down libvips", func() error { media.ShutdownVips(); return nil }},
	}
	if monitor != nil {
		steps = append([]closer{{"Stopping memory monitor", func() error { monitor.Stop(); return nil }}}, steps...)
	}
	go handleShutdown(srv, metricsSrv, steps)

	startup.LogServerStarted(startup.ServerConfig{
		Port:              config.Port,
		MetricsPort:       config.MetricsPort,
		MetricsEnabled:    config.MetricsEnabled,
		CacheBackend:      config.CacheBackend,
		CacheLocation:     location,
		BackgroundWorkers: config.BackgroundWorkers,
		Coalesce:          config.CoalesceExtractions,
		MediaDir:          config.MediaDir,
		FFmpegAvailable:   ffmpegAvailable,
		StartupDuration:   time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

// newStore opens the persistent tier for the configured backend. The memory
// backend has no store.
func newStore(ctx context.Context, config *startup.Config) (thumbcache.Store, string, func() error, error) {
	noop := func() error { return nil }

	switch config.CacheBackend {
	case startup.BackendMemory:
		return nil, "", noop, nil
	case startup.BackendDisk:
		store, err := thumbcache.NewDiskStore(config.ThumbnailDir)
		if err != nil {
			return nil, "", nil, err
		}
		return store, store.Dir(), noop, nil
	case startup.BackendSQLite:
		store, err := thumbcache.NewSQLiteStore(ctx, config.DatabasePath)
		if err != nil {
			return nil, "", nil, err
		}
		return store, config.DatabasePath, store.Close, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown cache backend %q", config.CacheBackend)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Probes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET", "HEAD").Name("thumbnail")

	return r
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func newMetricsServer(addr string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)
	return &http.Server{
		Addr:              addr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, steps []closer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(srv, metricsSrv, steps)
}

// shutdown stops accepting requests, then runs steps in order.
func shutdown(srv, metricsSrv *http.Server, steps []closer) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := startup.BeginShutdownStep("Stopping HTTP server")
	done(srv.Shutdown(ctx))

	if metricsSrv != nil {
		done := startup.BeginShutdownStep("Stopping metrics server")
		done(metricsSrv.Shutdown(ctx))
	}

	for _, step := range steps {
		done := startup.BeginShutdownStep(step.name)
		done(step.fn())
	}

	startup.LogShutdownComplete(time.Since(start))
}
