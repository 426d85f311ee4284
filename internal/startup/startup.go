package startup

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is the payload of the version endpoint.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// UserAgent identifies this build to remote image hosts.
func UserAgent() string {
	return "media-browser/" + Version
}

const rule = "------------------------------------------------------------"

// section starts a titled block of the startup log.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title)
	logging.Info(rule)
}

// Route is one registered endpoint with all of its methods.
type Route struct {
	Name    string
	Path    string
	Methods []string
}

// ListRoutes returns the router's endpoints in registration order. A route
// without a method matcher accepts any method and reports "ANY".
func ListRoutes(router *mux.Router) ([]Route, error) {
	var routes []Route

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"ANY"}
		}
		routes = append(routes, Route{Name: route.GetName(), Path: path, Methods: methods})
		return nil
	})
	return routes, err
}

// thumbnailParams documents the query string of the route named
// "thumbnail".
var thumbnailParams = []string{
	"image=<http(s) url>            still image, wins over a video",
	"video=<url | media path>       with kind=<other|youtube|vimeo|stream>",
	"youtube=<id>                   image= becomes the poster",
}

// LogHTTPRoutes lists the endpoints, with the thumbnail query parameters
// under the thumbnail route.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP ROUTES")

	routes, err := ListRoutes(router)
	if err != nil {
		logging.Warn("  Could not list routes: %v", err)
	}
	for _, r := range routes {
		logging.Info("  %-9s %s", strings.Join(r.Methods, ","), r.Path)
		if r.Name == "thumbnail" {
			for _, p := range thumbnailParams {
				logging.Info("              %s", p)
			}
		}
	}

	logging.Info("")
	if logHealthChecks {
		logging.Info("  Access log: all requests")
	} else {
		logging.Info("  Access log: health probes omitted (LOG_HEALTH_CHECKS=true to include)")
	}
}

// ServerConfig summarises the running service for the ready message.
type ServerConfig struct {
	Port              string
	MetricsPort       string
	MetricsEnabled    bool
	CacheBackend      string
	CacheLocation     string
	BackgroundWorkers int
	Coalesce          bool
	MediaDir          string
	FFmpegAvailable   bool
	StartupDuration   time.Duration
}

// LogServerStarted reports how the pipeline is set up once it can serve.
func LogServerStarted(config ServerConfig) {
	section("READY")
	logging.Info("  Started in %v", config.StartupDuration.Round(time.Millisecond))
	logging.Info("")
	logging.Info("  Thumbnails:   http://localhost:%s/api/thumbnail", config.Port)
	logging.Info("  Cache:        %s", describeCache(config.CacheBackend, config.CacheLocation))
	logging.Info("  Background:   %s, coalescing %s",
		describeWorkers(config.BackgroundWorkers), strings.ToLower(enabledString(config.Coalesce)))
	if config.MediaDir != "" {
		logging.Info("  Local videos: %s", config.MediaDir)
	} else {
		logging.Info("  Local videos: refused (MEDIA_DIR not set)")
	}
	if config.MetricsEnabled {
		logging.Info("  Metrics:      http://localhost:%s/metrics", config.MetricsPort)
	}
	if !config.FFmpegAvailable {
		logging.Warn("  ffmpeg unavailable: videos will resolve to the placeholder")
	}
	logging.Info(rule)
}

func describeCache(backend, location string) string {
	if location == "" {
		return backend + " (in memory only)"
	}
	return fmt.Sprintf("%s at %s", backend, location)
}

func describeWorkers(n int) string {
	if n <= 0 {
		return "unbounded workers"
	}
	if n == 1 {
		return "1 worker"
	}
	return fmt.Sprintf("%d workers", n)
}

// LogShutdownInitiated logs the signal that started shutdown.
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN (%s)", signal))
}

// BeginShutdownStep logs the start of a step and returns the function that
// records how it ended.
func BeginShutdownStep(name string) func(err error) {
	logging.Debug("  %s...", name)
	start := time.Now()
	return func(err error) {
		took := time.Since(start).Round(time.Millisecond)
		if err != nil {
			logging.Warn("  [FAILED] %s after %v: %v", name, took, err)
			return
		}
		logging.Info("  [OK] %s (%v)", name, took)
	}
}

// LogShutdownComplete logs the end of shutdown.
func LogShutdownComplete(elapsed time.Duration) {
	logging.Info("  Shutdown complete in %v", elapsed.Round(time.Millisecond))
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
` + rule + `
    __  ___         ___         ____
   /  |/  /__  ____/ (_)___ _  / __ )_________ _      __________  _____
  / /|_/ / _ \/ __  / / __ '/ / __  / ___/ __ \ | /| / / ___/ _ \/ ___/
 / /  / /  __/ /_/ / / /_/ / / /_/ / /  / /_/ / |/ |/ (__  )  __/ /
/_/  /_/\___/\__,_/_/\__,_/ /_____/_/   \____/|__/|__/____/\___/_/

  thumbnail resolve-and-cache service
` + rule
	fmt.Println(banner)
	logging.Info("  %s (commit %s, built %s)", Version, Commit, BuildTime)
}

// logSystemInfo reports the limits that size the background pool and the
// memory backpressure.
func logSystemInfo() {
	section("RUNTIME")
	logging.Info("  %s on %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()
	if procs < cpus {
		logging.Info("  CPUs: %d of %d usable (container limit)", procs, cpus)
	} else {
		logging.Info("  CPUs: %d", cpus)
	}
	logging.Info("  Suggested bounded pool: %d workers", workers.ForMixed(maxBackgroundWorkers))

	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		logging.Info("  GOMEMLIMIT: %d MiB", limit>>20)
	} else {
		logging.Info("  GOMEMLIMIT: not set")
	}

	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname: %s", hostname)
	}
}
