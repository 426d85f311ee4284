package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/workers"

	"github.com/joho/godotenv"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
)

// maxBackgroundWorkers caps BACKGROUND_WORKERS=auto.
const maxBackgroundWorkers = 16

// Config holds all application configuration
type Config struct {
	// MediaDir is the only directory local video paths may be served from
	// over HTTP. Empty disables local paths in requests.
	MediaDir            string
	CacheDir            string
	CacheBackend        string
	AssetDir            string
	FFmpegPath          string
	ExtractTimeout      time.Duration
	FetchTimeout        time.Duration
	FetchMaxBytes       int
	FetchAllowPrivate   bool
	BackgroundWorkers   int
	CoalesceExtractions bool
	Port                string
	MetricsPort         string
	MetricsEnabled      bool
	LogHealthChecks     bool

	// Derived paths
	ThumbnailDir string
	DatabasePath string

	// PersistentCache is false when the cache directory is not writable and
	// thumbnails are kept in memory only.
	PersistentCache bool
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	if level, ok := logging.ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		logging.SetLevel(level)
	}
	logging.Debug("Loaded environment from %s", path)
	return nil
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is read first, when present.
func LoadConfig() (*Config, error) {
	if err := LoadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		logging.Warn("%v", err)
	}

	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	mediaDir := getEnv("MEDIA_DIR", "")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	cacheBackend := strings.ToLower(getEnv("CACHE_BACKEND", BackendDisk))
	assetDir := getEnv("ASSET_DIR", "")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	extractTimeoutStr := getEnv("EXTRACT_TIMEOUT", "30s")
	fetchTimeoutStr := getEnv("FETCH_TIMEOUT", "15s")
	fetchMaxMB := getEnvInt("FETCH_MAX_MB", 20)
	fetchAllowPrivate := getEnvBool("FETCH_ALLOW_PRIVATE", false)
	workersStr := getEnv("BACKGROUND_WORKERS", "0")
	coalesce := getEnvBool("COALESCE_EXTRACTIONS", false)
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)

	logging.Info("  MEDIA_DIR:             %s", valueOrNone(mediaDir))
	logging.Info("  CACHE_DIR:             %s", cacheDir)
	logging.Info("  CACHE_BACKEND:         %s", cacheBackend)
	logging.Info("  ASSET_DIR:             %s", valueOrNone(assetDir))
	logging.Info("  FFMPEG_PATH:           %s", ffmpegPath)
	logging.Info("  EXTRACT_TIMEOUT:       %s", extractTimeoutStr)
	logging.Info("  FETCH_TIMEOUT:         %s", fetchTimeoutStr)
	logging.Info("  FETCH_MAX_MB:          %d", fetchMaxMB)
	logging.Info("  FETCH_ALLOW_PRIVATE:   %v", fetchAllowPrivate)
	logging.Info("  BACKGROUND_WORKERS:    %s", workersStr)
	logging.Info("  COALESCE_EXTRACTIONS:  %v", coalesce)
	logging.Info("  PORT:                  %s", port)
	logging.Info("  METRICS_PORT:          %s", metricsPort)
	logging.Info("  METRICS_ENABLED:       %v", metricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:     %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	switch cacheBackend {
	case BackendMemory, BackendDisk, BackendSQLite:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q (want memory, disk or sqlite)", cacheBackend)
	}

	extractTimeout := parseDuration("EXTRACT_TIMEOUT", extractTimeoutStr, 30*time.Second)
	fetchTimeout := parseDuration("FETCH_TIMEOUT", fetchTimeoutStr, 15*time.Second)

	backgroundWorkers, ok := workers.PoolLimit(workersStr, maxBackgroundWorkers)
	if !ok {
		logging.Warn("  Invalid BACKGROUND_WORKERS %q, using unbounded", workersStr)
	}

	config := &Config{
		CacheBackend:        cacheBackend,
		FFmpegPath:          ffmpegPath,
		ExtractTimeout:      extractTimeout,
		FetchTimeout:        fetchTimeout,
		FetchMaxBytes:       fetchMaxMB << 20,
		FetchAllowPrivate:   fetchAllowPrivate,
		BackgroundWorkers:   backgroundWorkers,
		CoalesceExtractions: coalesce,
		Port:                port,
		MetricsPort:         metricsPort,
		MetricsEnabled:      metricsEnabled,
		LogHealthChecks:     logHealthChecks,
	}

	// Resolve paths
	section("DIRECTORY SETUP")

	var err error
	config.CacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)

	if mediaDir != "" {
		config.MediaDir, err = filepath.Abs(mediaDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
		}
		if err := ensureDirectory(config.MediaDir, "media"); err != nil {
			logging.Warn("  Media directory issue: %v", err)
		}
		logging.Info("  Media directory (absolute): %s", config.MediaDir)
	}

	if assetDir != "" {
		config.AssetDir, err = filepath.Abs(assetDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve asset directory path: %w", err)
		}
		if err := ensureDirectory(config.AssetDir, "asset"); err != nil {
			logging.Warn("  Asset directory issue: %v, using built-in assets", err)
			config.AssetDir = ""
		}
	}

	config.ThumbnailDir = filepath.Join(config.CacheDir, "thumbnails")
	config.DatabasePath = filepath.Join(config.CacheDir, "thumbnails.db")

	switch config.CacheBackend {
	case BackendDisk:
		config.PersistentCache = setupOptionalDir(config.ThumbnailDir, "thumbnails")
	case BackendSQLite:
		config.PersistentCache = setupOptionalDir(config.CacheDir, "cache")
	}
	if config.CacheBackend != BackendMemory && !config.PersistentCache {
		logging.Warn("  Falling back to in-memory thumbnail cache")
		config.CacheBackend = BackendMemory
	}

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Persistent cache: %s", enabledString(config.PersistentCache))
	logging.Info("    Custom assets:    %s", enabledString(config.AssetDir != ""))
	logging.Info("    Local videos:     %s", enabledString(config.MediaDir != ""))
	logging.Info("    Metrics:          %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// LogExtractorInit logs frame extractor setup and checks FFmpeg
func LogExtractorInit(ffmpegPath string, timeout time.Duration) {
	section("EXTRACTOR INITIALIZATION")
	logging.Info("  Extraction timeout: %v", timeout)

	if err := checkFFmpeg(ffmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video thumbnails will use the placeholder image")
		return
	}
	logging.Info("  [OK] FFmpeg is available")
}

// LogCacheInit logs the thumbnail cache backend in use
func LogCacheInit(backend, location string, duration time.Duration) {
	section("THUMBNAIL CACHE INITIALIZATION")
	if location != "" {
		logging.Info("  Backend: %s (%s)", backend, location)
	} else {
		logging.Info("  Backend: %s", backend)
	}
	logging.Info("  [OK] Cache ready in %v", duration)
}

// LogResolverInit logs background pool and coalescing settings
func LogResolverInit(workers int, coalesce bool) {
	section("RESOLVER INITIALIZATION")
	if workers > 0 {
		logging.Info("  Background workers: %d", workers)
	} else {
		logging.Info("  Background workers: unbounded")
	}
	logging.Info("  Coalesce extractions: %v", coalesce)
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist")
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg(ffmpegPath string) error {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", ffmpegPath)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func parseDuration(key, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logging.Warn("  Invalid %s, using default: %v", key, fallback)
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvInt returns a positive integer from the environment, or the default
// when unset or invalid.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
