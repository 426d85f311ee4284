package media

import (
	"fmt"
	"image"
	"sync"

	"media-browser/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLevelFor maps the application log level to the least severe vips
// message that should still be forwarded.
func vipsLevelFor(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips starts libvips. Call once at startup; later calls are no-ops.
// Extraction works without it, falling back to pure Go resizing.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure logging before Startup so LOG_LEVEL applies to startup messages
	vips.LoggingSettings(forwardVipsLog, vipsLevelFor(logging.GetLevel()))

	// Frames are small; keep the operation cache tight
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      32 * 1024 * 1024,
		MaxCacheSize:     50,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// shrinkWithVips decodes an encoded frame with libvips, applies its
// orientation tag and shrinks it into maxW x maxH.
func shrinkWithVips(data []byte, maxW, maxH int) (image.Image, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load frame: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips autorotate failed: %w", err)
	}

	if ref.Width() > maxW || ref.Height() > maxH {
		logging.Debug("Vips shrinking frame %dx%d into %dx%d", ref.Width(), ref.Height(), maxW, maxH)
		if err := ref.Thumbnail(maxW, maxH, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	out, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	return DecodeBytes(out)
}

// FitEncoded decodes an encoded image and bounds it to maxW x maxH. libvips
// is used when available; any vips failure falls back to imaging.
func FitEncoded(data []byte, maxW, maxH int) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := shrinkWithVips(data, maxW, maxH)
		if err == nil {
			return img, nil
		}
		logging.Debug("Vips path failed, using imaging: %v", err)
	}

	img, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return Fit(img, maxW, maxH), nil
}
