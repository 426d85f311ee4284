package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"media-browser/internal/filesystem"
	"media-browser/internal/logging"
	"media-browser/internal/media"
	"media-browser/internal/metrics"
)

const (
	// DefaultOffset is where the representative frame is taken. Opening
	// frames are often black.
	DefaultOffset = 3 * time.Second
	// DefaultTimeout bounds one ffmpeg run.
	DefaultTimeout = 30 * time.Second

	stderrTail = 512
)

// streamSchemes are the URL schemes passed to ffmpeg as streaming inputs.
var streamSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"rtmp":  true,
	"rtsp":  true,
}

// ffmpeg diagnostics that mean the input never opened
var openFailureMarkers = []string{
	"Error opening input",
	"Invalid data found when processing input",
	"No such file or directory",
	"Connection refused",
	"Server returned",
	"Name or service not known",
	"Protocol not found",
}

// Options configures FFmpeg. Zero fields take defaults.
type Options struct {
	FFmpegPath string
	Timeout    time.Duration
	Offset     time.Duration
	MaxWidth   int
	MaxHeight  int
}

// FFmpeg extracts frames by running ffmpeg.
type FFmpeg struct {
	path      string
	timeout   time.Duration
	offset    time.Duration
	maxWidth  int
	maxHeight int
}

// New creates an extractor.
func New(opts Options) *FFmpeg {
	f := &FFmpeg{
		path:      opts.FFmpegPath,
		timeout:   opts.Timeout,
		offset:    opts.Offset,
		maxWidth:  opts.MaxWidth,
		maxHeight: opts.MaxHeight,
	}
	if f.path == "" {
		f.path = "ffmpeg"
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.offset <= 0 {
		f.offset = DefaultOffset
	}
	if f.maxWidth <= 0 {
		f.maxWidth = media.MaxThumbnailWidth
	}
	if f.maxHeight <= 0 {
		f.maxHeight = media.MaxThumbnailHeight
	}
	return f
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() error {
	path, err := exec.LookPath(f.path)
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	logging.Debug("Using ffmpeg: %s", path)
	return nil
}

// Extract decodes one frame from source. local selects whether source is
// opened as a file path or as a streaming URL.
func (f *FFmpeg) Extract(ctx context.Context, source string, local bool) (image.Image, error) {
	locality := "remote"
	if local {
		locality = "local"
	}
	start := time.Now()
	defer func() {
		metrics.ExtractionDuration.WithLabelValues(locality).Observe(time.Since(start).Seconds())
	}()

	img, err := f.extract(ctx, source, local)
	switch {
	case err == nil:
		metrics.ExtractionsTotal.WithLabelValues(locality, "success").Inc()
	case IsAssetOpen(err):
		metrics.ExtractionsTotal.WithLabelValues(locality, "open_error").Inc()
	default:
		metrics.ExtractionsTotal.WithLabelValues(locality, "decode_error").Inc()
	}
	return img, err
}

func (f *FFmpeg) extract(ctx context.Context, source string, local bool) (image.Image, error) {
	if err := checkOpenable(source, local); err != nil {
		return nil, err
	}

	logging.Debug("Extracting video frame: %s (local=%v, offset=%v)", source, local, f.offset)

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, f.path, f.args(source, local)...)
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := tail(stderr.String())
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &FrameDecodeError{Source: source, Err: fmt.Errorf("timed out after %v", f.timeout), Stderr: diag}
		}
		if isOpenFailure(diag) {
			return nil, &AssetOpenError{Source: source, Local: local, Err: fmt.Errorf("ffmpeg: %s", diag)}
		}
		return nil, &FrameDecodeError{Source: source, Err: err, Stderr: diag}
	}

	// A seek past the end exits cleanly with no frame
	if stdout.Len() == 0 {
		return nil, &FrameDecodeError{Source: source, Err: errors.New("ffmpeg produced no output"), Stderr: tail(stderr.String())}
	}

	logging.Debug("FFmpeg output size: %d bytes", stdout.Len())

	img, err := media.FitEncoded(stdout.Bytes(), f.maxWidth, f.maxHeight)
	if err != nil {
		return nil, &FrameDecodeError{Source: source, Err: err}
	}
	return img, nil
}

// args builds the ffmpeg command line. -ss before -i seeks on the input,
// which is fast for both files and streams. ffmpeg applies display-matrix
// rotation by default. Local paths get the file: protocol prefix so a colon
// in the name is not read as a protocol.
func (f *FFmpeg) args(source string, local bool) []string {
	input := source
	if local {
		input = "file:" + source
	}
	scale := fmt.Sprintf("scale=w='min(%d,iw)':h='min(%d,ih)':force_original_aspect_ratio=decrease",
		f.maxWidth, f.maxHeight)

	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(f.offset.Seconds(), 'f', -1, 64),
		"-i", input,
		"-frames:v", "1",
		"-vf", scale,
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func checkOpenable(source string, local bool) error {
	if local {
		file, err := filesystem.OpenWithRetry(source, filesystem.DefaultRetryConfig())
		if err != nil {
			return &AssetOpenError{Source: source, Local: true, Err: err}
		}
		if err := file.Close(); err != nil {
			logging.Warn("failed to close video file %s: %v", source, err)
		}
		return nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return &AssetOpenError{Source: source, Err: err}
	}
	if !u.IsAbs() || !streamSchemes[strings.ToLower(u.Scheme)] {
		return &AssetOpenError{Source: source, Err: fmt.Errorf("unsupported stream scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &AssetOpenError{Source: source, Err: errors.New("missing host")}
	}
	return nil
}

func isOpenFailure(stderr string) bool {
	for _, marker := range openFailureMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		return s[len(s)-stderrTail:]
	}
	return s
}
