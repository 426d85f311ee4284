package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"media-browser/internal/media"
)

// fakeFFmpeg writes a shell script that records its arguments and then runs
// body. It returns the script path and the argument log path.
func fakeFFmpeg(t *testing.T, body string) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a POSIX shell")
	}

	dir := t.TempDir()
	argsLog := filepath.Join(dir, "args.log")
	script := filepath.Join(dir, "ffmpeg")

	content := fmt.Sprintf("#!/bin/sh\necho \"$@\" > %q\n%s\n", argsLog, body)
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("Failed to create mock ffmpeg: %v", err)
	}
	return script, argsLog
}

func writeFrame(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode frame: %v", err)
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
	return path
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}
	return path
}

func readArgs(t *testing.T, argsLog string) string {
	t.Helper()
	data, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatalf("ffmpeg was not run: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func TestNewDefaults(t *testing.T) {
	f := New(Options{})
	if f.path != "ffmpeg" {
		t.Errorf("path = %q, want ffmpeg", f.path)
	}
	if f.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", f.timeout, DefaultTimeout)
	}
	if f.offset != 3*time.Second {
		t.Errorf("offset = %v, want 3s", f.offset)
	}
	if f.maxWidth != 750 || f.maxHeight != 1334 {
		t.Errorf("max = %dx%d, want 750x1334", f.maxWidth, f.maxHeight)
	}
}

func TestArgs(t *testing.T) {
	args := New(Options{}).args("/videos/clip.mp4", true)
	joined := strings.Join(args, " ")

	ss, in := -1, -1
	for i, a := range args {
		switch a {
		case "-ss":
			ss = i
		case "-i":
			in = i
		}
	}
	if ss < 0 || in < 0 || ss > in {
		t.Fatalf("-ss must come before -i: %v", args)
	}
	if args[ss+1] != "3" {
		t.Errorf("-ss %s, want 3", args[ss+1])
	}
	if args[in+1] != "file:/videos/clip.mp4" {
		t.Errorf("-i %s, want the source as a file: input", args[in+1])
	}
	for _, want := range []string{"min(750,iw)", "min(1334,ih)", "force_original_aspect_ratio=decrease", "-frames:v 1", "png"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "-" {
		t.Error("output must go to stdout")
	}
}

func TestArgsInput(t *testing.T) {
	tests := []struct {
		name   string
		source string
		local  bool
		want   string
	}{
		{"local path", "/videos/clip.mp4", true, "file:/videos/clip.mp4"},
		{"local path with a colon", "clip:1.mp4", true, "file:clip:1.mp4"},
		{"remote stream", "https://cdn.example.com/live.m3u8", false, "https://cdn.example.com/live.m3u8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := New(Options{}).args(tt.source, tt.local)
			for i, a := range args {
				if a == "-i" {
					if args[i+1] != tt.want {
						t.Errorf("-i %s, want %s", args[i+1], tt.want)
					}
					return
				}
			}
			t.Fatalf("no -i in %v", args)
		})
	}
}

func TestExtractLocal(t *testing.T) {
	frame := writeFrame(t, 320, 240)
	script, argsLog := fakeFFmpeg(t, fmt.Sprintf("cat %q", frame))
	video := touch(t, "clip.mp4")

	img, err := New(Options{FFmpegPath: script}).Extract(context.Background(), video, true)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if d := media.Dimensions(img); d.Width != 320 || d.Height != 240 {
		t.Errorf("frame = %dx%d, want 320x240", d.Width, d.Height)
	}
	if args := readArgs(t, argsLog); !strings.Contains(args, "-i file:"+video) {
		t.Errorf("ffmpeg args = %q, want local path input", args)
	}
}

func TestExtractCapsOversizedFrame(t *testing.T) {
	// the fake ignores the scale filter, so the Go-side fit must enforce the cap
	frame := writeFrame(t, 1920, 1080)
	script, _ := fakeFFmpeg(t, fmt.Sprintf("cat %q", frame))

	img, err := New(Options{FFmpegPath: script}).Extract(context.Background(), touch(t, "big.mov"), true)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if d := media.Dimensions(img); d.Exceeds(750, 1334) {
		t.Errorf("frame = %dx%d, exceeds 750x1334", d.Width, d.Height)
	}
}

func TestExtractRemote(t *testing.T) {
	frame := writeFrame(t, 64, 36)
	script, argsLog := fakeFFmpeg(t, fmt.Sprintf("cat %q", frame))

	for _, source := range []string{
		"https://cdn.example.com/live/index.m3u8",
		"http://example.com/clip.mp4",
		"rtsp://camera.local/stream1",
		"rtmp://live.example.com/app/key",
	} {
		t.Run(source, func(t *testing.T) {
			if _, err := New(Options{FFmpegPath: script}).Extract(context.Background(), source, false); err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if args := readArgs(t, argsLog); !strings.Contains(args, "-i "+source) {
				t.Errorf("ffmpeg args = %q, want URL input", args)
			}
		})
	}
}

func TestExtractOpenErrorsSkipFFmpeg(t *testing.T) {
	script, argsLog := fakeFFmpeg(t, "exit 0")

	tests := []struct {
		name   string
		source string
		local  bool
	}{
		{"missing local file", filepath.Join(t.TempDir(), "gone.mp4"), true},
		{"unsupported scheme", "ftp://example.com/clip.mp4", false},
		{"relative path as remote", "videos/clip.mp4", false},
		{"url without host", "https:///clip.mp4", false},
		{"garbage", "%zz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{FFmpegPath: script}).Extract(context.Background(), tt.source, tt.local)
			if !IsAssetOpen(err) {
				t.Fatalf("Extract() error = %v, want AssetOpenError", err)
			}
			if _, statErr := os.Stat(argsLog); statErr == nil {
				t.Error("ffmpeg ran for a source that cannot be opened")
			}
		})
	}
}

func TestExtractFFmpegFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOpen   bool
		wantDecode bool
	}{
		{"unreadable container", "echo 'Invalid data found when processing input' >&2; exit 1", true, false},
		{"unreachable host", "echo 'Connection refused' >&2; exit 1", true, false},
		{"codec failure", "echo 'Decoder (codec none) not found' >&2; exit 1", false, true},
		{"seek past end", "exit 0", false, true},
		{"garbage output", "echo 'not a png'", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, _ := fakeFFmpeg(t, tt.body)
			_, err := New(Options{FFmpegPath: script}).Extract(context.Background(), touch(t, "clip.mp4"), true)
			if err == nil {
				t.Fatal("Extract() succeeded, want error")
			}
			if IsAssetOpen(err) != tt.wantOpen || IsFrameDecode(err) != tt.wantDecode {
				t.Errorf("Extract() error = %v (open=%v decode=%v), want open=%v decode=%v",
					err, IsAssetOpen(err), IsFrameDecode(err), tt.wantOpen, tt.wantDecode)
			}
		})
	}
}

func TestExtractTimeout(t *testing.T) {
	script, _ := fakeFFmpeg(t, "exec sleep 5")

	start := time.Now()
	_, err := New(Options{FFmpegPath: script, Timeout: 100 * time.Millisecond}).
		Extract(context.Background(), touch(t, "slow.mp4"), true)

	if !IsFrameDecode(err) {
		t.Fatalf("Extract() error = %v, want FrameDecodeError", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestAvailable(t *testing.T) {
	if err := New(Options{FFmpegPath: filepath.Join(t.TempDir(), "no-ffmpeg")}).Available(); err == nil {
		t.Error("Available() = nil for a missing binary")
	}

	script, _ := fakeFFmpeg(t, "exit 0")
	if err := New(Options{FFmpegPath: script}).Available(); err != nil {
		t.Errorf("Available() error: %v", err)
	}
}

// makeTestVideo renders a short test pattern clip with the real ffmpeg.
func makeTestVideo(t *testing.T, seconds int, size string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	path := filepath.Join(t.TempDir(), "testsrc.mp4")
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=duration=%d:size=%s:rate=10", seconds, size),
		"-pix_fmt", "yuv420p", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not render test video: %v: %s", err, out)
	}
	return path
}

func TestExtractRealFFmpeg(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test in short mode")
	}
	video := makeTestVideo(t, 5, "1920x1080")

	img, err := New(Options{}).Extract(context.Background(), video, true)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	d := media.Dimensions(img)
	if d.Width != 750 {
		t.Errorf("width = %d, want 750", d.Width)
	}
	if d.Exceeds(750, 1334) {
		t.Errorf("frame = %dx%d, exceeds cap", d.Width, d.Height)
	}
}

func TestExtractRealFFmpegSeekPastEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test in short mode")
	}
	video := makeTestVideo(t, 1, "320x240")

	if _, err := New(Options{}).Extract(context.Background(), video, true); err == nil {
		t.Error("Extract() on a 1s clip at 3s should fail")
	}
}
