package media

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestReferencePrimary(t *testing.T) {
	inline := image.NewRGBA(image.Rect(0, 0, 4, 4))

	tests := []struct {
		name    string
		ref     Reference
		want    SourceKind
		wantKey string
	}{
		{"empty", Reference{}, SourceNone, ""},
		{"inline only", NewImage(inline), SourceInline, ""},
		{"image url only", NewImageURL("https://x/y.png"), SourceImageURL, "https://x/y.png"},
		{"video only", NewVideo("/tmp/clip.mp4"), SourceVideo, "/tmp/clip.mp4"},
		{
			"poster beats video",
			NewVideoWithPoster("https://www.youtube.com/watch?v=abc", "https://i.ytimg.com/abc.jpg", VideoKindYouTube),
			SourceImageURL,
			"https://i.ytimg.com/abc.jpg",
		},
		{"video with empty poster", NewVideoWithPoster("/tmp/a.mp4", "", VideoKindOther), SourceVideo, "/tmp/a.mp4"},
		{"inline beats everything", Reference{inlineImage: inline, imageURL: "u", videoSource: "v"}, SourceInline, ""},
		{"inline beats image url", NewImageURL("https://x/y.png").WithInlineImage(inline), SourceInline, ""},
		{"image url added to video", NewVideo("/v.mp4").WithImageURL("https://p.jpg"), SourceImageURL, "https://p.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Primary(); got != tt.want {
				t.Errorf("Primary() = %v, want %v", got, tt.want)
			}
			if got := tt.ref.CacheKey(); got != tt.wantKey {
				t.Errorf("CacheKey() = %q, want %q", got, tt.wantKey)
			}
		})
	}
}

func TestReferenceIsVideo(t *testing.T) {
	if NewImageURL("https://x/y.png").IsVideo() {
		t.Error("image reference reported IsVideo")
	}
	if !NewVideo("rtsp://cam/stream").IsVideo() {
		t.Error("video reference did not report IsVideo")
	}
	// IsVideo depends only on the video source, not on priority
	if !NewVideoWithPoster("/v.mp4", "https://p.jpg", VideoKindOther).IsVideo() {
		t.Error("video with poster did not report IsVideo")
	}
}

func TestReferenceIsLocalFile(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("mp4"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	ref := NewVideo(clip)
	if !ref.IsLocalFile(clip) {
		t.Errorf("IsLocalFile(%q) = false, want true", clip)
	}
	if ref.IsLocalFile("https://example.com/clip.mp4") {
		t.Error("IsLocalFile(URL) = true, want false")
	}
	if ref.IsLocalFile(filepath.Join(dir, "missing.mp4")) {
		t.Error("IsLocalFile(missing) = true, want false")
	}

	stubbed := ref.WithExists(func(string) bool { return false })
	if stubbed.IsLocalFile(clip) {
		t.Error("WithExists override was ignored")
	}
	if !ref.IsLocalFile(clip) {
		t.Error("WithExists mutated the original reference")
	}
}

func TestParseVideoKind(t *testing.T) {
	tests := []struct {
		in      string
		want    VideoKind
		wantErr bool
	}{
		{"", VideoKindOther, false},
		{"other", VideoKindOther, false},
		{"YouTube", VideoKindYouTube, false},
		{"vimeo", VideoKindVimeo, false},
		{" stream ", VideoKindStream, false},
		{"dailymotion", VideoKindOther, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVideoKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVideoKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVideoKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, k := range []VideoKind{VideoKindOther, VideoKindYouTube, VideoKindVimeo, VideoKindStream} {
		back, err := ParseVideoKind(k.String())
		if err != nil || back != k {
			t.Errorf("ParseVideoKind(%q) = %v, %v; want %v", k.String(), back, err, k)
		}
	}
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{"from id", NewYouTube("abc_123", "https://i.ytimg.com/vi/abc_123/mqdefault.jpg"), "abc_123"},
		{"watch url", NewVideo("https://www.youtube.com/watch?v=dQw4w9WgXcQ").WithKind(VideoKindYouTube), "dQw4w9WgXcQ"},
		{"not youtube", NewVideo("https://www.youtube.com/watch?v=dQw4w9WgXcQ"), ""},
		{"no equals", NewVideo("https://youtu.be/abc").WithKind(VideoKindYouTube), ""},
		{"trailing equals", NewVideo("https://www.youtube.com/watch?v=").WithKind(VideoKindYouTube), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.YouTubeVideoID(); got != tt.want {
				t.Errorf("YouTubeVideoID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReferenceString(t *testing.T) {
	tests := []struct {
		ref  Reference
		want string
	}{
		{Reference{}, "empty"},
		{NewImage(image.NewRGBA(image.Rect(0, 0, 3, 2))), "inline(3x2)"},
		{NewImageURL("https://x/y.png"), "image(https://x/y.png)"},
		{NewVideo("/a.mp4").WithKind(VideoKindStream), "video(/a.mp4, stream)"},
	}

	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestReferenceTypedNilImage(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
		want SourceKind
	}{
		{"nil interface", NewImage(nil), SourceNone},
		{"typed nil", NewImage((*image.RGBA)(nil)), SourceNone},
		{"typed nil over image URL", NewImageURL("https://x/a.png").WithInlineImage((*image.NRGBA)(nil)), SourceImageURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Primary(); got != tt.want {
				t.Errorf("Primary() = %s, want %s", got, tt.want)
			}
			if tt.ref.InlineImage() != nil {
				t.Error("InlineImage() should be a nil interface")
			}
			// Must not panic
			_ = tt.ref.String()
		})
	}
}
