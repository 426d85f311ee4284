package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssetsBuiltInPlaceholder(t *testing.T) {
	a := NewAssets("")

	img, err := a.Named(VideoPlaceholder)
	if err != nil {
		t.Fatalf("Named(%q) error: %v", VideoPlaceholder, err)
	}
	if d := Dimensions(img); d.Width != 320 || d.Height != 180 {
		t.Errorf("placeholder = %dx%d, want 320x180", d.Width, d.Height)
	}

	again, err := a.Named(VideoPlaceholder)
	if err != nil {
		t.Fatalf("second Named() error: %v", err)
	}
	if again != img {
		t.Error("placeholder was not reused")
	}
}

func TestAssetsUnknown(t *testing.T) {
	_, err := NewAssets("").Named("No-Such-Asset")
	if !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("Named(unknown) error = %v, want ErrUnknownAsset", err)
	}
}

func TestAssetsOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, VideoPlaceholder+".png"), encodePNG(t, gradient(20, 10)), 0o644); err != nil {
		t.Fatalf("Failed to write override: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Audio.png"), encodePNG(t, gradient(8, 8)), 0o644); err != nil {
		t.Fatalf("Failed to write override: %v", err)
	}

	a := NewAssets(dir)

	img, err := a.Named(VideoPlaceholder)
	if err != nil {
		t.Fatalf("Named() error: %v", err)
	}
	if d := Dimensions(img); d.Width != 20 || d.Height != 10 {
		t.Errorf("override = %dx%d, want 20x10", d.Width, d.Height)
	}

	if _, err := a.Named("Audio"); err != nil {
		t.Errorf("Named(Audio) error: %v", err)
	}
}

func TestAssetsBrokenOverrideFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, VideoPlaceholder+".png"), []byte("broken"), 0o644); err != nil {
		t.Fatalf("Failed to write override: %v", err)
	}

	img, err := NewAssets(dir).Named(VideoPlaceholder)
	if err != nil {
		t.Fatalf("Named() error: %v", err)
	}
	if d := Dimensions(img); d.Width != 320 {
		t.Errorf("expected built-in placeholder, got %dx%d", d.Width, d.Height)
	}
}
