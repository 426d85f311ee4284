package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"media-browser/internal/logging"

	"github.com/disintegration/imaging"
)

// VideoPlaceholder is the asset delivered when a video frame cannot be
// extracted.
const VideoPlaceholder = "Video-Streaming"

// ErrUnknownAsset is returned for names with neither a built-in image nor an
// override file.
var ErrUnknownAsset = errors.New("unknown asset")

var assetExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Assets resolves named placeholder images. Files in dir named
// <name>.png/.jpg/.jpeg/.webp override the built-in images. Loaded images
// are kept for the lifetime of the Assets value.
type Assets struct {
	dir    string
	mu     sync.Mutex
	loaded map[string]image.Image
}

// NewAssets creates an asset set. dir may be empty.
func NewAssets(dir string) *Assets {
	return &Assets{
		dir:    dir,
		loaded: make(map[string]image.Image),
	}
}

// Named returns the image registered under name.
func (a *Assets) Named(name string) (image.Image, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if img, ok := a.loaded[name]; ok {
		return img, nil
	}

	img, err := a.load(name)
	if err != nil {
		return nil, err
	}
	a.loaded[name] = img
	return img, nil
}

func (a *Assets) load(name string) (image.Image, error) {
	if a.dir != "" {
		for _, ext := range assetExtensions {
			path := filepath.Join(a.dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			img, err := DecodeFile(path)
			if err != nil {
				logging.Warn("Asset override %s unreadable, using built-in: %v", path, err)
				break
			}
			logging.Debug("Loaded asset %s from %s", name, path)
			return img, nil
		}
	}

	if name == VideoPlaceholder {
		return videoPlaceholder(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, name)
}

// videoPlaceholder draws a dark 16:9 frame with a light play triangle.
func videoPlaceholder() image.Image {
	const w, h = 320, 180
	img := imaging.New(w, h, color.NRGBA{R: 0x22, G: 0x22, B: 0x26, A: 0xff})

	glyph := color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	cx, cy := w/2, h/2
	size := h / 4
	left, right := cx-size*2/3, cx+size*2/3

	for x := left; x <= right; x++ {
		// Half-height of the triangle shrinks linearly to zero at the tip
		half := size * (right - x) / (right - left)
		for y := cy - half; y <= cy+half; y++ {
			img.SetNRGBA(x, y, glyph)
		}
	}
	return img
}
