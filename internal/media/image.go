package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"media-browser/internal/filesystem"
	"media-browser/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxThumbnailWidth and MaxThumbnailHeight bound every decoded thumbnail.
	// 750x1334 is a portrait phone screen at 2x; nothing larger is ever shown.
	MaxThumbnailWidth  = 750
	MaxThumbnailHeight = 1334

	// JPEGQuality is used when thumbnails are encoded for storage or HTTP.
	JPEGQuality = 85
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// Exceeds reports whether the dimensions are larger than maxW x maxH on
// either axis.
func (d ImageDimensions) Exceeds(maxW, maxH int) bool {
	return d.Width > maxW || d.Height > maxH
}

// Dimensions returns the size of img.
func Dimensions(img image.Image) ImageDimensions {
	b := img.Bounds()
	return ImageDimensions{Width: b.Dx(), Height: b.Dy()}
}

// Fit scales img down to fit within maxW x maxH, preserving the aspect
// ratio. Images already within bounds are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	if img == nil {
		return nil
	}
	dims := Dimensions(img)
	if !dims.Exceeds(maxW, maxH) {
		return img
	}
	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	logging.Debug("Fitted image from %dx%d to %dx%d", dims.Width, dims.Height,
		fitted.Bounds().Dx(), fitted.Bounds().Dy())
	return fitted
}

// Decode reads an image in any registered format and applies EXIF
// orientation so it is right side up.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to decode image: empty input")
	}
	return Decode(bytes.NewReader(data))
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (image.Image, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	return Decode(f)
}

// EncodeJPEG encodes img as a JPEG at JPEGQuality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
