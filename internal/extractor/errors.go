package extractor

import (
	"errors"
	"fmt"
)

// AssetOpenError means the source could not be opened as a video: a missing
// or unreadable file, an unsupported URL, an unreachable host or an
// unrecognised container.
type AssetOpenError struct {
	Source string
	Local  bool
	Err    error
}

func (e *AssetOpenError) Error() string {
	kind := "remote"
	if e.Local {
		kind = "local"
	}
	return fmt.Sprintf("cannot open %s asset %s: %v", kind, e.Source, e.Err)
}

func (e *AssetOpenError) Unwrap() error { return e.Err }

// FrameDecodeError means the source opened but no frame could be decoded at
// the requested offset: corrupt data, an unsupported codec, a seek past the
// end or a timeout.
type FrameDecodeError struct {
	Source string
	Err    error
	// Stderr is the tail of ffmpeg's diagnostic output, if any.
	Stderr string
}

func (e *FrameDecodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("frame decode failed for %s: %v: %s", e.Source, e.Err, e.Stderr)
	}
	return fmt.Sprintf("frame decode failed for %s: %v", e.Source, e.Err)
}

func (e *FrameDecodeError) Unwrap() error { return e.Err }

// IsAssetOpen reports whether err is, or wraps, an *AssetOpenError.
func IsAssetOpen(err error) bool {
	var target *AssetOpenError
	return errors.As(err, &target)
}

// IsFrameDecode reports whether err is, or wraps, a *FrameDecodeError.
func IsFrameDecode(err error) bool {
	var target *FrameDecodeError
	return errors.As(err, &target)
}
