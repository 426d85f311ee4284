package mediatypes

import (
	"path"
	"path/filepath"
	"strings"
)

// FileType represents the type of a media file.
type FileType string

const (
	// FileTypeImage represents a still image the decoder can read.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file or stream playlist.
	FileTypeVideo FileType = "video"
	// FileTypePlaylist represents a Windows Media Player playlist.
	FileTypePlaylist FileType = "playlist"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// ImageExtensions lists the still image formats that can be decoded.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// VideoExtensions lists the containers FFmpeg is expected to open.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
	".m3u8": true,
}

// PlaylistExtensions maps file extensions to whether they are supported playlist formats.
var PlaylistExtensions = map[string]bool{
	".wpl": true,
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	if PlaylistExtensions[ext] {
		return FileTypePlaylist
	}
	return FileTypeOther
}

// Classify returns the FileType of a filesystem path or URL. Query strings
// and fragments of URLs are ignored.
func Classify(locator string) FileType {
	if i := strings.IndexAny(locator, "?#"); i >= 0 && strings.Contains(locator, "://") {
		locator = locator[:i]
	}
	ext := filepath.Ext(locator)
	if strings.Contains(locator, "://") {
		ext = path.Ext(locator)
	}
	return GetFileType(strings.ToLower(ext))
}

// IsVideo reports whether locator names a video by extension.
func IsVideo(locator string) bool {
	return Classify(locator) == FileTypeVideo
}
