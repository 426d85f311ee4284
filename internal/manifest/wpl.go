package manifest

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"media-browser/internal/mediatypes"
)

// wplDocument is the subset of the Windows Media Player playlist format
// that lists media sources.
type wplDocument struct {
	XMLName xml.Name `xml:"smil"`
	Media   []struct {
		Src string `xml:"src,attr"`
	} `xml:"body>seq>media"`
}

// ParseWPL reads a Windows Media Player playlist. Relative sources are
// resolved against baseDir. Image files become image_file entries; every
// other source is treated as a video.
func ParseWPL(r io.Reader, baseDir string) ([]Entry, error) {
	var doc wplDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Media))
	for _, m := range doc.Media {
		src := strings.TrimSpace(m.Src)
		if src == "" {
			continue
		}

		// Playlists written on Windows use backslashes
		src = filepath.FromSlash(strings.ReplaceAll(src, "\\", "/"))
		if !filepath.IsAbs(src) {
			src = filepath.Join(baseDir, src)
		}

		entry := Entry{Title: filepath.Base(src)}
		if mediatypes.Classify(src) == mediatypes.FileTypeImage {
			entry.ImageFile = src
		} else {
			entry.Video = src
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
