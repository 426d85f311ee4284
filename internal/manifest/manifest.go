// Package manifest reads lists of media references from JSON documents.
//
// Three shapes are accepted:
//
//   - A plain array of entries:
//     [{"image_url": "...", "video": "...", "kind": "youtube", "image_file": "..."}]
//   - A YouTube Data API playlistItems response. Each item becomes a YouTube
//     reference with its medium thumbnail as the poster.
//   - An imgflip get_memes response. Each meme becomes an image URL reference.
//
// Windows Media Player playlists (.wpl) are read by [ParseWPL].
//
// Listings are never fetched here; callers supply documents already on hand.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"media-browser/internal/media"
	"media-browser/internal/mediatypes"
)

// ErrUnknownFormat is returned for JSON that matches none of the accepted
// shapes.
var ErrUnknownFormat = errors.New("unrecognised manifest format")

// Entry is one item of a plain manifest. At most one source is normally
// set; when several are, resolution picks image_file, then image_url, then
// video.
type Entry struct {
	Title     string `json:"title,omitempty"`
	ImageFile string `json:"image_file,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Video     string `json:"video,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// Reference builds the media reference for e. An entry with no source
// yields an empty Reference, which the resolver rejects.
func (e Entry) Reference() (media.Reference, error) {
	kind, err := media.ParseVideoKind(e.Kind)
	if err != nil {
		return media.Reference{}, err
	}

	ref := media.NewVideo(e.Video).WithKind(kind).WithImageURL(e.ImageURL)

	if e.ImageFile != "" {
		img, err := media.DecodeFile(e.ImageFile)
		if err != nil {
			return media.Reference{}, fmt.Errorf("image_file %s: %w", e.ImageFile, err)
		}
		ref = ref.WithInlineImage(img)
	}
	return ref, nil
}

// Label describes the entry for progress output.
func (e Entry) Label() string {
	switch {
	case e.Title != "":
		return e.Title
	case e.ImageFile != "":
		return e.ImageFile
	case e.ImageURL != "":
		return e.ImageURL
	case e.Video != "":
		return e.Video
	default:
		return "(empty)"
	}
}

type youTubePlaylist struct {
	Items []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
			Thumbnails map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type imgflipMemes struct {
	Success bool `json:"success"`
	Data    struct {
		Memes []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"memes"`
	} `json:"data"`
}

// Parse reads a manifest in any accepted shape.
func Parse(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrUnknownFormat
	}

	if trimmed[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		return entries, nil
	}

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &shape); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	switch {
	case shape["items"] != nil:
		return parseYouTube(trimmed)
	case shape["data"] != nil:
		return parseImgflip(trimmed)
	default:
		return nil, ErrUnknownFormat
	}
}

// Load parses the manifest file at path. Files with a .wpl extension are
// read as Windows Media Player playlists relative to their own directory.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if mediatypes.Classify(path) == mediatypes.FileTypePlaylist {
		return ParseWPL(f, filepath.Dir(path))
	}
	return Parse(f)
}

func parseYouTube(data []byte) ([]Entry, error) {
	var doc youTubePlaylist
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Items))
	for _, item := range doc.Items {
		id := item.Snippet.ResourceID.VideoID
		if id == "" {
			continue
		}
		entries = append(entries, Entry{
			Title:    item.Snippet.Title,
			Video:    media.YouTubeWatchPrefix + id,
			ImageURL: item.Snippet.Thumbnails["medium"].URL,
			Kind:     media.VideoKindYouTube.String(),
		})
	}
	return entries, nil
}

func parseImgflip(data []byte) ([]Entry, error) {
	var doc imgflipMemes
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse memes: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Data.Memes))
	for _, meme := range doc.Data.Memes {
		if meme.URL == "" {
			continue
		}
		entries = append(entries, Entry{Title: meme.Name, ImageURL: meme.URL})
	}
	return entries, nil
}
