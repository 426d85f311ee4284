package media

import (
	"fmt"
	"image"
	"reflect"
	"strings"

	"media-browser/internal/filesystem"
)

// VideoKind identifies where a video is hosted. It only carries meaning for
// references that have a video source.
type VideoKind int

const (
	// VideoKindOther is a plain video file or URL. It is the zero value.
	VideoKindOther VideoKind = iota
	// VideoKindYouTube is a YouTube watch URL.
	VideoKindYouTube
	// VideoKindVimeo is a Vimeo page URL.
	VideoKindVimeo
	// VideoKindStream is a live or adaptive stream such as an HLS playlist.
	VideoKindStream
)

// String returns the manifest name of the kind.
func (k VideoKind) String() string {
	switch k {
	case VideoKindYouTube:
		return "youtube"
	case VideoKindVimeo:
		return "vimeo"
	case VideoKindStream:
		return "stream"
	case VideoKindOther:
		return "other"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseVideoKind maps a manifest name to a VideoKind. The empty string is
// VideoKindOther.
func ParseVideoKind(s string) (VideoKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "other":
		return VideoKindOther, nil
	case "youtube":
		return VideoKindYouTube, nil
	case "vimeo":
		return VideoKindVimeo, nil
	case "stream":
		return VideoKindStream, nil
	default:
		return VideoKindOther, fmt.Errorf("unknown video kind %q", s)
	}
}

// SourceKind is the resolution path a Reference takes.
type SourceKind int

const (
	// SourceNone means no source is set; the reference is malformed.
	SourceNone SourceKind = iota
	// SourceInline is a pre-decoded image.
	SourceInline
	// SourceImageURL is a remote still image.
	SourceImageURL
	// SourceVideo is a local or remote video.
	SourceVideo
)

func (s SourceKind) String() string {
	switch s {
	case SourceInline:
		return "inline"
	case SourceImageURL:
		return "image_url"
	case SourceVideo:
		return "video"
	default:
		return "none"
	}
}

// YouTubeWatchPrefix is prepended to a YouTube video id to form its watch URL.
const YouTubeWatchPrefix = "https://www.youtube.com/watch?v="

// ExistsFunc reports whether a filesystem entry exists at path.
type ExistsFunc func(path string) bool

// Reference describes one displayable media item. It is immutable once
// built; use the constructors.
//
// When more than one source is set the priority is fixed: inline image,
// then image URL, then video source.
type Reference struct {
	inlineImage image.Image
	imageURL    string
	videoSource string
	videoKind   VideoKind
	exists      ExistsFunc
}

// NewImage references an image that is already decoded. A nil image, typed
// or not, sets no source.
func NewImage(img image.Image) Reference {
	return Reference{inlineImage: nonNil(img)}
}

// NewImageURL references a remote still image.
func NewImageURL(url string) Reference {
	return Reference{imageURL: url}
}

// NewVideo references a video by filesystem path or URL.
func NewVideo(source string) Reference {
	return Reference{videoSource: source}
}

// NewVideoWithPoster references a video whose poster image URL is known, as
// returned by playlist listings. The poster wins during resolution; an empty
// poster leaves the video as the primary source.
func NewVideoWithPoster(source, posterURL string, kind VideoKind) Reference {
	return Reference{videoSource: source, imageURL: posterURL, videoKind: kind}
}

// NewYouTube references a YouTube video by id, with its listing thumbnail
// as the poster.
func NewYouTube(videoID, posterURL string) Reference {
	return NewVideoWithPoster(YouTubeWatchPrefix+videoID, posterURL, VideoKindYouTube)
}

// WithInlineImage returns a copy with a pre-decoded image attached. The
// inline image takes priority over every other source.
func (r Reference) WithInlineImage(img image.Image) Reference {
	r.inlineImage = nonNil(img)
	return r
}

// nonNil turns a typed nil such as (*image.RGBA)(nil) into a nil interface.
func nonNil(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	switch v := reflect.ValueOf(img); v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return img
}

// WithImageURL returns a copy with a remote still image attached. It takes
// priority over the video source.
func (r Reference) WithImageURL(url string) Reference {
	r.imageURL = url
	return r
}

// WithKind returns a copy with the video kind set.
func (r Reference) WithKind(kind VideoKind) Reference {
	r.videoKind = kind
	return r
}

// WithExists returns a copy that classifies locality with fn instead of the
// real filesystem.
func (r Reference) WithExists(fn ExistsFunc) Reference {
	r.exists = fn
	return r
}

// InlineImage returns the pre-decoded image, or nil.
func (r Reference) InlineImage() image.Image { return r.inlineImage }

// ImageURL returns the remote image locator, or "".
func (r Reference) ImageURL() string { return r.imageURL }

// VideoSource returns the video path or URL, or "".
func (r Reference) VideoSource() string { return r.videoSource }

// VideoKind returns the hosting kind of the video.
func (r Reference) VideoKind() VideoKind { return r.videoKind }

// IsVideo reports whether a video source is set.
func (r Reference) IsVideo() bool { return r.videoSource != "" }

// IsLocalFile reports whether path names an existing filesystem entry.
func (r Reference) IsLocalFile(path string) bool {
	if r.exists != nil {
		return r.exists(path)
	}
	return filesystem.Exists(path)
}

// Primary returns the source that resolution will use.
func (r Reference) Primary() SourceKind {
	switch {
	case r.inlineImage != nil:
		return SourceInline
	case r.imageURL != "":
		return SourceImageURL
	case r.videoSource != "":
		return SourceVideo
	default:
		return SourceNone
	}
}

// CacheKey returns the raw locator of the primary source. Inline images
// have no key.
func (r Reference) CacheKey() string {
	switch r.Primary() {
	case SourceImageURL:
		return r.imageURL
	case SourceVideo:
		return r.videoSource
	default:
		return ""
	}
}

// YouTubeVideoID returns the id of a YouTube watch URL: the text after the
// last "=". It returns "" for other kinds or when there is no "=".
func (r Reference) YouTubeVideoID() string {
	if r.videoKind != VideoKindYouTube {
		return ""
	}
	i := strings.LastIndex(r.videoSource, "=")
	if i < 0 || i == len(r.videoSource)-1 {
		return ""
	}
	return r.videoSource[i+1:]
}

// String describes the reference for logs.
func (r Reference) String() string {
	switch r.Primary() {
	case SourceInline:
		b := r.inlineImage.Bounds()
		return fmt.Sprintf("inline(%dx%d)", b.Dx(), b.Dy())
	case SourceImageURL:
		return "image(" + r.imageURL + ")"
	case SourceVideo:
		return fmt.Sprintf("video(%s, %s)", r.videoSource, r.videoKind)
	default:
		return "empty"
	}
}
