package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"media-browser/internal/logging"
	"media-browser/internal/media"
	"media-browser/internal/mediatypes"
	"media-browser/internal/resolver"
)

const (
	thumbnailCacheControl = "public, max-age=86400"
	// A placeholder must not outlive the failure that produced it.
	fallbackCacheControl = "no-store"
)

// requestError carries the HTTP status for a rejected query.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// GetThumbnail resolves a thumbnail and writes it as JPEG.
//
// Query parameters:
//   - image: remote still image URL
//   - video: video URL, or a path relative to the media directory
//   - kind: video hosting kind (other, youtube, vimeo, stream)
//   - youtube: YouTube video id; image then acts as its poster
//
// When image and a video are both given the image wins.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceFromQuery(r.URL.Query())
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			logging.Debug("Thumbnail: rejected query %q: %v", r.URL.RawQuery, err)
			writeJSONError(w, reqErr.msg, reqErr.status)
			return
		}
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	logging.Debug("Thumbnail requested: %s", ref)

	res, err := h.resolver.ResolveResult(ctx, ref)
	switch {
	case err == nil:
	case errors.Is(err, resolver.ErrInvalidReference):
		writeJSONError(w, "image or video is required", http.StatusBadRequest)
		return
	case errors.Is(err, resolver.ErrImageUnavailable):
		logging.Warn("Thumbnail: %s unavailable: %v", ref, err)
		writeJSONError(w, "image could not be fetched", http.StatusBadGateway)
		return
	case errors.Is(err, context.DeadlineExceeded):
		logging.Warn("Thumbnail: timed out resolving %s", ref)
		writeJSONError(w, "thumbnail not ready in time", http.StatusGatewayTimeout)
		return
	case errors.Is(err, context.Canceled):
		logging.Debug("Thumbnail: client went away while resolving %s", ref)
		return
	default:
		logging.Error("Thumbnail: resolving %s failed: %v", ref, err)
		writeJSONError(w, "failed to resolve thumbnail", http.StatusInternalServerError)
		return
	}

	data, err := media.EncodeJPEG(res.Image)
	if err != nil {
		logging.Error("Thumbnail: encoding %s failed: %v", ref, err)
		writeJSONError(w, "failed to encode thumbnail", http.StatusInternalServerError)
		return
	}

	logging.Debug("Thumbnail: %s for %s (%d bytes)", res.Branch, ref, len(data))

	cacheControl := thumbnailCacheControl
	if res.Fallback() {
		cacheControl = fallbackCacheControl
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("X-Thumbnail-Source", res.Branch)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.Debug("Thumbnail: write failed: %v", err)
	}
}

func (h *Handlers) referenceFromQuery(q url.Values) (media.Reference, error) {
	imageURL := strings.TrimSpace(q.Get("image"))
	video := strings.TrimSpace(q.Get("video"))
	youtubeID := strings.TrimSpace(q.Get("youtube"))

	if imageURL != "" && !isRemoteURL(imageURL, "http", "https") {
		return media.Reference{}, badRequest("image must be an http or https URL")
	}

	if youtubeID != "" {
		if video != "" {
			return media.Reference{}, badRequest("video and youtube are mutually exclusive")
		}
		return media.NewYouTube(youtubeID, imageURL), nil
	}

	kind, err := media.ParseVideoKind(q.Get("kind"))
	if err != nil {
		return media.Reference{}, badRequest("%v", err)
	}

	if video != "" && !isRemoteURL(video, "http", "https", "rtmp", "rtsp") {
		local, err := h.localPath(video)
		if err != nil {
			return media.Reference{}, err
		}
		video = local
	}

	return media.NewVideo(video).WithKind(kind).WithImageURL(imageURL), nil
}

// localPath maps a request path onto the media directory.
func (h *Handlers) localPath(p string) (string, error) {
	if h.mediaDir == "" {
		return "", &requestError{status: http.StatusForbidden, msg: "local video paths are disabled"}
	}
	full := filepath.Join(h.mediaDir, filepath.FromSlash(p))
	if !isSubPath(h.mediaDir, full) {
		return "", badRequest("invalid path")
	}
	if !mediatypes.IsVideo(full) {
		return "", badRequest("unsupported video type %q", filepath.Ext(full))
	}
	return full, nil
}

func isRemoteURL(s string, schemes ...string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	for _, scheme := range schemes {
		if strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}
	return false
}

func isSubPath(parent, child string) bool {
	parent, _ = filepath.Abs(parent)
	child, _ = filepath.Abs(child)
	if child == parent {
		return false
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
