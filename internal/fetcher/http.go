package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net"
	"net/http"
	"syscall"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/media"
	"media-browser/internal/metrics"
	"media-browser/internal/thumbcache"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single request, retries included.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodyBytes caps how much of a response is read.
	DefaultMaxBodyBytes = 20 << 20
	// DefaultMaxPixels caps the decoded size of an image.
	DefaultMaxPixels = 50_000_000

	defaultUserAgent = "media-browser/1.0"
)

var (
	// ErrStatus is returned when the server answers with a non-2xx status.
	ErrStatus = errors.New("unexpected HTTP status")

	// ErrTooLarge is returned for bodies over the byte limit and images over
	// the pixel limit.
	ErrTooLarge = errors.New("image too large")

	// ErrForbiddenAddress is returned when a URL resolves to a loopback,
	// private or link-local address and private addresses are not allowed.
	ErrForbiddenAddress = errors.New("destination address not allowed")
)

// Options configures HTTP. Zero fields take defaults.
type Options struct {
	Timeout time.Duration
	// Retries is the number of extra attempts after a transport error or a
	// 5xx response.
	Retries   int
	UserAgent string
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int
	// MaxPixels defaults to DefaultMaxPixels.
	MaxPixels int
	// AllowPrivate permits loopback, private and link-local destinations.
	AllowPrivate bool
	// Cache defaults to a fresh in-memory cache named "images".
	Cache *thumbcache.Cache
	// Client overrides the underlying resty client, mainly for tests.
	Client *resty.Client
}

// HTTP fetches images over HTTP(S).
type HTTP struct {
	client    *resty.Client
	cache     *thumbcache.Cache
	timeout   time.Duration
	maxPixels int
}

// New creates a fetcher.
func New(opts Options) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cache := opts.Cache
	if cache == nil {
		cache = thumbcache.New(thumbcache.Options{Name: "images"})
	}

	client := opts.Client
	if client == nil {
		client = resty.New()
		if !opts.AllowPrivate {
			client.SetTransport(publicOnlyTransport())
		}
	}
	client.
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "image/*").
		SetResponseBodyLimit(maxBody).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if errors.Is(err, resty.ErrResponseBodyTooLarge) || errors.Is(err, ErrForbiddenAddress) {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &HTTP{client: client, cache: cache, timeout: timeout, maxPixels: maxPixels}
}

// publicOnlyTransport refuses connections to non-public addresses. The
// check runs on the resolved address, so redirects and DNS answers are
// covered too.
func publicOnlyTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip == nil || !isPublicIP(ip) {
				return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
			}
			return nil
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return transport
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}

// Cache returns the fetcher's own image cache.
func (h *HTTP) Cache() *thumbcache.Cache {
	return h.cache
}

// Fetch returns the decoded image at url.
func (h *HTTP) Fetch(ctx context.Context, url string) (image.Image, error) {
	if img, ok := h.cache.Get(url); ok {
		metrics.FetchesTotal.WithLabelValues("cached").Inc()
		return img, nil
	}

	start := time.Now()
	img, status, err := h.download(ctx, url)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	metrics.FetchesTotal.WithLabelValues(status).Inc()
	if err != nil {
		return nil, err
	}

	h.cache.Set(url, img)
	return img, nil
}

func (h *HTTP) download(ctx context.Context, url string) (image.Image, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	logging.Debug("Fetching image: %s", url)

	resp, err := h.client.R().SetContext(reqCtx).Get(url)
	switch {
	case errors.Is(err, resty.ErrResponseBodyTooLarge):
		return nil, "too_large", fmt.Errorf("%w: response body of %s", ErrTooLarge, url)
	case errors.Is(err, ErrForbiddenAddress):
		return nil, "forbidden", fmt.Errorf("failed to fetch image %s: %w", url, err)
	case err != nil:
		return nil, "transport_error", fmt.Errorf("failed to fetch image %s: %w", url, err)
	}
	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, "http_error", fmt.Errorf("%w: %s for %s", ErrStatus, resp.Status(), url)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, "decode_error", fmt.Errorf("image %s: %w", url, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > h.maxPixels/cfg.Height {
		return nil, "too_large", fmt.Errorf("%w: %s is %dx%d", ErrTooLarge, url, cfg.Width, cfg.Height)
	}

	img, err := media.Decode(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, "decode_error", fmt.Errorf("image %s: %w", url, err)
	}

	logging.Debug("Fetched image %s (%d bytes)", url, len(resp.Body()))
	return img, "success", nil
}
