// Package fetch retrieves raw web documents for policy discovery and extraction
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/projectdiscovery/httpx/common/httpx"
)

const (
	// defaultTimeout is the per-request timeout for document fetches
	defaultTimeout = 10 * time.Second
	// defaultMaxRedirects is the maximum redirect hops followed per fetch
	defaultMaxRedirects = 5
	// defaultMaxBodySize is the maximum response body bytes to read (2MB)
	defaultMaxBodySize = 2 * 1024 * 1024
	// defaultUserAgent identifies the service to fetched sites
	defaultUserAgent = "Mozilla/5.0 (compatible; VortexWatch/1.0)"
)

// Document is a fetched web document
type Document struct {
	// URL is the final URL after redirects
	URL string
	// StatusCode is the HTTP status code of the final response
	StatusCode int
	// ContentType is the response Content-Type header, possibly empty
	ContentType string
	// Body is the raw response body
	Body []byte
}

// IsHTML reports whether the document looks like markup, falling back to
// content sniffing when the server omitted a Content-Type
func (d *Document) IsHTML() bool {
	contentType := d.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(d.Body)
	}

	contentType = strings.ToLower(contentType)

	return strings.Contains(contentType, "html") || strings.Contains(contentType, "xml")
}

// Fetcher retrieves a document by URL
type Fetcher interface {
	// Fetch returns the document at rawURL or an error for network failures and non-2xx responses
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// Options configures the httpx-backed fetcher
type Options struct {
	timeout      time.Duration
	maxRedirects int
	maxBodySize  int64
	userAgent    string
}

// Option is a functional option for configuring the fetcher
type Option func(*Options)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRedirects sets the maximum number of redirects followed
func WithMaxRedirects(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxRedirects = n
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read
func WithMaxBodySize(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithUserAgent overrides the default user agent
func WithUserAgent(ua string) Option {
	return func(o *Options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// HTTPXFetcher implements Fetcher using projectdiscovery/httpx
type HTTPXFetcher struct {
	client *httpx.HTTPX
}

// NewHTTPXFetcher creates a fetcher with the given options
func NewHTTPXFetcher(opts ...Option) (*HTTPXFetcher, error) {
	o := &Options{
		timeout:      defaultTimeout,
		maxRedirects: defaultMaxRedirects,
		maxBodySize:  defaultMaxBodySize,
		userAgent:    defaultUserAgent,
	}

	for _, opt := range opts {
		opt(o)
	}

	client, err := httpx.New(&httpx.Options{
		Timeout:                   o.timeout,
		FollowRedirects:           true,
		MaxRedirects:              o.maxRedirects,
		MaxResponseBodySizeToRead: o.maxBodySize,
		DefaultUserAgent:          o.userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientInit, err)
	}

	return &HTTPXFetcher{client: client}, nil
}

// Fetch retrieves rawURL, following redirects
func (f *HTTPXFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	req, err := f.client.NewRequestWithContext(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	resp, err := f.client.Do(req, httpx.UnsafeOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	finalURL := rawURL
	if resp.HasChain() {
		if last := resp.GetChainLastURL(); last != "" {
			finalURL = last
		}
	}

	return &Document{
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.GetHeader("Content-Type"),
		Body:        resp.Data,
	}, nil
}

// Fallback tries each fetcher in order and returns the first document fetched
type Fallback []Fetcher

// Fetch implements Fetcher
func (f Fallback) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if len(f) == 0 {
		return nil, ErrNoFetcher
	}

	var lastErr error

	for _, fetcher := range f {
		doc, err := fetcher.Fetch(ctx, rawURL)
		if err == nil {
			return doc, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
	}

	return nil, lastErr
}
