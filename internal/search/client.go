// Package search queries the DuckDuckGo HTML endpoint for web results
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/theopenlane/httpsling"
)

const (
	// defaultBaseURL is the DuckDuckGo HTML-only search endpoint
	defaultBaseURL = "https://html.duckduckgo.com/html/"
	// defaultRequestTimeout is the default timeout for search requests
	defaultRequestTimeout = 10 * time.Second
	// defaultUserAgent is sent with search requests; the endpoint rejects empty agents
	defaultUserAgent = "Mozilla/5.0 (compatible; VortexWatch/1.0)"

	resultSelector = "div.result:not(.result--ad) a.result__a"
	redirectParam  = "uddg"
)

// Result is a single organic search hit
type Result struct {
	// Title is the result link text
	Title string `json:"title"`
	// Href is the destination URL
	Href string `json:"href"`
}

// Client performs web searches
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the search client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default search endpoint
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithUserAgent overrides the user agent sent with searches
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a new search client
func New(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Search returns up to maxResults organic results for query, in rank order
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	reqURL := c.baseURL + "?" + url.Values{"q": {query}}.Encode()

	requester := httpsling.MustNew(
		httpsling.URL(reqURL),
		httpsling.Method(http.MethodGet),
		httpsling.Header("User-Agent", c.userAgent),
		httpsling.WithHTTPClient(c.httpClient),
	)

	resp, err := requester.SendWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	return ParseResults(page, maxResults), nil
}

// ParseResults extracts organic results from a DuckDuckGo HTML results page
func ParseResults(page *goquery.Document, maxResults int) []Result {
	var results []Result

	page.Find(resultSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}

		href := resolveHref(s.AttrOr("href", ""))
		if href == "" {
			return true
		}

		results = append(results, Result{
			Title: strings.Join(strings.Fields(s.Text()), " "),
			Href:  href,
		})

		return true
	})

	return results
}

// resolveHref unwraps DuckDuckGo redirect links to their destination
func resolveHref(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if target := u.Query().Get(redirectParam); target != "" {
		return target
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	return u.String()
}
