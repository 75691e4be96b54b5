// Package cloudflare renders script-heavy pages through the Cloudflare browser rendering API
package cloudflare

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// defaultBaseURL is the root endpoint for the Cloudflare API
	defaultBaseURL = "https://api.cloudflare.com/client/v4"
	// defaultRequestTimeout must exceed the browser navigation timeout below
	defaultRequestTimeout = 30 * time.Second
	// defaultNavigationTimeout is the headless browser wait, in milliseconds, for the page to settle
	defaultNavigationTimeout = 20000
)

// Client renders pages with a headless browser hosted by Cloudflare
type Client struct {
	accountID         string
	apiToken          string
	httpClient        *http.Client
	baseURL           string
	navigationTimeout int
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the Cloudflare client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default Cloudflare API base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithNavigationTimeout sets how long the browser waits for the network to go idle
func WithNavigationTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.navigationTimeout = int(d.Milliseconds())
		}
	}
}

// New creates a new Cloudflare client with the provided account ID and API token
func New(accountID, apiToken string, opts ...Option) (*Client, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	if apiToken == "" {
		return nil, ErrMissingAPIToken
	}

	client := &Client{
		accountID:         accountID,
		apiToken:          apiToken,
		httpClient:        &http.Client{Timeout: defaultRequestTimeout},
		baseURL:           defaultBaseURL,
		navigationTimeout: defaultNavigationTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// apiURL constructs the full API URL for a given path under this account
func (c *Client) apiURL(path string) string {
	return fmt.Sprintf("%s/accounts/%s/%s", c.baseURL, c.accountID, path)
}
