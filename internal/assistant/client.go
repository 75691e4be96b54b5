// Package assistant is a client for the OpenAI Assistants threads API
package assistant

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// defaultBaseURL is the root endpoint for the OpenAI API
	defaultBaseURL = "https://api.openai.com/v1"
	// defaultRequestTimeout bounds a single API call; run completion is polled separately
	defaultRequestTimeout = 20 * time.Second
	// betaHeader opts in to the v2 Assistants API
	betaHeader = "assistants=v2"
	// messagePageSize is the number of messages read back from a thread
	messagePageSize = 20
)

// Client talks to a single configured assistant
type Client struct {
	apiKey      string
	assistantID string
	httpClient  *http.Client
	baseURL     string
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the assistant client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default OpenAI API base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// New creates a new assistant client for the given API key and assistant id
func New(apiKey, assistantID string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if assistantID == "" {
		return nil, ErrMissingAssistantID
	}

	client := &Client{
		apiKey:      apiKey,
		assistantID: assistantID,
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		baseURL:     defaultBaseURL,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// apiURL constructs the full API URL for a path
func (c *Client) apiURL(format string, args ...any) string {
	return c.baseURL + "/" + fmt.Sprintf(format, args...)
}
