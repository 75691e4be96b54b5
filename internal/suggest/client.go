// Package suggest is a client for the Cohere chat API used to propose alternative products
package suggest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/theopenlane/httpsling"
)

const (
	// defaultBaseURL is the root endpoint for the Cohere API
	defaultBaseURL = "https://api.cohere.com"
	// defaultModel is the chat model used for completions
	defaultModel = "command-r-plus"
	// defaultRequestTimeout is the default timeout for Cohere API requests
	defaultRequestTimeout = 15 * time.Second
	// chatPath is the API path for the v2 chat endpoint
	chatPath = "v2/chat"
)

// Client requests short completions from Cohere
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the Cohere client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default Cohere API base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithModel overrides the chat model
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// New creates a new Cohere client with the provided API key
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		baseURL:    defaultBaseURL,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// chatRequest is the request body for the chat endpoint
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat response that carries generated text
type chatResponse struct {
	ID      string `json:"id"`
	Message struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Complete sends prompt as a single user message and returns the generated text
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	requester := httpsling.MustNew(
		httpsling.URL(c.baseURL+"/"+chatPath),
		httpsling.Post(),
		httpsling.BearerAuth(c.apiKey),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(c.httpClient),
	)

	var out chatResponse

	resp, err := requester.ReceiveWithContext(ctx, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var parts []string

	for _, content := range out.Message.Content {
		if content.Type == "text" {
			parts = append(parts, content.Text)
		}
	}

	if len(parts) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.Join(parts, ""), nil
}
