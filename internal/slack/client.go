// Package slack posts unsafe-policy alerts to a Slack incoming webhook
package slack

import (
	"net/http"
	"time"
)

const (
	// defaultRequestTimeout is the default timeout for Slack webhook requests
	defaultRequestTimeout = 10 * time.Second
	// defaultUsername is the bot name shown on alerts
	defaultUsername = "VortexWatch"
	// defaultIconEmoji is the bot avatar shown on alerts
	defaultIconEmoji = ":shield:"
)

// Client sends notifications to Slack via incoming webhooks
type Client struct {
	webhookURL string
	httpClient *http.Client
	username   string
	iconEmoji  string
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the Slack client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUsername overrides the bot name shown on messages
func WithUsername(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.username = name
		}
	}
}

// WithIconEmoji overrides the bot avatar emoji
func WithIconEmoji(emoji string) Option {
	return func(c *Client) {
		if emoji != "" {
			c.iconEmoji = emoji
		}
	}
}

// New creates a new Slack webhook client
func New(webhookURL string, opts ...Option) (*Client, error) {
	if webhookURL == "" {
		return nil, ErrMissingWebhookURL
	}

	client := &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		username:   defaultUsername,
		iconEmoji:  defaultIconEmoji,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}
