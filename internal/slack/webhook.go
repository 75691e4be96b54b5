package slack

import (
	"context"
	"fmt"
	"net/http"

	"github.com/theopenlane/httpsling"
)

// Message represents a Slack webhook message payload
type Message struct {
	// Text is the fallback text for the notification
	Text string `json:"text"`
	// Username overrides the webhook's default bot name
	Username string `json:"username,omitempty"`
	// IconEmoji overrides the webhook's default avatar
	IconEmoji string `json:"icon_emoji,omitempty"`
	// Blocks holds the rich layout blocks for the message
	Blocks []Block `json:"blocks,omitempty"`
}

// Block represents a Slack Block Kit block
type Block struct {
	Type   string       `json:"type"`
	Text   *TextObject  `json:"text,omitempty"`
	Fields []TextObject `json:"fields,omitempty"`
}

// TextObject represents a Slack text object
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send posts a message to the configured webhook, filling in the bot identity when unset
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.Username == "" {
		msg.Username = c.username
	}

	if msg.IconEmoji == "" {
		msg.IconEmoji = c.iconEmoji
	}

	requester := httpsling.MustNew(
		httpsling.URL(c.webhookURL),
		httpsling.Post(),
		httpsling.JSONBody(msg),
		httpsling.WithHTTPClient(c.httpClient),
	)

	resp, err := requester.SendWithContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return nil
}
