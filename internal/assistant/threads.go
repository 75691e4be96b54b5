package assistant

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/theopenlane/httpsling"
)

// Role identifies the author of a thread message
type Role string

const (
	// RoleUser marks messages sent by the caller
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the assistant
	RoleAssistant Role = "assistant"
)

// RunStatus is the lifecycle state of an assistant run
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

// Terminal reports whether the run will not change state again
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired, RunIncomplete:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the run completed normally
func (s RunStatus) Succeeded() bool {
	return s == RunCompleted
}

// Message is a thread message flattened to its text parts
type Message struct {
	// ID is the message id
	ID string `json:"id"`
	// Role is the message author
	Role Role `json:"role"`
	// Text is the concatenated text content
	Text string `json:"text"`
}

type object struct {
	ID     string    `json:"id"`
	Status RunStatus `json:"status,omitempty"`
}

type createMessageRequest struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

type messageList struct {
	Data []threadMessage `json:"data"`
}

type threadMessage struct {
	ID      string           `json:"id"`
	Role    Role             `json:"role"`
	Content []messageContent `json:"content"`
}

type messageContent struct {
	Type string `json:"type"`
	Text struct {
		Value string `json:"value"`
	} `json:"text"`
}

// CreateSession creates an empty thread and returns its id
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var thread object

	if err := c.call(ctx, http.MethodPost, c.apiURL("threads"), struct{}{}, &thread); err != nil {
		return "", err
	}

	if thread.ID == "" {
		return "", ErrMissingID
	}

	return thread.ID, nil
}

// PostMessage appends a text message to a thread
func (c *Client) PostMessage(ctx context.Context, sessionID string, role Role, text string) error {
	body := createMessageRequest{Role: role, Content: text}

	return c.call(ctx, http.MethodPost, c.apiURL("threads/%s/messages", sessionID), body, &object{})
}

// StartRun starts the configured assistant on a thread and returns the run id
func (c *Client) StartRun(ctx context.Context, sessionID string) (string, error) {
	var run object

	body := createRunRequest{AssistantID: c.assistantID}
	if err := c.call(ctx, http.MethodPost, c.apiURL("threads/%s/runs", sessionID), body, &run); err != nil {
		return "", err
	}

	if run.ID == "" {
		return "", ErrMissingID
	}

	return run.ID, nil
}

// RunStatus returns the current status of a run
func (c *Client) RunStatus(ctx context.Context, sessionID, runID string) (RunStatus, error) {
	var run object

	if err := c.call(ctx, http.MethodGet, c.apiURL("threads/%s/runs/%s", sessionID, runID), nil, &run); err != nil {
		return "", err
	}

	return run.Status, nil
}

// ListMessages returns the most recent thread messages in chronological order
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var list messageList

	reqURL := c.apiURL("threads/%s/messages?order=desc&limit=%d", sessionID, messagePageSize)
	if err := c.call(ctx, http.MethodGet, reqURL, nil, &list); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(list.Data))

	for _, m := range list.Data {
		parts := make([]string, 0, len(m.Content))

		for _, content := range m.Content {
			if content.Type == "text" {
				parts = append(parts, content.Text.Value)
			}
		}

		messages = append(messages, Message{ID: m.ID, Role: m.Role, Text: strings.Join(parts, "\n")})
	}

	slices.Reverse(messages)

	return messages, nil
}

// DeleteSession deletes a thread and its messages
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.call(ctx, http.MethodDelete, c.apiURL("threads/%s", sessionID), nil, &object{})
}

// call issues one API request, decoding a 200 response into out
func (c *Client) call(ctx context.Context, method, reqURL string, body, out any) error {
	opts := []httpsling.Option{
		httpsling.URL(reqURL),
		httpsling.Method(method),
		httpsling.BearerAuth(c.apiKey),
		httpsling.Header("OpenAI-Beta", betaHeader),
		httpsling.WithHTTPClient(c.httpClient),
	}

	if body != nil {
		opts = append(opts, httpsling.JSONBody(body))
	}

	requester := httpsling.MustNew(opts...)

	resp, err := requester.ReceiveWithContext(ctx, out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s: status %d", ErrUnexpectedStatus, method, reqURL, resp.StatusCode)
	}

	return nil
}
