// Package classifier judges privacy policy text through a multi-turn assistant conversation
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/Cipherweave/VortexWatch/internal/assistant"
	"github.com/Cipherweave/VortexWatch/internal/policydoc"
)

const (
	// SafeReply is the exact assistant reply that marks a policy as safe
	SafeReply = "Policy Safe!"
	// ElaboratePrompt is the follow-up turn sent after an unsafe verdict
	ElaboratePrompt = "Elaborate with quote"

	// DefaultMaxTextLength is the number of characters submitted for classification
	DefaultMaxTextLength = 8000
	// MinTextLength is the shortest text worth classifying
	MinTextLength = 10

	defaultPollInterval    = 500 * time.Millisecond
	defaultPollMaxInterval = 4 * time.Second
	defaultPollTimeout     = 60 * time.Second
	defaultCleanupTimeout  = 5 * time.Second
)

// Conversations is the multi-turn classification capability
type Conversations interface {
	// CreateSession opens a conversation and returns its id
	CreateSession(ctx context.Context) (string, error)
	// PostMessage appends a message to the conversation
	PostMessage(ctx context.Context, sessionID string, role assistant.Role, text string) error
	// StartRun asks the assistant to respond and returns the run id
	StartRun(ctx context.Context, sessionID string) (string, error)
	// RunStatus reports the state of a run
	RunStatus(ctx context.Context, sessionID, runID string) (assistant.RunStatus, error)
	// ListMessages returns the conversation in chronological order
	ListMessages(ctx context.Context, sessionID string) ([]assistant.Message, error)
	// DeleteSession discards the conversation
	DeleteSession(ctx context.Context, sessionID string) error
}

// Classifier runs the safe/unsafe conversation against a Conversations backend
type Classifier struct {
	conv            Conversations
	maxTextLength   int
	pollInterval    time.Duration
	pollMaxInterval time.Duration
	pollTimeout     time.Duration
	cleanupTimeout  time.Duration
}

// Option configures a Classifier
type Option func(*Classifier)

// WithMaxTextLength overrides the truncation length
func WithMaxTextLength(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxTextLength = n
		}
	}
}

// WithPollInterval sets the initial and maximum delay between run status checks
func WithPollInterval(initial, maxInterval time.Duration) Option {
	return func(c *Classifier) {
		if initial > 0 {
			c.pollInterval = initial
		}

		if maxInterval >= c.pollInterval {
			c.pollMaxInterval = maxInterval
		}
	}
}

// WithPollTimeout caps how long a single run is polled before giving up
func WithPollTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// New creates a Classifier backed by conv
func New(conv Conversations, opts ...Option) (*Classifier, error) {
	if conv == nil {
		return nil, ErrMissingConversations
	}

	c := &Classifier{
		conv:            conv,
		maxTextLength:   DefaultMaxTextLength,
		pollInterval:    defaultPollInterval,
		pollMaxInterval: defaultPollMaxInterval,
		pollTimeout:     defaultPollTimeout,
		cleanupTimeout:  defaultCleanupTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.pollMaxInterval < c.pollInterval {
		c.pollMaxInterval = c.pollInterval
	}

	return c, nil
}

// Classify judges text. Upstream failures are reported in the returned Verdict;
// the conversation is deleted before Classify returns.
func (c *Classifier) Classify(ctx context.Context, text string) Verdict {
	if !Meaningful(text) {
		return Verdict{Outcome: OutcomeUnsafe, Summary: SummaryNoText, Detail: DetailNoText}
	}

	text = Truncate(text, c.maxTextLength)

	sessionID, err := c.conv.CreateSession(ctx)
	if err != nil {
		return errorVerdict(err, 0)
	}

	defer c.closeSession(ctx, sessionID)

	reply, err := c.turn(ctx, sessionID, text)

	switch {
	case errors.Is(err, ErrRunFailed):
		log.Warn().Err(err).Str("session", sessionID).Msg("classification run did not complete")

		return Verdict{Outcome: OutcomeError, Summary: SummaryFailed, Detail: DetailFailed, Turns: 1}
	case err != nil:
		return errorVerdict(err, 1)
	case reply == SafeReply:
		return Verdict{Outcome: OutcomeSafe, Summary: reply, Turns: 1}
	}

	elaboration, err := c.turn(ctx, sessionID, ElaboratePrompt)

	switch {
	case errors.Is(err, ErrRunFailed):
		log.Warn().Err(err).Str("session", sessionID).Msg("elaboration run did not complete")

		return Verdict{Outcome: OutcomeUnsafe, Summary: reply, Detail: DetailNoElaboration, Turns: 2}
	case err != nil:
		return errorVerdict(err, 2)
	}

	return Verdict{Outcome: OutcomeUnsafe, Summary: reply, Detail: elaboration, Turns: 2}
}

// turn posts a user message, runs the assistant and returns its latest reply
func (c *Classifier) turn(ctx context.Context, sessionID, text string) (string, error) {
	if err := c.conv.PostMessage(ctx, sessionID, assistant.RoleUser, text); err != nil {
		return "", err
	}

	runID, err := c.conv.StartRun(ctx, sessionID)
	if err != nil {
		return "", err
	}

	status, err := c.waitForRun(ctx, sessionID, runID)
	if err != nil {
		return "", err
	}

	if !status.Succeeded() {
		return "", fmt.Errorf("%w: run %s ended %s", ErrRunFailed, runID, status)
	}

	messages, err := c.conv.ListMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == assistant.RoleAssistant {
			return messages[i].Text, nil
		}
	}

	return "", ErrNoReply
}

// waitForRun polls the run with exponential backoff until it reaches a terminal status
func (c *Classifier) waitForRun(ctx context.Context, sessionID, runID string) (assistant.RunStatus, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.pollInterval
	b.MaxInterval = c.pollMaxInterval

	poll := func() (assistant.RunStatus, error) {
		status, err := c.conv.RunStatus(ctx, sessionID, runID)
		if err != nil {
			return "", backoff.Permanent(err)
		}

		if !status.Terminal() {
			return status, errRunPending
		}

		return status, nil
	}

	status, err := backoff.Retry(ctx, poll, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(c.pollTimeout))
	if err == nil {
		return status, nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if errors.Is(err, errRunPending) {
		return "", fmt.Errorf("%w: run %s after %s", ErrRunStillPending, runID, c.pollTimeout)
	}

	return "", err
}

// closeSession deletes the conversation on a context detached from the caller's cancellation
func (c *Classifier) closeSession(parent context.Context, sessionID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.cleanupTimeout)
	defer cancel()

	if err := c.conv.DeleteSession(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to delete classification session")
	}
}

// Meaningful reports whether text is worth submitting for classification
func Meaningful(text string) bool {
	if text == "" || text == policydoc.ExtractionError {
		return false
	}

	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinTextLength
}

// Truncate returns at most n leading characters of text
func Truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}

	return string([]rune(text)[:n])
}

func errorVerdict(err error, turns int) Verdict {
	log.Error().Err(err).Int("turns", turns).Msg("policy classification failed")

	return Verdict{Outcome: OutcomeError, Summary: SummaryError, Detail: err.Error(), Turns: turns}
}
