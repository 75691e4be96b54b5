package slack

import "errors"

var (
	// ErrMissingWebhookURL is returned when no incoming webhook is configured
	ErrMissingWebhookURL = errors.New("slack webhook URL is required")
	// ErrIncompleteAlert is returned when an alert does not name the assessed site
	ErrIncompleteAlert = errors.New("policy alert is missing the site domain")
	// ErrNotificationFailed is returned when the webhook request cannot be sent
	ErrNotificationFailed = errors.New("slack notification failed")
	// ErrUnexpectedStatus is returned when the webhook answers with a non-200 status
	ErrUnexpectedStatus = errors.New("unexpected slack webhook response status")
)
