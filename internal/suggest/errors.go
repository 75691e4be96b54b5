package suggest

import "errors"

var (
	// ErrMissingAPIKey is returned when the Cohere API key is not configured
	ErrMissingAPIKey = errors.New("cohere API key is required")
	// ErrRequestFailed is returned when a Cohere API request fails
	ErrRequestFailed = errors.New("cohere API request failed")
	// ErrUnexpectedStatus is returned when the Cohere API returns an unexpected HTTP status
	ErrUnexpectedStatus = errors.New("unexpected cohere API response status")
	// ErrEmptyCompletion is returned when the response carries no text
	ErrEmptyCompletion = errors.New("cohere returned an empty completion")
)
