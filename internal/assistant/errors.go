package assistant

import "errors"

var (
	// ErrMissingAPIKey is returned when the OpenAI API key is not configured
	ErrMissingAPIKey = errors.New("openai API key is required")
	// ErrMissingAssistantID is returned when the assistant id is not configured
	ErrMissingAssistantID = errors.New("openai assistant ID is required")
	// ErrRequestFailed is returned when an OpenAI API request fails
	ErrRequestFailed = errors.New("openai API request failed")
	// ErrUnexpectedStatus is returned when the OpenAI API returns an unexpected HTTP status
	ErrUnexpectedStatus = errors.New("unexpected openai API response status")
	// ErrMissingID is returned when a create call responds without an object id
	ErrMissingID = errors.New("openai API response is missing an id")
)
