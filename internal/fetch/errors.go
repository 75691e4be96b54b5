package fetch

import "errors"

var (
	// ErrClientInit is returned when the underlying HTTP client cannot be created
	ErrClientInit = errors.New("failed to initialize fetch client")
	// ErrRequestFailed is returned when a document request fails at the network level
	ErrRequestFailed = errors.New("document request failed")
	// ErrUnexpectedStatus is returned when the document responds with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected document response status")
	// ErrNoFetcher is returned when a fallback chain has no fetchers
	ErrNoFetcher = errors.New("no fetcher configured")
)
