package search

import "errors"

var (
	// ErrEmptyQuery is returned when a search is requested without a query
	ErrEmptyQuery = errors.New("search query is required")
	// ErrRequestFailed is returned when the search request fails
	ErrRequestFailed = errors.New("search request failed")
	// ErrUnexpectedStatus is returned when the search endpoint returns an unexpected HTTP status
	ErrUnexpectedStatus = errors.New("unexpected search response status")
	// ErrParseFailed is returned when the results page cannot be parsed
	ErrParseFailed = errors.New("failed to parse search results")
)
