package alternatives

import "errors"

var (
	// ErrMissingSuggester is returned when a Finder is created without a suggestion capability
	ErrMissingSuggester = errors.New("alternatives finder requires a suggester")
	// ErrMissingSearcher is returned when a Finder is created without a search capability
	ErrMissingSearcher = errors.New("alternatives finder requires a searcher")
	// ErrSuggestionFailed is returned when the suggestion capability fails
	ErrSuggestionFailed = errors.New("could not suggest alternatives")
)
