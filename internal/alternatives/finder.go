// Package alternatives proposes competing products for a company and resolves their websites
package alternatives

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Cipherweave/VortexWatch/internal/search"
)

const (
	// MaxSuggestions is the most alternatives kept from a suggestion reply
	MaxSuggestions = 3
	// SuggestionMaxTokens bounds the suggestion reply length
	SuggestionMaxTokens = 50
	// SuggestionTemperature is the sampling temperature for suggestions
	SuggestionTemperature = 0.7

	// URLNotFound is recorded for a name whose search returned no results
	URLNotFound = "URL not found"
	// URLError is recorded for a name whose search failed
	URLError = "Error retrieving URL"

	defaultResolveConcurrency = 3
)

// Suggester generates free-form text from a prompt
type Suggester interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Searcher returns ranked web results for a query
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}

// Finder suggests alternatives and resolves their official websites
type Finder struct {
	suggester   Suggester
	searcher    Searcher
	concurrency int
}

// Option configures a Finder
type Option func(*Finder)

// WithConcurrency limits how many names are resolved at once
func WithConcurrency(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFinder creates a Finder from a suggestion and a search capability
func NewFinder(suggester Suggester, searcher Searcher, opts ...Option) (*Finder, error) {
	if suggester == nil {
		return nil, ErrMissingSuggester
	}

	if searcher == nil {
		return nil, ErrMissingSearcher
	}

	f := &Finder{
		suggester:   suggester,
		searcher:    searcher,
		concurrency: defaultResolveConcurrency,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Prompt builds the suggestion prompt for company
func Prompt(company string) string {
	return fmt.Sprintf("Provide a list of exactly three websites or apps that are similar to %s."+
		" Rules: "+
		"- Only return the names of the websites or apps. "+
		"- No explanations, descriptions, or extra words.  "+
		"- The response must contain exactly three names."+
		"- Do not include unrelated websites.  ", company)
}

// Query builds the search query used to find a name's official website
func Query(name string) string {
	return name + " official website, no account or log in page just the official website"
}

// Suggest asks for up to three alternatives to company. The reply is neither padded nor retried.
func (f *Finder) Suggest(ctx context.Context, company string) ([]string, error) {
	reply, err := f.suggester.Complete(ctx, Prompt(company), SuggestionMaxTokens, SuggestionTemperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSuggestionFailed, err)
	}

	names := ParseSuggestions(reply)

	log.Debug().Str("company", company).Strs("alternatives", names).Msg("alternatives suggested")

	return names, nil
}

// ParseSuggestions splits a reply into lines and keeps the first three non-empty ones
func ParseSuggestions(reply string) []string {
	lines := lo.FilterMap(strings.Split(reply, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	})

	if len(lines) > MaxSuggestions {
		lines = lines[:MaxSuggestions]
	}

	return lines
}

// Resolve looks up the official website of every name. Failures are recorded per
// name and never abort the other lookups.
func (f *Finder) Resolve(ctx context.Context, names []string) Resolved {
	urls := make([]string, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, name := range names {
		g.Go(func() error {
			urls[i] = f.resolveOne(gctx, name)
			return nil
		})
	}

	_ = g.Wait()

	resolved := make(Resolved, len(names))
	for i, name := range names {
		resolved[i] = Entry{Name: name, URL: urls[i]}
	}

	return resolved
}

func (f *Finder) resolveOne(ctx context.Context, name string) string {
	results, err := f.searcher.Search(ctx, Query(name), 1)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("alternative lookup failed")
		return URLError
	}

	if len(results) == 0 || results[0].Href == "" {
		return URLNotFound
	}

	return results[0].Href
}
