package alternatives

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Cipherweave/VortexWatch/internal/search"
)

type stubSuggester struct {
	reply string
	err   error

	prompt      string
	maxTokens   int
	temperature float64
}

func (s *stubSuggester) Complete(_ context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	s.prompt, s.maxTokens, s.temperature = prompt, maxTokens, temperature

	return s.reply, s.err
}

// mapSearcher answers queries from a per-name table
type mapSearcher struct {
	mu      sync.Mutex
	results map[string][]search.Result
	errs    map[string]error
	queries []string
}

func (m *mapSearcher) Search(_ context.Context, query string, maxResults int) ([]search.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)
	name := strings.TrimSuffix(query, Query(""))

	if maxResults != 1 {
		return nil, errors.New("unexpected max results")
	}

	if err := m.errs[name]; err != nil {
		return nil, err
	}

	return m.results[name], nil
}

func newTestFinder(t *testing.T, s Suggester, searcher Searcher) *Finder {
	t.Helper()

	f, err := NewFinder(s, searcher)
	require.NoError(t, err)

	return f
}

func TestNewFinder_RequiresCapabilities(t *testing.T) {
	_, err := NewFinder(nil, &mapSearcher{})
	assert.ErrorIs(t, err, ErrMissingSuggester)

	_, err = NewFinder(&stubSuggester{}, nil)
	assert.ErrorIs(t, err, ErrMissingSearcher)
}

func TestParseSuggestions(t *testing.T) {
	testCases := []struct {
		name     string
		reply    string
		expected []string
	}{
		{"three lines", "Brave\nFirefox\nOpera", []string{"Brave", "Firefox", "Opera"}},
		{"blank lines dropped", "\n\nBrave\n\n  \nFirefox\n", []string{"Brave", "Firefox"}},
		{"extra lines truncated", "A\nB\nC\nD\nE", []string{"A", "B", "C"}},
		{"fewer not padded", "Only One", []string{"Only One"}},
		{"duplicates kept", "Same\nSame", []string{"Same", "Same"}},
		{"empty", "", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSuggestions(tc.reply)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseSuggestions_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOf(rapid.StringMatching(`[A-Za-z ]{0,12}`)).Draw(t, "lines")
		reply := strings.Join(lines, "\n")

		got := ParseSuggestions(reply)

		if len(got) > MaxSuggestions {
			t.Fatalf("expected at most %d suggestions, got %d", MaxSuggestions, len(got))
		}

		var nonEmpty []string

		for _, line := range lines {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				nonEmpty = append(nonEmpty, trimmed)
			}
		}

		for i, name := range got {
			if name == "" {
				t.Fatalf("suggestion %d is empty", i)
			}

			if name != nonEmpty[i] {
				t.Fatalf("suggestion %d is %q, expected %q", i, name, nonEmpty[i])
			}
		}

		if len(got) < MaxSuggestions && len(got) != len(nonEmpty) {
			t.Fatalf("expected %d suggestions, got %d", len(nonEmpty), len(got))
		}
	})
}

func TestSuggest(t *testing.T) {
	s := &stubSuggester{reply: "Signal\nTelegram\nThreema\nWire"}
	f := newTestFinder(t, s, &mapSearcher{})

	names, err := f.Suggest(context.Background(), "whatsapp")
	require.NoError(t, err)

	assert.Equal(t, []string{"Signal", "Telegram", "Threema"}, names)
	assert.Contains(t, s.prompt, "similar to whatsapp.")
	assert.Equal(t, SuggestionMaxTokens, s.maxTokens)
	assert.InDelta(t, SuggestionTemperature, s.temperature, 0.0001)
}

func TestSuggest_Failure(t *testing.T) {
	f := newTestFinder(t, &stubSuggester{err: errors.New("rate limited")}, &mapSearcher{})

	_, err := f.Suggest(context.Background(), "whatsapp")
	assert.ErrorIs(t, err, ErrSuggestionFailed)
}

func TestResolve_IsolatesPerNameErrors(t *testing.T) {
	searcher := &mapSearcher{
		results: map[string][]search.Result{
			"Signal": {{Href: "https://signal.org/"}},
		},
		errs: map[string]error{
			"Telegram": errors.New("connection reset"),
		},
	}

	f := newTestFinder(t, &stubSuggester{}, searcher)

	resolved := f.Resolve(context.Background(), []string{"Signal", "Telegram", "Threema"})

	require.Len(t, resolved, 3)
	assert.Equal(t, Entry{Name: "Signal", URL: "https://signal.org/"}, resolved[0])
	assert.Equal(t, Entry{Name: "Telegram", URL: URLError}, resolved[1])
	assert.Equal(t, Entry{Name: "Threema", URL: URLNotFound}, resolved[2])
	assert.Len(t, searcher.queries, 3)
}

func TestResolve_Empty(t *testing.T) {
	f := newTestFinder(t, &stubSuggester{}, &mapSearcher{})

	resolved := f.Resolve(context.Background(), nil)
	assert.Empty(t, resolved)

	encoded, err := json.Marshal(resolved)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(encoded))
}

func TestResolved_MarshalJSONKeepsOrder(t *testing.T) {
	resolved := Resolved{
		{Name: "Zulip", URL: "https://zulip.com/"},
		{Name: "Element", URL: URLNotFound},
		{Name: "Zulip", URL: "https://other.example/"},
		{Name: `Quote "Co"`, URL: URLError},
	}

	encoded, err := json.Marshal(resolved)
	require.NoError(t, err)

	assert.Equal(t, `{"Zulip":"https://zulip.com/","Element":"URL not found","Quote \"Co\"":"Error retrieving URL"}`, string(encoded))

	url, ok := resolved.Lookup("Element")
	assert.True(t, ok)
	assert.Equal(t, URLNotFound, url)
}
