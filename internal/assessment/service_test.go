package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cipherweave/VortexWatch/internal/alternatives"
	"github.com/Cipherweave/VortexWatch/internal/classifier"
	"github.com/Cipherweave/VortexWatch/internal/metrics"
	"github.com/Cipherweave/VortexWatch/internal/policydoc"
	"github.com/Cipherweave/VortexWatch/internal/slack"
	"github.com/Cipherweave/VortexWatch/internal/workerpool"
)

type fakeLocator struct {
	policy string
	err    error
	site   string
}

func (f *fakeLocator) Locate(_ context.Context, site *url.URL) (*url.URL, error) {
	f.site = site.String()

	if f.err != nil {
		return nil, f.err
	}

	return url.Parse(f.policy)
}

type fakeExtractor struct {
	text string
}

func (f *fakeExtractor) Extract(_ context.Context, docURL string) policydoc.PolicyDocument {
	return policydoc.PolicyDocument{URL: docURL, Text: f.text}
}

type fakeClassifier struct {
	verdict classifier.Verdict
	delay   time.Duration
	panics  bool
}

func (f *fakeClassifier) Classify(ctx context.Context, _ string) classifier.Verdict {
	if f.panics {
		panic("classifier exploded")
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	return f.verdict
}

type fakeFinder struct {
	names        []string
	suggestErr   error
	suggestDelay time.Duration
	resolveDelay time.Duration

	mu      sync.Mutex
	company string
}

func (f *fakeFinder) Suggest(ctx context.Context, company string) ([]string, error) {
	f.mu.Lock()
	f.company = company
	f.mu.Unlock()

	if f.suggestDelay > 0 {
		select {
		case <-time.After(f.suggestDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.names, f.suggestErr
}

func (f *fakeFinder) Resolve(ctx context.Context, names []string) alternatives.Resolved {
	if f.resolveDelay > 0 {
		select {
		case <-time.After(f.resolveDelay):
		case <-ctx.Done():
		}
	}

	resolved := make(alternatives.Resolved, 0, len(names))
	for _, n := range names {
		resolved = append(resolved, alternatives.Entry{Name: n, URL: "https://" + n + ".example"})
	}

	return resolved
}

type fakeNotifier struct {
	alerts chan slack.PolicyAlert
}

func (f *fakeNotifier) NotifyUnsafe(_ context.Context, alert slack.PolicyAlert) error {
	f.alerts <- alert
	return nil
}

var (
	safeVerdict   = classifier.Verdict{Outcome: classifier.OutcomeSafe, Summary: classifier.SafeReply, Turns: 1}
	unsafeVerdict = classifier.Verdict{Outcome: classifier.OutcomeUnsafe, Summary: "Sells data", Detail: `"we sell data"`, Turns: 2}
)

func newTestService(t *testing.T, loc Locator, cls Classifier, opts ...Option) *Service {
	t.Helper()

	pool := workerpool.New(5)
	pool.Start()
	t.Cleanup(pool.Stop)

	s, err := New(pool, loc, &fakeExtractor{text: "We collect and sell your personal data."}, cls, opts...)
	require.NoError(t, err)

	return s
}

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(nil, &fakeLocator{}, &fakeExtractor{}, &fakeClassifier{})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestAssess_Safe(t *testing.T) {
	loc := &fakeLocator{policy: "https://www.example.co.uk/privacy"}
	finder := &fakeFinder{names: []string{"never"}}

	s := newTestService(t, loc, &fakeClassifier{verdict: safeVerdict}, WithAlternativeFinder(finder), WithMetrics(metrics.New()))

	result, err := s.Assess(context.Background(), "www.example.co.uk")
	require.NoError(t, err)

	assert.Equal(t, "https://www.example.co.uk", loc.site)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "https://www.example.co.uk", result.Domain)
	assert.Equal(t, "example.co.uk", result.RegistrableDomain)
	assert.Equal(t, "https://www.example.co.uk/privacy", result.PrivacyURL)
	assert.True(t, result.IsSafe)
	assert.Equal(t, []string{classifier.SafeReply}, result.PolicyAnalysis)
	assert.Nil(t, result.Alternatives)
	assert.NotEmpty(t, result.AssessmentID)
	assert.Empty(t, finder.company)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), `"alternatives"`)
}

func TestAssess_UnsafeWithAlternatives(t *testing.T) {
	loc := &fakeLocator{policy: "https://app.slack.com/privacy"}
	finder := &fakeFinder{names: []string{"teams", "discord"}}
	notifier := &fakeNotifier{alerts: make(chan slack.PolicyAlert, 1)}

	s := newTestService(t, loc, &fakeClassifier{verdict: unsafeVerdict},
		WithAlternativeFinder(finder), WithNotifier(notifier))

	result, err := s.Assess(context.Background(), "https://app.slack.com")
	require.NoError(t, err)

	assert.False(t, result.IsSafe)
	assert.Equal(t, []string{"Sells data", `"we sell data"`}, result.PolicyAnalysis)
	assert.Equal(t, "slack", finder.company)

	require.NotNil(t, result.Alternatives)
	assert.Empty(t, result.Alternatives.Error)
	require.Len(t, result.Alternatives.Resolved, 2)

	encoded, err := json.Marshal(result.Alternatives)
	require.NoError(t, err)
	assert.Equal(t, `{"teams":"https://teams.example","discord":"https://discord.example"}`, string(encoded))

	select {
	case alert := <-notifier.alerts:
		assert.Equal(t, "https://app.slack.com", alert.Domain)
		assert.Len(t, alert.Alternatives, 2)
	case <-time.After(time.Second):
		t.Fatal("expected unsafe notification")
	}
}

func TestAssess_AlternativesDegrade(t *testing.T) {
	testCases := []struct {
		name     string
		finder   AlternativeFinder
		timeouts Timeouts
		expected string
	}{
		{
			name:     "not configured",
			expected: AlternativesNotConfigured,
		},
		{
			name:     "suggestion failure",
			finder:   &fakeFinder{suggestErr: errors.New("cohere down")},
			expected: AlternativesFailed,
		},
		{
			name:     "suggestion timeout",
			finder:   &fakeFinder{names: []string{"a"}, suggestDelay: time.Second},
			timeouts: Timeouts{Suggest: 20 * time.Millisecond},
			expected: AlternativesTimedOut,
		},
		{
			name:     "resolution timeout",
			finder:   &fakeFinder{names: []string{"a"}, resolveDelay: time.Second},
			timeouts: Timeouts{Resolve: 20 * time.Millisecond},
			expected: AlternativesTimedOut,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := []Option{WithTimeouts(tc.timeouts)}
			if tc.finder != nil {
				opts = append(opts, WithAlternativeFinder(tc.finder))
			}

			s := newTestService(t, &fakeLocator{policy: "https://example.com/privacy"}, &fakeClassifier{verdict: unsafeVerdict}, opts...)

			result, err := s.Assess(context.Background(), "example.com")
			require.NoError(t, err)
			require.NotNil(t, result.Alternatives)
			assert.Equal(t, tc.expected, result.Alternatives.Error)

			encoded, err := json.Marshal(result.Alternatives)
			require.NoError(t, err)
			assert.JSONEq(t, `{"error":"`+tc.expected+`"}`, string(encoded))
		})
	}
}

func TestAssess_ClientErrors(t *testing.T) {
	testCases := []struct {
		name   string
		domain string
		err    error
	}{
		{"empty", "  ", ErrDomainRequired},
		{"newtab", "newtab", ErrBrowserPage},
		{"chrome page", "chrome://settings", ErrBrowserPage},
		{"ftp scheme", "ftp://example.com", ErrInvalidDomain},
		{"no host", "https://", ErrInvalidDomain},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loc := &fakeLocator{policy: "https://example.com/privacy"}
			s := newTestService(t, loc, &fakeClassifier{verdict: safeVerdict})

			result, err := s.Assess(context.Background(), tc.domain)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, IsClientError(err))
			assert.Empty(t, loc.site, "no network access for invalid input")
		})
	}
}

func TestAssess_PolicyNotFound(t *testing.T) {
	s := newTestService(t, &fakeLocator{err: policydoc.ErrPolicyNotFound}, &fakeClassifier{verdict: safeVerdict})

	_, err := s.Assess(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrPolicyNotFound)

	var assessErr *Error
	require.ErrorAs(t, err, &assessErr)
	assert.Equal(t, "https://example.com", assessErr.Domain)
}

func TestAssess_ClassificationTimeout(t *testing.T) {
	finder := &fakeFinder{names: []string{"never"}}
	s := newTestService(t, &fakeLocator{policy: "https://example.com/privacy"},
		&fakeClassifier{verdict: safeVerdict, delay: time.Second},
		WithTimeouts(Timeouts{Classify: 20 * time.Millisecond}),
		WithAlternativeFinder(finder))

	result, err := s.Assess(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrAssessmentTimeout)
	assert.Nil(t, result)
	assert.Empty(t, finder.company)
}

func TestAssess_PanicBecomesInternal(t *testing.T) {
	s := newTestService(t, &fakeLocator{policy: "https://example.com/privacy"}, &fakeClassifier{panics: true})

	_, err := s.Assess(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "classifier exploded")
}
