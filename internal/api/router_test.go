package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cipherweave/VortexWatch/internal/alternatives"
	"github.com/Cipherweave/VortexWatch/internal/assessment"
	"github.com/Cipherweave/VortexWatch/internal/classifier"
	"github.com/Cipherweave/VortexWatch/internal/metrics"
)

type fakeAssessor struct {
	result *assessment.Result
	err    error
	domain string
}

func (f *fakeAssessor) Assess(_ context.Context, domain string) (*assessment.Result, error) {
	f.domain = domain
	return f.result, f.err
}

func newTestRouter(a Assessor) http.Handler {
	return NewRouter(RouterConfig{Assessor: a, Metrics: metrics.New(), MaxBodySize: 1024})
}

func postAnalyze(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	return w
}

func TestIndex(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&fakeAssessor{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"API is running","endpoints":["/analyze"]}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPingAndMetrics(t *testing.T) {
	handler := newTestRouter(&fakeAssessor{})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vortexwatch_http_requests_total{method="GET",route="/",status_code="200"} 1`)
}

func TestPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(RouterConfig{Assessor: &fakeAssessor{}, AllowedOrigin: "chrome-extension://abc"}).
		ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/analyze", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "chrome-extension://abc", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAnalyze_Success(t *testing.T) {
	result := &assessment.Result{
		Status:         assessment.StatusSuccess,
		AssessmentID:   "id-1",
		Domain:         "https://example.com",
		PrivacyURL:     "https://example.com/privacy",
		IsSafe:         false,
		Verdict:        classifier.Verdict{Outcome: classifier.OutcomeUnsafe, Summary: "Sells data", Detail: "quote", Turns: 2},
		PolicyAnalysis: []string{"Sells data", "quote"},
		Alternatives: &assessment.Alternatives{Resolved: alternatives.Resolved{
			{Name: "Signal", URL: "https://signal.org/"},
			{Name: "Threema", URL: alternatives.URLNotFound},
		}},
	}

	assessor := &fakeAssessor{result: result}
	w := postAnalyze(t, newTestRouter(assessor), `{"domain":"example.com"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "example.com", assessor.domain)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.JSONEq(t, `"success"`, string(body["status"]))
	assert.JSONEq(t, `false`, string(body["is_safe"]))
	assert.JSONEq(t, `["Sells data","quote"]`, string(body["policy_analysis"]))
	assert.Equal(t, `{"Signal":"https://signal.org/","Threema":"URL not found"}`, string(body["alternatives"]))
}

func TestAnalyze_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
		domain string
	}{
		{
			name:   "malformed body",
			body:   `{"domain":`,
			status: http.StatusBadRequest,
			code:   errCodeInvalidRequest,
		},
		{
			name:   "trailing object",
			body:   `{"domain":"a.com"}{"domain":"b.com"}`,
			status: http.StatusBadRequest,
			code:   errCodeInvalidRequest,
		},
		{
			name:   "missing domain",
			body:   `{}`,
			err:    &assessment.Error{Err: assessment.ErrDomainRequired},
			status: http.StatusBadRequest,
			code:   errCodeValidation,
		},
		{
			name:   "browser page",
			body:   `{"domain":"chrome://newtab"}`,
			err:    &assessment.Error{Domain: "chrome://newtab", Err: assessment.ErrBrowserPage},
			status: http.StatusBadRequest,
			code:   errCodeValidation,
			domain: "chrome://newtab",
		},
		{
			name:   "not found",
			body:   `{"domain":"example.com"}`,
			err:    &assessment.Error{Domain: "https://example.com", Err: assessment.ErrPolicyNotFound},
			status: http.StatusNotFound,
			code:   errCodeNotFound,
			domain: "https://example.com",
		},
		{
			name:   "timeout",
			body:   `{"domain":"example.com"}`,
			err:    &assessment.Error{Domain: "https://example.com", Err: assessment.ErrAssessmentTimeout},
			status: http.StatusGatewayTimeout,
			code:   errCodeTimeout,
			domain: "https://example.com",
		},
		{
			name:   "internal",
			body:   `{"domain":"example.com"}`,
			err:    &assessment.Error{Domain: "example.com", Err: fmt.Errorf("%w: boom", assessment.ErrInternal)},
			status: http.StatusInternalServerError,
			code:   errCodeInternal,
			domain: "example.com",
		},
		{
			name:   "unwrapped error",
			body:   `{"domain":"example.com"}`,
			err:    errors.New("unexpected"),
			status: http.StatusInternalServerError,
			code:   errCodeInternal,
			domain: "example.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := postAnalyze(t, newTestRouter(&fakeAssessor{err: tc.err}), tc.body)

			require.Equal(t, tc.status, w.Code)

			var resp AnalyzeErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tc.domain, resp.Domain)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	body := `{"domain":"` + strings.Repeat("a", 2048) + `.com"}`

	w := postAnalyze(t, newTestRouter(&fakeAssessor{}), body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
