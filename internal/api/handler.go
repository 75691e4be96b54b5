// Package api provides the HTTP surface for privacy policy assessments
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Cipherweave/VortexWatch/internal/assessment"
)

// Assessor runs a privacy policy assessment for a domain
type Assessor interface {
	Assess(ctx context.Context, domain string) (*assessment.Result, error)
}

// Handler manages API endpoints
type Handler struct {
	assessor    Assessor
	maxBodySize int64
}

// IndexResponse describes the running service
type IndexResponse struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// AnalyzeRequest is the body of an analyze request
type AnalyzeRequest struct {
	// Domain is a bare domain or an http(s) URL
	Domain string `json:"domain"`
}

// AnalyzeErrorResponse is returned when an assessment cannot complete
type AnalyzeErrorResponse struct {
	Status string `json:"status"`
	Domain string `json:"domain,omitempty"`
	Error  *Error `json:"error"`
}

// handleIndex reports that the service is up and lists its endpoints
func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Status:    "API is running",
		Endpoints: []string{"/analyze"},
	})
}

// handleAnalyze assesses the privacy policy of the requested domain
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req AnalyzeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondAnalyzeError(w, http.StatusBadRequest, "", errCodeInvalidRequest, ErrInvalidRequestBody.Error())
		return
	}

	result, err := h.assessor.Assess(r.Context(), req.Domain)
	if err != nil {
		domain := req.Domain

		var assessErr *assessment.Error
		if errors.As(err, &assessErr) {
			domain = assessErr.Domain
		}

		status, code, message := classifyError(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("domain", domain).Msg("assessment failed")
		}

		respondAnalyzeError(w, status, domain, code, message)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

// classifyError maps assessment failures to an HTTP status, error code and client message
func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, assessment.ErrDomainRequired):
		return http.StatusBadRequest, errCodeValidation, "Domain is required"
	case errors.Is(err, assessment.ErrBrowserPage):
		return http.StatusBadRequest, errCodeValidation, "Cannot analyze browser-specific pages"
	case errors.Is(err, assessment.ErrInvalidDomain):
		return http.StatusBadRequest, errCodeValidation, err.Error()
	case errors.Is(err, assessment.ErrPolicyNotFound):
		return http.StatusNotFound, errCodeNotFound, "Privacy policy not found"
	case errors.Is(err, assessment.ErrAssessmentTimeout):
		return http.StatusGatewayTimeout, errCodeTimeout, "Policy analysis timed out"
	default:
		return http.StatusInternalServerError, errCodeInternal, err.Error()
	}
}

func respondAnalyzeError(w http.ResponseWriter, status int, domain, code, message string) {
	writeJSON(w, status, AnalyzeErrorResponse{
		Status: "error",
		Domain: domain,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}
