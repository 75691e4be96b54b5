package assessment

import (
	"encoding/json"

	"github.com/Cipherweave/VortexWatch/internal/alternatives"
	"github.com/Cipherweave/VortexWatch/internal/classifier"
)

// StatusSuccess is the status of a completed assessment
const StatusSuccess = "success"

// Error payloads reported in place of resolved alternatives
const (
	AlternativesTimedOut      = "Retrieving alternatives timed out"
	AlternativesFailed        = "Could not retrieve alternatives"
	AlternativesNotConfigured = "Alternatives not configured"
)

// Result is the outcome of a completed assessment
type Result struct {
	Status            string             `json:"status"`
	AssessmentID      string             `json:"assessment_id"`
	Domain            string             `json:"domain"`
	RegistrableDomain string             `json:"registrable_domain,omitempty"`
	PrivacyURL        string             `json:"privacy_url"`
	IsSafe            bool               `json:"is_safe"`
	Verdict           classifier.Verdict `json:"verdict"`
	PolicyAnalysis    []string           `json:"policy_analysis"`
	// Alternatives is nil for safe verdicts
	Alternatives *Alternatives `json:"alternatives,omitempty"`
}

// Alternatives holds either resolved alternatives or the reason they are missing
type Alternatives struct {
	Resolved alternatives.Resolved
	Error    string
}

// MarshalJSON encodes the resolved name to URL object, or {"error": reason}
func (a Alternatives) MarshalJSON() ([]byte, error) {
	if a.Error != "" {
		return json.Marshal(map[string]string{"error": a.Error})
	}

	if a.Resolved == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(a.Resolved)
}
