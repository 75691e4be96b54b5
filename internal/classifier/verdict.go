package classifier

// Outcome is the overall classification result
type Outcome string

const (
	// OutcomeSafe means the assistant judged the policy safe
	OutcomeSafe Outcome = "safe"
	// OutcomeUnsafe means the assistant raised concerns, or the text was unusable
	OutcomeUnsafe Outcome = "unsafe"
	// OutcomeError means the conversation could not be completed
	OutcomeError Outcome = "error"
)

// Verdict summaries and details reported in place of assistant replies
const (
	SummaryNoText       = "Privacy Concerns Detected"
	DetailNoText        = "Could not extract meaningful text from the privacy policy."
	SummaryFailed       = "Analysis failed"
	DetailFailed        = "Could not analyze the policy"
	DetailNoElaboration = "Could not elaborate on the analysis"
	SummaryError        = "Error analyzing policy"
)

// Verdict is the result of classifying one policy text
type Verdict struct {
	// Outcome is safe, unsafe or error
	Outcome Outcome `json:"outcome"`
	// Summary is the assistant's verdict or a fixed failure summary
	Summary string `json:"summary"`
	// Detail is the elaboration or failure detail, empty for safe verdicts
	Detail string `json:"detail,omitempty"`
	// Turns is the number of user turns sent to the assistant
	Turns int `json:"turns"`
}

// Safe reports whether the policy was judged safe
func (v Verdict) Safe() bool {
	return v.Outcome == OutcomeSafe
}

// Analysis returns the verdict turns reported to clients, in order
func (v Verdict) Analysis() []string {
	if v.Detail == "" {
		return []string{v.Summary}
	}

	return []string{v.Summary, v.Detail}
}
