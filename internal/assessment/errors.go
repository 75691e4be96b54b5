package assessment

import "errors"

var (
	// ErrMissingDependency is returned when the service is built without a required collaborator
	ErrMissingDependency = errors.New("assessment service is missing a dependency")
	// ErrDomainRequired is returned when no domain was supplied
	ErrDomainRequired = errors.New("domain is required")
	// ErrBrowserPage is returned for browser-internal pages
	ErrBrowserPage = errors.New("cannot analyze browser-specific pages")
	// ErrInvalidDomain is returned when the domain cannot be normalized into a site URL
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrPolicyNotFound is returned when the site's privacy policy could not be located
	ErrPolicyNotFound = errors.New("privacy policy not found")
	// ErrAssessmentTimeout is returned when policy analysis exceeds its time budget
	ErrAssessmentTimeout = errors.New("policy analysis timed out")
	// ErrInternal is returned for unexpected failures, including recovered panics
	ErrInternal = errors.New("internal error")
)

// Error is an assessment failure tied to the domain being assessed
type Error struct {
	// Domain is the normalized site when validation succeeded, otherwise the raw input
	Domain string
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by invalid caller input
func IsClientError(err error) bool {
	return errors.Is(err, ErrDomainRequired) || errors.Is(err, ErrBrowserPage) || errors.Is(err, ErrInvalidDomain)
}
