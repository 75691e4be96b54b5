package policydoc

import "errors"

var (
	// ErrPolicyNotFound is returned when no privacy policy link could be located
	ErrPolicyNotFound = errors.New("privacy policy not found")
)
