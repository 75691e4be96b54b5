package domain

import "errors"

var (
	// ErrEmptyTarget is returned when no domain was supplied
	ErrEmptyTarget = errors.New("domain is required")
	// ErrBrowserPage is returned for browser-internal pages such as chrome://newtab
	ErrBrowserPage = errors.New("cannot analyze browser-specific pages")
	// ErrUnsupportedScheme is returned for schemes other than http and https
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrInvalidURLFormat is returned when the URL format is not valid
	ErrInvalidURLFormat = errors.New("invalid URL format")
	// ErrInvalidDomainFormat is returned when the domain format is not valid
	ErrInvalidDomainFormat = errors.New("invalid domain format")
)
