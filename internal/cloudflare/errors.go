package cloudflare

import "errors"

var (
	// ErrMissingAccountID is returned when no Cloudflare account is configured
	ErrMissingAccountID = errors.New("cloudflare account ID is required")
	// ErrMissingAPIToken is returned when no Browser Rendering token is configured
	ErrMissingAPIToken = errors.New("cloudflare API token is required")
	// ErrRequestFailed is returned when the rendering request cannot be sent
	ErrRequestFailed = errors.New("cloudflare API request failed")
	// ErrUnexpectedStatus is returned when the API answers with a non-200 status
	ErrUnexpectedStatus = errors.New("unexpected cloudflare API response status")
	// ErrRenderingFailed is returned when the API reports the page could not be rendered
	ErrRenderingFailed = errors.New("cloudflare browser rendering failed")
	// ErrEmptyContent is returned when rendering succeeded but produced no markup
	ErrEmptyContent = errors.New("cloudflare rendered an empty page")
)
