package domain

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// defaultScheme is prepended to targets submitted without a scheme
const defaultScheme = "https://"

// browserPages are literal targets that identify browser-internal pages
var browserPages = map[string]struct{}{
	"newtab":          {},
	"chrome://newtab": {},
	"about:blank":     {},
}

// browserSchemePrefixes identify browser-internal pseudo-schemes
var browserSchemePrefixes = []string{"chrome://", "about:", "edge://"}

// companyStoplist holds host labels that never name the company
var companyStoplist = map[string]struct{}{
	"www": {},
	"app": {},
	"web": {},
}

// SiteTarget is a normalized absolute URL for the site under assessment
type SiteTarget struct {
	// URL is the normalized absolute site URL
	URL *url.URL `json:"-"`
	// Host is the lower-cased host without port
	Host string `json:"host"`
	// Registrable is the public suffix plus one label, empty for hosts without one
	Registrable string `json:"registrable,omitempty"`
}

// String returns the normalized URL
func (t *SiteTarget) String() string {
	return t.URL.String()
}

// IsBrowserPage reports whether raw identifies a browser-internal page
func IsBrowserPage(raw string) bool {
	raw = strings.TrimSpace(raw)
	if _, ok := browserPages[strings.ToLower(raw)]; ok {
		return true
	}

	lower := strings.ToLower(raw)
	for _, prefix := range browserSchemePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}

// Normalize prepends https:// when raw carries no http or https scheme
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}

	return defaultScheme + raw
}

// NewSiteTarget validates and normalizes a user-supplied domain or URL
func NewSiteTarget(raw string) (*SiteTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyTarget
	}

	if IsBrowserPage(raw) {
		return nil, ErrBrowserPage
	}

	if scheme, _, found := strings.Cut(raw, "://"); found {
		lower := strings.ToLower(scheme)
		if lower != "http" && lower != "https" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
		}
	}

	u, err := url.Parse(Normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURLFormat, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, ErrInvalidDomainFormat
	}

	target := &SiteTarget{URL: u, Host: host}

	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		target.Registrable = etld1
	}

	return target, nil
}

// CompanyName derives the company name used to query for alternatives: the
// first host label, or the second one when the first is a generic prefix
func CompanyName(t *SiteTarget) string {
	labels := strings.Split(t.Host, ".")

	name := labels[0]
	if _, generic := companyStoplist[name]; generic && len(labels) > 1 {
		name = labels[1]
	}

	return name
}
