// Package policydoc locates a site's privacy policy and extracts its readable text
package policydoc

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/Cipherweave/VortexWatch/internal/fetch"
)

// DefaultTerms are the privacy-related terms matched against link hrefs and text
var DefaultTerms = []string{"privacy", "privacy policy", "data policy", "data protection"}

// DefaultContainerHints are class-name substrings identifying footer-like containers
var DefaultContainerHints = []string{"footer", "bottom"}

// linkSelector matches clickable elements carrying an href in the first pass
const linkSelector = "a[href], span[href], button[href], div[href]"

// containerSelector matches candidate footer or navigation containers in the second pass
const containerSelector = "footer, nav, div[class], [role]"

// containerRoles are landmark roles treated as footer-like regardless of class names
var containerRoles = map[string]struct{}{
	"contentinfo": {},
	"navigation":  {},
}

// Locator finds the privacy policy link on a site's root page
type Locator struct {
	fetcher        fetch.Fetcher
	terms          []string
	containerHints []string
}

// LocatorOption configures a Locator
type LocatorOption func(*Locator)

// WithTerms overrides the privacy term set
func WithTerms(terms []string) LocatorOption {
	return func(l *Locator) {
		if cleaned := normalizeTerms(terms); len(cleaned) > 0 {
			l.terms = cleaned
		}
	}
}

// WithContainerHints overrides the footer class-name hints used by the fallback pass
func WithContainerHints(hints []string) LocatorOption {
	return func(l *Locator) {
		if cleaned := normalizeTerms(hints); len(cleaned) > 0 {
			l.containerHints = cleaned
		}
	}
}

// NewLocator creates a Locator that fetches pages with f
func NewLocator(f fetch.Fetcher, opts ...LocatorOption) *Locator {
	l := &Locator{
		fetcher:        f,
		terms:          DefaultTerms,
		containerHints: DefaultContainerHints,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Locate fetches the site root and returns the absolute URL of its privacy
// policy. Every failure, including fetch errors, yields ErrPolicyNotFound.
func (l *Locator) Locate(ctx context.Context, site *url.URL) (*url.URL, error) {
	doc, err := l.fetcher.Fetch(ctx, site.String())
	if err != nil {
		log.Warn().Err(err).Str("site", site.String()).Msg("site root fetch failed")
		return nil, ErrPolicyNotFound
	}

	if !doc.IsHTML() {
		log.Warn().Str("site", site.String()).Str("content_type", doc.ContentType).Msg("site root is not html")
		return nil, ErrPolicyNotFound
	}

	base := site
	if final, err := url.Parse(doc.URL); err == nil && final.Host != "" {
		base = final
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		log.Warn().Err(err).Str("site", site.String()).Msg("site root parse failed")
		return nil, ErrPolicyNotFound
	}

	href, found := l.findLink(page)
	if !found {
		href, found = l.findFooterLink(page)
	}

	if !found {
		return nil, ErrPolicyNotFound
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		log.Warn().Err(err).Str("href", href).Msg("privacy link is not a valid url")
		return nil, ErrPolicyNotFound
	}

	return base.ResolveReference(ref), nil
}

// findLink scans every href-bearing clickable element in document order
func (l *Locator) findLink(page *goquery.Document) (string, bool) {
	var (
		href  string
		found bool
	)

	page.Find(linkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidate, _ := s.Attr("href")
		if l.matches(candidate) || l.matches(s.Text()) {
			href, found = candidate, true
			return false
		}

		return true
	})

	return href, found
}

// findFooterLink restricts the search to footer-like containers and also
// considers the accessible labels of icon-only links
func (l *Locator) findFooterLink(page *goquery.Document) (string, bool) {
	var (
		href  string
		found bool
	)

	page.Find(containerSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return l.isFooterLike(s)
	}).EachWithBreak(func(_ int, container *goquery.Selection) bool {
		container.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			candidate, _ := s.Attr("href")
			label := s.AttrOr("aria-label", "") + " " + s.AttrOr("title", "")

			if l.matches(candidate) || l.matches(s.Text()) || l.matches(label) {
				href, found = candidate, true
				return false
			}

			return true
		})

		return !found
	})

	return href, found
}

// isFooterLike reports whether a container is a footer by tag, landmark role or class name
func (l *Locator) isFooterLike(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "footer" {
		return true
	}

	if role, ok := s.Attr("role"); ok {
		if _, landmark := containerRoles[strings.ToLower(strings.TrimSpace(role))]; landmark {
			return true
		}
	}

	switch goquery.NodeName(s) {
	case "div", "nav":
	default:
		return false
	}

	class := strings.ToLower(s.AttrOr("class", ""))

	return lo.SomeBy(l.containerHints, func(hint string) bool {
		return strings.Contains(class, hint)
	})
}

// matches reports whether value contains any configured term, case-insensitively
func (l *Locator) matches(value string) bool {
	if value == "" {
		return false
	}

	lower := strings.ToLower(value)

	return lo.SomeBy(l.terms, func(term string) bool {
		return strings.Contains(lower, term)
	})
}

// normalizeTerms lower-cases and trims terms, dropping empties
func normalizeTerms(terms []string) []string {
	return lo.Compact(lo.Map(terms, func(term string, _ int) string {
		return strings.ToLower(strings.TrimSpace(term))
	}))
}
