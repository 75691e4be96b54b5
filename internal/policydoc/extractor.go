package policydoc

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/Cipherweave/VortexWatch/internal/fetch"
)

const (
	// NoReadableText is returned when a policy page has no heading or paragraph text
	NoReadableText = "No readable text found in the privacy policy."
	// ExtractionError is returned when a policy page cannot be fetched or parsed
	ExtractionError = "Error extracting text from the policy page."
)

// textSelector matches the heading and paragraph elements whose text is kept
const textSelector = "h1, h2, h3, h4, h5, h6, p"

// PolicyDocument is a privacy policy's source URL and extracted plain text
type PolicyDocument struct {
	// URL is the policy document URL
	URL string `json:"url"`
	// Text is the newline-joined readable text or one of the sentinel strings
	Text string `json:"text"`
}

// Readable reports whether the document holds extracted text rather than a sentinel
func (d PolicyDocument) Readable() bool {
	return d.Text != NoReadableText && d.Text != ExtractionError
}

// Extractor fetches policy documents and extracts their readable text
type Extractor struct {
	fetcher  fetch.Fetcher
	renderer fetch.Fetcher
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithRenderer sets a fetcher used once more when the static page has no readable
// text, typically a headless browser for script-rendered pages
func WithRenderer(r fetch.Fetcher) ExtractorOption {
	return func(e *Extractor) {
		e.renderer = r
	}
}

// NewExtractor creates an Extractor that fetches documents with f
func NewExtractor(f fetch.Fetcher, opts ...ExtractorOption) *Extractor {
	e := &Extractor{fetcher: f}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract fetches docURL and returns its readable text. It never fails: fetch
// and parse errors are reported through the ExtractionError sentinel.
func (e *Extractor) Extract(ctx context.Context, docURL string) PolicyDocument {
	doc := e.extractWith(ctx, e.fetcher, docURL)

	if doc.Readable() || e.renderer == nil || ctx.Err() != nil {
		return doc
	}

	log.Debug().Str("url", docURL).Str("static_result", doc.Text).Msg("retrying extraction with renderer")

	rendered := e.extractWith(ctx, e.renderer, docURL)
	if rendered.Readable() {
		return rendered
	}

	return doc
}

// extractWith fetches docURL with f and extracts its text
func (e *Extractor) extractWith(ctx context.Context, f fetch.Fetcher, docURL string) PolicyDocument {
	result := PolicyDocument{URL: docURL}

	raw, err := f.Fetch(ctx, docURL)
	if err != nil {
		log.Warn().Err(err).Str("url", docURL).Msg("policy fetch failed")

		result.Text = ExtractionError

		return result
	}

	text, err := ExtractText(raw.Body)
	if err != nil {
		log.Warn().Err(err).Str("url", docURL).Msg("policy parse failed")

		result.Text = ExtractionError

		return result
	}

	if text == "" {
		text = NoReadableText
	}

	result.Text = text

	return result
}

// ExtractText returns the non-empty text of heading and paragraph elements in
// document order, one element per line with inner whitespace collapsed
func ExtractText(markup []byte) (string, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", err
	}

	var lines []string

	page.Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			lines = append(lines, text)
		}
	})

	return strings.Join(lines, "\n"), nil
}
