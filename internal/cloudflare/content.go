package cloudflare

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/theopenlane/httpsling"

	"github.com/Cipherweave/VortexWatch/internal/fetch"
)

// contentPath is the API path returning the fully rendered HTML of a page
const contentPath = "browser-rendering/content"

// contentRequest is the request body for the content endpoint
type contentRequest struct {
	URL                string      `json:"url"`
	GotoOptions        gotoOptions `json:"gotoOptions"`
	RejectResourceType []string    `json:"rejectResourceTypes,omitempty"`
}

// gotoOptions controls page navigation in the headless browser
type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	Timeout   int    `json:"timeout"`
}

// contentResponse is the Cloudflare API response wrapper for rendered content
type contentResponse struct {
	Success bool     `json:"success"`
	Result  string   `json:"result"`
	Errors  []apiErr `json:"errors"`
}

type apiErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Fetch renders pageURL in a headless browser and returns the resulting HTML
func (c *Client) Fetch(ctx context.Context, pageURL string) (*fetch.Document, error) {
	body := contentRequest{
		URL:                pageURL,
		GotoOptions:        gotoOptions{WaitUntil: "networkidle2", Timeout: c.navigationTimeout},
		RejectResourceType: []string{"image", "media", "font"},
	}

	requester := httpsling.MustNew(
		httpsling.URL(c.apiURL(contentPath)),
		httpsling.Post(),
		httpsling.BearerAuth(c.apiToken),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(c.httpClient),
	)

	var cfResp contentResponse

	resp, err := requester.ReceiveWithContext(ctx, &cfResp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if !cfResp.Success {
		return nil, fmt.Errorf("%w: %s", ErrRenderingFailed, describe(cfResp.Errors))
	}

	if strings.TrimSpace(cfResp.Result) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContent, pageURL)
	}

	return &fetch.Document{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(cfResp.Result),
	}, nil
}

func describe(errs []apiErr) string {
	if len(errs) == 0 {
		return "no error details"
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%d %s", e.Code, e.Message))
	}

	return strings.Join(msgs, "; ")
}
