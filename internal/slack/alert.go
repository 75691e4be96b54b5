package slack

import (
	"context"
	"fmt"
	"strings"
)

// maxSectionText keeps block text under Slack's 3000 character section limit
const maxSectionText = 2900

// Link is a named alternative and its website or lookup sentinel
type Link struct {
	Name string
	URL  string
}

// PolicyAlert describes an unsafe privacy policy verdict
type PolicyAlert struct {
	Domain       string
	PrivacyURL   string
	Summary      string
	Detail       string
	Alternatives []Link
}

// Message renders the alert as a Block Kit message
func (a PolicyAlert) Message() Message {
	fallback := fmt.Sprintf("Privacy concerns detected for %s", a.Domain)

	blocks := []Block{
		{
			Type: "header",
			Text: &TextObject{Type: "plain_text", Text: "Privacy concerns detected"},
		},
		{
			Type: "section",
			Fields: []TextObject{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Site*\n%s", a.Domain)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Policy*\n<%s|privacy policy>", a.PrivacyURL)},
			},
		},
		{
			Type: "section",
			Text: &TextObject{Type: "mrkdwn", Text: clip("*Verdict*\n" + a.Summary)},
		},
	}

	if a.Detail != "" {
		blocks = append(blocks, Block{
			Type: "section",
			Text: &TextObject{Type: "mrkdwn", Text: clip(quote(a.Detail))},
		})
	}

	if len(a.Alternatives) > 0 {
		lines := make([]string, 0, len(a.Alternatives))

		for _, alt := range a.Alternatives {
			if strings.HasPrefix(alt.URL, "http://") || strings.HasPrefix(alt.URL, "https://") {
				lines = append(lines, fmt.Sprintf("• <%s|%s>", alt.URL, alt.Name))
			} else {
				lines = append(lines, fmt.Sprintf("• %s (%s)", alt.Name, alt.URL))
			}
		}

		blocks = append(blocks,
			Block{Type: "divider"},
			Block{
				Type: "section",
				Text: &TextObject{Type: "mrkdwn", Text: clip("*Alternatives*\n" + strings.Join(lines, "\n"))},
			},
		)
	}

	return Message{Text: fallback, Blocks: blocks}
}

// NotifyUnsafe posts an unsafe-policy alert
func (c *Client) NotifyUnsafe(ctx context.Context, alert PolicyAlert) error {
	if alert.Domain == "" {
		return ErrIncompleteAlert
	}

	return c.Send(ctx, alert.Message())
}

// quote prefixes every line with a mrkdwn blockquote marker
func quote(text string) string {
	return "> " + strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n> ")
}

func clip(text string) string {
	r := []rune(text)
	if len(r) <= maxSectionText {
		return text
	}

	return string(r[:maxSectionText-1]) + "…"
}
