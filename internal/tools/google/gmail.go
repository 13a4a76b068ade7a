package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const defaultGmailBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Gmail reads and sends mail through the Gmail REST API.
type Gmail struct {
	client  *Client
	baseURL string
	userID  string
}

// NewGmail builds the Gmail service. userID is usually "me".
func NewGmail(client *Client, userID string) *Gmail {
	if userID == "" {
		userID = "me"
	}
	return &Gmail{client: client, baseURL: defaultGmailBaseURL, userID: userID}
}

// WithBaseURL overrides the API host, for tests.
func (g *Gmail) WithBaseURL(base string) *Gmail {
	g.baseURL = strings.TrimRight(base, "/")
	return g
}

// Email is the condensed view of one message returned to the planner.
type Email struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Body     string `json:"body"`
}

type gmailMessageList struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type gmailPayload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []gmailPayload `json:"parts"`
}

type gmailMessage struct {
	ID       string       `json:"id"`
	ThreadID string       `json:"threadId"`
	Payload  gmailPayload `json:"payload"`
}

// List searches messages and fetches each match in full.
func (g *Gmail) List(ctx context.Context, query string, maxResults int) ([]Email, error) {
	params := url.Values{
		"q":          {query},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	var listing gmailMessageList
	endpoint := fmt.Sprintf("%s/users/%s/messages", g.baseURL, url.PathEscape(g.userID))
	if err := g.client.getJSON(ctx, endpoint, params, &listing); err != nil {
		return nil, err
	}

	emails := make([]Email, 0, len(listing.Messages))
	for _, ref := range listing.Messages {
		var full gmailMessage
		msgEndpoint := fmt.Sprintf("%s/users/%s/messages/%s",
			g.baseURL, url.PathEscape(g.userID), url.PathEscape(ref.ID))
		if err := g.client.getJSON(ctx, msgEndpoint, url.Values{"format": {"full"}}, &full); err != nil {
			return nil, err
		}

		headers := map[string]string{}
		for _, h := range full.Payload.Headers {
			headers[strings.ToLower(h.Name)] = h.Value
		}
		emails = append(emails, Email{
			ID:       full.ID,
			ThreadID: full.ThreadID,
			From:     headers["from"],
			Subject:  headers["subject"],
			Date:     headers["date"],
			Body:     extractBody(full.Payload),
		})
	}
	return emails, nil
}

// extractBody prefers a text/plain part, falls back to text/html, then to the
// top-level body.
func extractBody(payload gmailPayload) string {
	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == "text/plain" && part.Body.Data != "" {
				return decodeBase64URL(part.Body.Data)
			}
		}
		for _, part := range payload.Parts {
			if part.MimeType == "text/html" && part.Body.Data != "" {
				return decodeBase64URL(part.Body.Data)
			}
		}
		for _, part := range payload.Parts {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}
	if payload.Body.Data != "" {
		return decodeBase64URL(payload.Body.Data)
	}
	return ""
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// SendResult identifies the message created by Send.
type SendResult struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Send builds an RFC 2822 message and submits it base64url-encoded, matching
// the raw-message contract of messages.send.
func (g *Gmail) Send(ctx context.Context, to, subject, body string) (*SendResult, error) {
	var raw strings.Builder
	fmt.Fprintf(&raw, "To: %s\r\n", to)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	encoded := base64.URLEncoding.EncodeToString([]byte(raw.String()))
	endpoint := fmt.Sprintf("%s/users/%s/messages/send", g.baseURL, url.PathEscape(g.userID))

	var result SendResult
	if err := g.client.postJSON(ctx, endpoint, map[string]string{"raw": encoded}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
