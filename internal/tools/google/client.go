package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donna/internal/errors"
	"donna/internal/httpclient"
	"donna/internal/logging"
)

// Client is a thin JSON client for Google REST APIs, shared by the Gmail,
// Calendar and Tasks services. Service structs own their base URLs so tests
// can point each at an httptest server.
type Client struct {
	tokens     TokenProvider
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient builds a client guarded by a per-backend circuit breaker.
func NewClient(tokens TokenProvider) *Client {
	return &Client{
		tokens:     tokens,
		httpClient: httpclient.NewWithCircuitBreaker(30*time.Second, "google"),
		logger:     logging.NewComponentLogger("GoogleAPI"),
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, endpoint, nil, body, out)
}

func (c *Client) patchJSON(ctx context.Context, endpoint string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, endpoint, nil, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("%s %s", method, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewExternal("google", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := httpclient.ReadAllWithLimit(resp.Body, 8<<20)
	if err != nil {
		return errors.NewExternal("google", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewExternal("google",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewExternal("google", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func truncateBody(data []byte) string {
	s := strings.TrimSpace(string(data))
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
