package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"donna/internal/errors"
	"donna/internal/httpclient"
	"donna/internal/logging"
)

// tokenEndpoint is Google's OAuth2 token exchange endpoint.
const tokenEndpoint = "https://oauth2.googleapis.com/token"

// TokenProvider yields a bearer access token for Google API calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, used in tests and short-lived scripts.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.NewValidation("access_token")
	}
	return string(s), nil
}

// tokenFile mirrors the JSON layout written by Google's installed-app flow.
type tokenFile struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Expiry       string `json:"expiry"`
}

// FileTokenProvider reads an installed-app token file and refreshes the
// access token through the OAuth2 endpoint when it is stale. The refreshed
// token is kept in memory only; the file is treated as read-only input.
type FileTokenProvider struct {
	path         string
	clientID     string
	clientSecret string
	endpoint     string
	httpClient   *http.Client
	logger       logging.Logger

	mu      sync.Mutex
	access  string
	expiry  time.Time
	refresh string
}

// NewFileTokenProvider builds a provider for the given token file. clientID
// and clientSecret override the values stored in the file when non-empty.
func NewFileTokenProvider(path, clientID, clientSecret string) *FileTokenProvider {
	return &FileTokenProvider{
		path:         path,
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     tokenEndpoint,
		httpClient:   httpclient.New(30 * time.Second),
		logger:       logging.NewComponentLogger("GoogleAuth"),
	}
}

// Token returns a valid access token, refreshing it first when needed.
func (p *FileTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.access == "" && p.refresh == "" {
		if err := p.load(); err != nil {
			return "", err
		}
	}
	// Refresh a minute early so an in-flight request never carries a token
	// that expires mid-call.
	if p.access != "" && (p.expiry.IsZero() || time.Until(p.expiry) > time.Minute) {
		return p.access, nil
	}
	if p.refresh == "" {
		if p.access != "" {
			return p.access, nil
		}
		return "", errors.NewUnavailable("google", "token file has no refresh_token; re-run the authorization flow")
	}
	return p.doRefresh(ctx)
}

func (p *FileTokenProvider) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return errors.NewUnavailable("google",
			fmt.Sprintf("cannot read token file %s; run the authorization flow first", p.path))
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parse token file %s: %w", p.path, err)
	}
	p.access = tf.AccessToken
	p.refresh = tf.RefreshToken
	if p.clientID == "" {
		p.clientID = tf.ClientID
	}
	if p.clientSecret == "" {
		p.clientSecret = tf.ClientSecret
	}
	if tf.Expiry != "" {
		if exp, err := time.Parse(time.RFC3339, tf.Expiry); err == nil {
			p.expiry = exp
		}
	}
	return nil
}

func (p *FileTokenProvider) doRefresh(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {p.refresh},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.NewExternal("google", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := httpclient.ReadAllWithLimit(resp.Body, 1<<20)
	if err != nil {
		return "", errors.NewExternal("google", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewExternal("google", fmt.Errorf("token refresh status %d", resp.StatusCode))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.NewExternal("google", fmt.Errorf("decode token response: %w", err))
	}
	if parsed.AccessToken == "" {
		return "", errors.NewExternal("google", fmt.Errorf("token response has no access_token"))
	}

	p.access = parsed.AccessToken
	p.expiry = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	p.logger.Info("Refreshed Google access token, valid for %ds", parsed.ExpiresIn)
	return p.access, nil
}
