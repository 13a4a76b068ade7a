package httpclient

import (
	"net/http"
	"time"
)

// New returns an http.Client configured for outbound requests.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
