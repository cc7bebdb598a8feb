package workflow

import (
	"net/http"
	"time"

	"github.com/okian/tripbuddy/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAPIKey selects api_key auth.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.mode = AuthAPIKey
		c.apiKey = key
	}
}

// WithSigV4 selects sigv4 auth.
func WithSigV4(creds SigV4Credentials) Option {
	return func(c *Client) {
		c.mode = AuthSigV4
		c.sigv4 = creds
	}
}

// WithClock sets the signing time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
