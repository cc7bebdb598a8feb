package notify

import (
	"net/http"
	"time"

	"github.com/okian/tripbuddy/internal/domain/dedupe"
	"github.com/okian/tripbuddy/pkg/logger"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSecret enables the X-Signature header.
func WithSecret(secret string) Option {
	return func(d *Dispatcher) { d.secret = secret }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Dispatcher) {
		if hc != nil {
			d.http = hc
		}
	}
}

// WithMaxAttempts caps delivery attempts per notification.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.initialInterval = interval
		}
	}
}

// WithDeduper replaces the default once-per-search guard.
func WithDeduper(g dedupe.Deduper) Option {
	return func(d *Dispatcher) {
		if g != nil {
			d.sent = g
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
