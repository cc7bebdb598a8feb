// Package notify delivers search completion events to a webhook.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/tripbuddy/internal/domain/dedupe"
	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
	"github.com/okian/tripbuddy/pkg/metrics"
)

// EventMatchingCompleted is the event name sent when a search completes.
const EventMatchingCompleted = "matching.completed"

// SignatureHeader carries the hex HMAC-SHA256 of the body, prefixed "sha256=".
const SignatureHeader = "X-Signature"

const (
	defaultMaxAttempts     = 3
	defaultInitialInterval = 500 * time.Millisecond
	defaultHTTPTimeout     = 5 * time.Second
	defaultGuardSize       = 10000
)

// Event is the webhook body.
type Event struct {
	Event    string               `json:"event"`
	SearchID string               `json:"search_id"`
	SeekerID string               `json:"seeker_id"`
	Results  []model.MatchSummary `json:"results"`
}

// Dispatcher posts completion events. It never returns delivery errors to
// callers; failures are logged and counted.
type Dispatcher struct {
	url             string
	secret          string
	http            *http.Client
	maxAttempts     int
	initialInterval time.Duration
	sent            dedupe.Deduper
	logger          logger.Logger
}

// New creates a dispatcher for url. An empty url yields a dispatcher whose
// Notify does nothing.
func New(url string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		url:             url,
		http:            &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sent == nil {
		d.sent = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(defaultGuardSize))
	}
	return d
}

// Enabled reports whether a webhook URL is configured.
func (d *Dispatcher) Enabled() bool { return d.url != "" }

// Notify sends one matching.completed event for searchID. Repeated calls for
// the same search are dropped after the first successful delivery.
func (d *Dispatcher) Notify(ctx context.Context, searchID, seekerID string, results []model.MatchSummary) {
	if !d.Enabled() {
		return
	}
	if d.sent.SeenAndRecord(ctx, searchID) {
		d.logger.Debug(ctx, "notification already sent", logger.String("search_id", searchID))
		return
	}

	if results == nil {
		results = []model.MatchSummary{}
	}
	body, err := json.Marshal(Event{
		Event:    EventMatchingCompleted,
		SearchID: searchID,
		SeekerID: seekerID,
		Results:  results,
	})
	if err != nil {
		d.sent.Unrecord(ctx, searchID)
		metrics.RecordWebhookDelivery(metrics.OutcomeFailure)
		d.logger.Error(ctx, "encode notification", logger.String("search_id", searchID), logger.Error(err))
		return
	}

	attempts := 0
	op := func() error {
		attempts++
		return d.post(ctx, body)
	}
	if err := backoff.Retry(op, d.policy(ctx)); err != nil {
		d.sent.Unrecord(ctx, searchID)
		metrics.RecordWebhookDelivery(metrics.OutcomeFailure)
		d.logger.Warn(ctx, "notification failed",
			logger.String("search_id", searchID),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		return
	}
	metrics.RecordWebhookDelivery(metrics.OutcomeSuccess)
	d.logger.Debug(ctx, "notification delivered",
		logger.String("search_id", searchID),
		logger.Int("attempts", attempts),
	)
}

func (d *Dispatcher) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.initialInterval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(d.maxAttempts-1)), ctx)
}

func (d *Dispatcher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(d.secret, body))
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("webhook status %d", resp.StatusCode))
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
