// Package workflow talks to the remote durable-workflow system that can run
// matching on behalf of this service.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
	"github.com/okian/tripbuddy/pkg/metrics"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 512

	opStart  = "start"
	opStatus = "status"
)

// StartRequest is the body of a workflow start call.
type StartRequest struct {
	SearchID        string                   `json:"search_id"`
	SeekerID        string                   `json:"seeker_id"`
	Preferences     model.MatchingPreference `json:"preferences"`
	CallbackWebhook string                   `json:"callback_webhook,omitempty"`
	TimeoutSeconds  int                      `json:"timeout_seconds"`
}

// Ack is the remote acknowledgement of a started workflow.
type Ack struct {
	SearchID    string `json:"search_id"`
	ExecutionID string `json:"execution_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

// RemoteStatus is the remote view of a search.
type RemoteStatus struct {
	SearchID string               `json:"search_id"`
	Status   model.SearchStatus   `json:"status"`
	Results  []model.MatchSummary `json:"results"`
	Error    string               `json:"error,omitempty"`
}

// State converts the remote view to the local search state shape.
func (r RemoteStatus) State() model.SearchState {
	results := r.Results
	if results == nil {
		results = []model.MatchSummary{}
	}
	return model.SearchState{
		SearchID: r.SearchID,
		Status:   r.Status,
		Results:  results,
		Error:    r.Error,
	}
}

// Client calls the workflow endpoint.
type Client struct {
	base   string
	http   *http.Client
	mode   AuthMode
	apiKey string
	sigv4  SigV4Credentials
	auth   authorizer
	now    func() time.Time
	logger logger.Logger
}

// New creates a client for baseURL. Without an auth option the client uses
// api_key mode with an empty key, which New rejects.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, ErrNoEndpoint
	}
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: defaultHTTPTimeout},
		mode:   AuthAPIKey,
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch c.mode {
	case AuthSigV4:
		a, err := newSigV4Auth(c.sigv4, c.now)
		if err != nil {
			return nil, err
		}
		c.auth = a
	default:
		if c.apiKey == "" {
			return nil, fmt.Errorf("%w: api key is empty", ErrInvalidAuth)
		}
		c.auth = apiKeyAuth{key: c.apiKey}
	}
	return c, nil
}

// Mode reports the configured auth mode.
func (c *Client) Mode() AuthMode { return c.mode }

// StartMatchingWorkflow asks the remote system to run a search.
func (c *Client) StartMatchingWorkflow(ctx context.Context, req StartRequest) (Ack, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Ack{}, fmt.Errorf("encode start request: %w", err)
	}
	var ack Ack
	if err := c.do(ctx, opStart, http.MethodPost, c.base+"/matching/workflows", body, &ack); err != nil {
		return Ack{}, err
	}
	if ack.SearchID == "" {
		ack.SearchID = req.SearchID
	}
	c.logger.Info(ctx, "matching workflow started",
		logger.String("search_id", req.SearchID),
		logger.String("execution_id", ack.ExecutionID),
	)
	return ack, nil
}

// GetSearchStatus fetches the remote state of a search. A 404 maps to ErrNotFound.
func (c *Client) GetSearchStatus(ctx context.Context, searchID string, includeCandidates bool) (RemoteStatus, error) {
	u := c.base + "/matching/searches/" + url.PathEscape(searchID)
	if includeCandidates {
		u += "?include_candidates=true"
	}
	var st RemoteStatus
	if err := c.do(ctx, opStatus, http.MethodGet, u, nil, &st); err != nil {
		return RemoteStatus{}, err
	}
	if st.SearchID == "" {
		st.SearchID = searchID
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		metrics.RecordWorkflowRequest(op, metrics.OutcomeFailure)
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.auth.authorize(ctx, req, body); err != nil {
		metrics.RecordWorkflowRequest(op, metrics.OutcomeFailure)
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordWorkflowRequest(op, metrics.OutcomeFailure)
		return fmt.Errorf("workflow %s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && op == opStatus:
		metrics.RecordWorkflowRequest(op, metrics.OutcomeFailure)
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordWorkflowRequest(op, metrics.OutcomeFailure)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			metrics.RecordWorkflowRequest(op, metrics.OutcomeFailure)
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	metrics.RecordWorkflowRequest(op, metrics.OutcomeSuccess)
	return nil
}
