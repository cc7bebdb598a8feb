package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/tripbuddy/internal/adapters/http/api"
	"github.com/okian/tripbuddy/internal/domain/types"
)

// Submission outcomes.
const (
	outcomeAccepted     = "accepted"
	outcomeBackpressure = "backpressure"
	outcomeRejected     = "rejected"
)

var errUnexpectedStatus = errors.New("unexpected status")

type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: base, http: &http.Client{Timeout: timeout}}
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to service: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %d", errUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// submit posts one search and classifies the answer.
func (c *client) submit(ctx context.Context, s Search) (string, string, error) { //nolint:gocritic // hugeParam: searches travel by value
	body, err := json.Marshal(s.Preferences)
	if err != nil {
		return "", "", fmt.Errorf("marshal preferences: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/matching/searches", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.UserHeader, s.SeekerID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusAccepted:
		var ack types.SearchAccepted
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return "", "", fmt.Errorf("decode ack: %w", err)
		}
		return ack.SearchID, outcomeAccepted, nil
	case http.StatusTooManyRequests:
		return "", outcomeBackpressure, nil
	default:
		return "", outcomeRejected, nil
	}
}

func (c *client) status(ctx context.Context, searchID string) (types.SearchStatus, error) {
	var st types.SearchStatus
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/matching/searches/"+url.PathEscape(searchID), http.NoBody)
	if err != nil {
		return st, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return st, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("%w: search %s returned %d", errUnexpectedStatus, searchID, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
