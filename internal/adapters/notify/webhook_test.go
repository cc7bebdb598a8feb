package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/tripbuddy/internal/domain/model"
)

func TestNotifyDisabled(t *testing.T) {
	d := New("")
	assert.False(t, d.Enabled())
	d.Notify(context.Background(), "s-1", "u-1", nil)
}

func TestNotifyDelivers(t *testing.T) {
	var (
		calls int32
		event Event
		sig   string
		body  []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		sig = r.Header.Get(SignatureHeader)
		body, _ = io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &event))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := New(srv.URL, WithSecret("shh"))
	results := []model.MatchSummary{{UserID: "u2", TotalScore: 0.9}}
	d.Notify(context.Background(), "s-1", "u-1", results)

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, EventMatchingCompleted, event.Event)
	assert.Equal(t, "s-1", event.SearchID)
	assert.Equal(t, "u-1", event.SeekerID)
	require.Len(t, event.Results, 1)
	assert.Equal(t, "sha256="+Sign("shh", body), sig)

	t.Run("second notify for the same search is dropped", func(t *testing.T) {
		d.Notify(context.Background(), "s-1", "u-1", results)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestNotifyNoSecretNoSignature(t *testing.T) {
	var sig = "unset"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get(SignatureHeader)
	}))
	defer srv.Close()

	New(srv.URL).Notify(context.Background(), "s", "u", nil)
	assert.Empty(t, sig)
}

func TestNotifyRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(srv.URL, WithInitialInterval(time.Millisecond))
	d.Notify(context.Background(), "s-1", "u-1", nil)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNotifyGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(srv.URL, WithInitialInterval(time.Millisecond), WithMaxAttempts(3))
	d.Notify(context.Background(), "s-1", "u-1", nil)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// a failed delivery does not mark the search as sent
	d.Notify(context.Background(), "s-1", "u-1", nil)
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestNotifyClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	New(srv.URL, WithInitialInterval(time.Millisecond)).Notify(context.Background(), "s-1", "u-1", nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSign(t *testing.T) {
	// RFC 4231 test case 2
	got := Sign("Jefe", []byte("what do ya want for nothing?"))
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}
