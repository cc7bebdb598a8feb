// Package loadgen drives a running matching service with concurrent
// searches and checks what comes back.
package loadgen

import (
	"errors"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// Defaults.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultSearches     = 100
	DefaultWorkers      = 8
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 250 * time.Millisecond
	DefaultWait         = 2 * time.Minute
)

// ErrNoBaseURL is returned by Run without a target.
var ErrNoBaseURL = errors.New("loadgen: base url is required")

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string
	Searches int
	Workers  int
	// Seekers are cycled through as X-User-ID. Empty generates one random id per search.
	Seekers []string
	// Resorts are sampled for preferred_resorts.
	Resorts      []string
	Timeout      time.Duration // per HTTP request
	PollInterval time.Duration
	Wait         time.Duration // per search, from submit to terminal status
	Verbose      bool
}

func (c *Config) withDefaults() {
	if c.Searches <= 0 {
		c.Searches = DefaultSearches
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Wait <= 0 {
		c.Wait = DefaultWait
	}
	if len(c.Resorts) == 0 {
		c.Resorts = []string{"whistler", "blackcomb", "niseko", "zermatt"}
	}
}

// Search is one generated request.
type Search struct {
	SeekerID    string                   `json:"seeker_id"`
	Preferences model.MatchingPreference `json:"preferences"`
}

// Stats holds run statistics.
type Stats struct {
	Generated    int
	Accepted     int
	Rejected     int
	Backpressure int
	Completed    int
	Failed       int
	TimedOut     int
	Matches      int
	Violations   int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
