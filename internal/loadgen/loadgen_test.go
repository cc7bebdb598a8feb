package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tripbuddy/internal/adapters/http/api"
	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/types"
	"github.com/okian/tripbuddy/internal/matching"
	"github.com/okian/tripbuddy/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubSearches completes every search on its second read.
type stubSearches struct {
	mu      sync.Mutex
	next    int
	seekers map[string]string
	reads   map[string]int
}

func newStub() *stubSearches {
	return &stubSearches{seekers: map[string]string{}, reads: map[string]int{}}
}

func (s *stubSearches) Submit(_ context.Context, seekerID string, prefs model.MatchingPreference) (string, error) { //nolint:gocritic // hugeParam: matches the interface
	if err := prefs.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("search-%d", s.next)
	if seekerID == "busy" {
		return id, matching.ErrBackpressure
	}
	s.seekers[id] = seekerID
	return id, nil
}

func (s *stubSearches) Results(_ context.Context, searchID string, _ bool) (model.SearchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seeker, ok := s.seekers[searchID]
	if !ok {
		return model.SearchState{}, &matching.NotFoundError{SearchID: searchID}
	}
	s.reads[searchID]++
	if s.reads[searchID] < 2 {
		return model.SearchState{SearchID: searchID, Status: model.SearchProcessing}, nil
	}
	results := []model.MatchSummary{{UserID: "c1", TotalScore: 0.9}, {UserID: "c2", TotalScore: 0.5}}
	if seeker == "narcissus" {
		results = append(results, model.MatchSummary{UserID: seeker, TotalScore: 0.1})
	}
	return model.SearchState{SearchID: searchID, Status: model.SearchCompleted, Results: results}, nil
}

func startServer(searches api.Searches) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(searches, nil, nil).Register(mux)
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	Convey("Given a matching API", t, func() {
		srv := startServer(newStub())
		defer srv.Close()
		cfg := Config{
			BaseURL:      srv.URL,
			Searches:     12,
			Workers:      4,
			PollInterval: 5 * time.Millisecond,
			Wait:         2 * time.Second,
		}

		Convey("When healthy seekers search", func() {
			cfg.Seekers = []string{"s1", "s2"}
			stats, err := Run(context.Background(), cfg)

			Convey("Then every search completes and verifies", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 12)
				So(stats.Accepted, ShouldEqual, 12)
				So(stats.Completed, ShouldEqual, 12)
				So(stats.Matches, ShouldEqual, 24)
				So(stats.Violations, ShouldEqual, 0)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the service pushes back or misbehaves", func() {
			cfg.Seekers = []string{"busy", "narcissus"}
			stats, err := Run(context.Background(), cfg)

			Convey("Then both are counted", func() {
				So(err, ShouldBeNil)
				So(stats.Backpressure, ShouldEqual, 6)
				So(stats.Completed, ShouldEqual, 6)
				So(stats.Violations, ShouldEqual, 6)
			})
		})

		Convey("When seekers are not given", func() {
			cfg.Searches = 3
			stats, err := Run(context.Background(), cfg)

			Convey("Then random seekers are used", func() {
				So(err, ShouldBeNil)
				So(stats.Completed, ShouldEqual, 3)
			})
		})
	})

	Convey("Given no target", t, func() {
		_, err := Run(context.Background(), Config{})

		Convey("Then Run refuses", func() {
			So(err, ShouldEqual, ErrNoBaseURL)
		})
	})

	Convey("Given an unreachable target", t, func() {
		srv := startServer(newStub())
		url := srv.URL
		srv.Close()
		_, err := Run(context.Background(), Config{BaseURL: url, Timeout: time.Second})

		Convey("Then the health check fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGenerateSearches(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := Config{Searches: 200}
		cfg.withDefaults()
		rng := rand.New(rand.NewPCG(1, 2))
		day := model.NewDate(2025, time.January, 1)

		Convey("Then every preference validates", func() {
			for _, s := range generateSearches(context.Background(), &cfg, day, rng) {
				So(s.SeekerID, ShouldNotBeEmpty)
				So(s.Preferences.Validate(), ShouldBeNil)
				So(s.Preferences.Availability, ShouldNotBeEmpty)
				So(cfg.Resorts, ShouldContain, s.Preferences.PreferredResorts[0])
			}
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given completed statuses", t, func() {
		ok := types.SearchStatus{SearchID: "x", Results: []model.MatchSummary{{UserID: "a", TotalScore: 2}, {UserID: "b", TotalScore: 1}}}
		unsorted := types.SearchStatus{SearchID: "x", Results: []model.MatchSummary{{UserID: "a", TotalScore: 1}, {UserID: "b", TotalScore: 2}}}
		self := types.SearchStatus{SearchID: "x", Results: []model.MatchSummary{{UserID: "me", TotalScore: 1}}}

		So(verify("me", ok), ShouldBeNil)
		So(verify("me", unsorted), ShouldNotBeNil)
		So(verify("me", self), ShouldNotBeNil)
	})
}
