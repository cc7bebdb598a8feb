package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/tripbuddy/internal/adapters/repository"
	"github.com/okian/tripbuddy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store with a controlled clock", t, func() {
		ctx := context.Background()
		clock := &fakeClock{now: time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)}
		store := repository.NewMemoryStore(ctx, repository.WithClock(clock.Now), repository.WithJanitorInterval(time.Hour))
		defer store.Close()

		Convey("When a search is never created", func() {
			_, err := store.Get(ctx, "missing")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a search moves through its lifecycle", func() {
			So(store.SetProcessing(ctx, "s1", "seeker"), ShouldBeNil)
			st, err := store.Get(ctx, "s1")
			So(err, ShouldBeNil)

			Convey("Then it starts as processing with no results", func() {
				So(st.Status, ShouldEqual, model.SearchProcessing)
				So(st.Results, ShouldNotBeNil)
				So(st.Results, ShouldBeEmpty)
				So(st.ExpiresAt, ShouldEqual, clock.Now().Add(repository.DefaultTTL))
			})

			Convey("Then completion replaces the state and restarts the TTL", func() {
				created := st.CreatedAt
				clock.Advance(30 * time.Minute)
				results := []model.MatchSummary{{UserID: "b", TotalScore: 0.9}}
				So(store.SetCompleted(ctx, "s1", "seeker", results), ShouldBeNil)

				done, err := store.Get(ctx, "s1")
				So(err, ShouldBeNil)
				So(done.Status, ShouldEqual, model.SearchCompleted)
				So(done.Results, ShouldResemble, results)
				So(done.CreatedAt, ShouldEqual, created)
				So(done.ExpiresAt, ShouldEqual, clock.Now().Add(repository.DefaultTTL))

				Convey("And it disappears once the TTL elapses", func() {
					clock.Advance(repository.DefaultTTL)
					_, err := store.Get(ctx, "s1")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					So(store.Purge(), ShouldEqual, 1)
					So(store.Len(), ShouldEqual, 0)
				})
			})

			Convey("Then failure records the reason", func() {
				So(store.SetFailed(ctx, "s1", "seeker", "candidate source timed out"), ShouldBeNil)
				failed, err := store.Get(ctx, "s1")
				So(err, ShouldBeNil)
				So(failed.Status, ShouldEqual, model.SearchFailed)
				So(failed.Error, ShouldEqual, "candidate source timed out")
			})

			Convey("Then callers cannot mutate stored results", func() {
				So(store.SetCompleted(ctx, "s1", "seeker", []model.MatchSummary{{UserID: "b"}}), ShouldBeNil)
				got, _ := store.Get(ctx, "s1")
				got.Results[0].UserID = "mutated"
				again, _ := store.Get(ctx, "s1")
				So(again.Results[0].UserID, ShouldEqual, "b")
			})
		})

		Convey("When the search id is empty", func() {
			So(errors.Is(store.SetProcessing(ctx, "", "seeker"), repository.ErrEmptySearch), ShouldBeTrue)
		})

		Convey("When a custom TTL is configured", func() {
			short := repository.NewMemoryStore(ctx, repository.WithClock(clock.Now), repository.WithTTL(time.Minute))
			defer short.Close()
			So(short.SetProcessing(ctx, "s2", "seeker"), ShouldBeNil)
			clock.Advance(59 * time.Second)
			_, err := short.Get(ctx, "s2")
			So(err, ShouldBeNil)
			clock.Advance(time.Second)
			_, err = short.Get(ctx, "s2")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryStoreJanitor(t *testing.T) {
	Convey("Given a store with a fast janitor", t, func() {
		ctx := context.Background()
		clock := &fakeClock{now: time.Now()}
		store := repository.NewMemoryStore(ctx,
			repository.WithClock(clock.Now),
			repository.WithTTL(time.Second),
			repository.WithJanitorInterval(5*time.Millisecond),
		)
		defer store.Close()

		So(store.SetProcessing(ctx, "s1", "seeker"), ShouldBeNil)
		clock.Advance(2 * time.Second)

		Convey("Then expired states are purged in the background", func() {
			deadline := time.Now().Add(time.Second)
			for store.Len() > 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(store.Len(), ShouldEqual, 0)
		})

		Convey("Then Close is idempotent", func() {
			So(store.Close(), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
		})
	})
}
