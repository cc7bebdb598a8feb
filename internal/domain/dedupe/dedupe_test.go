package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/tripbuddy/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a search id is recorded", func() {
			seen := d.SeenAndRecord(ctx, "search-1")

			Convey("Then the first call reports it as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then later calls report it as seen", func() {
				So(d.SeenAndRecord(ctx, "search-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then unrecording allows it again", func() {
				d.Unrecord(ctx, "search-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "search-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"s1", "s2", "s3", "s4"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("Then the oldest id is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "s4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "s3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "s2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "s1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("Then an unrecorded id frees its slot", func() {
			d.Unrecord(ctx, "s3")
			So(d.SeenAndRecord(ctx, "s5"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "s2"), ShouldBeTrue)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("s-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "s-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same ids", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 10

		var wg sync.WaitGroup
		var mu sync.Mutex
		firsts := 0
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("s-%d", j)) {
						mu.Lock()
						firsts++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is new exactly once", func() {
			So(firsts, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
