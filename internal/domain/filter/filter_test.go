package filter_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/tripbuddy/internal/domain/filter"
	"github.com/okian/tripbuddy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func jan(day int) model.Date { return model.NewDate(2026, time.January, day) }

func candidate(id string, level int, resorts []string, from, to int) model.CandidateProfile {
	c := model.CandidateProfile{
		UserID:      id,
		SkillLevel:  level,
		OptedIn:     true,
		Preferences: model.MatchingPreference{PreferredResorts: resorts},
	}
	if from > 0 {
		c.Trips = []model.Trip{{ID: id + "-trip", UserID: id, Range: model.DateRange{Start: jan(from), End: jan(to)}}}
	}
	return c
}

func ids(cs []model.CandidateProfile) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.UserID)
	}
	return out
}

type staticBlockList struct {
	ids []string
	err error
}

func (s staticBlockList) Blocked(context.Context, string) ([]string, error) { return s.ids, s.err }

func TestFilter_Apply(t *testing.T) {
	Convey("Given a seeker looking for a week in Whistler", t, func() {
		ctx := context.Background()
		seeker := model.NewSeeker(
			model.CandidateProfile{UserID: "seeker", SkillLevel: 5},
			model.MatchingPreference{
				SkillLevelMin:    4,
				SkillLevelMax:    6,
				PreferredResorts: []string{"whistler"},
				Availability:     []model.Date{jan(1), jan(7)},
			},
		)
		catalog := model.ResortCatalog{"whistler": "bc", "revelstoke": "bc", "niseko": "hokkaido"}
		f := filter.New()

		Convey("When the pool is empty", func() {
			out, steps := f.Apply(ctx, seeker, nil, catalog)

			Convey("Then the result is empty but not nil", func() {
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
				So(steps, ShouldHaveLength, 6)
			})
		})

		Convey("When the pool mixes compatible and incompatible users", func() {
			optedOut := candidate("opted-out", 5, []string{"whistler"}, 2, 4)
			optedOut.OptedIn = false
			pool := []model.CandidateProfile{
				candidate("seeker", 5, []string{"whistler"}, 1, 7),
				candidate("b", 5, []string{"whistler"}, 3, 5),
				optedOut,
				candidate("too-good", 9, []string{"whistler"}, 3, 5),
				candidate("elsewhere", 5, []string{"niseko"}, 3, 5),
				candidate("same-region", 6, []string{"revelstoke"}, 6, 9),
				candidate("later", 4, []string{"whistler"}, 10, 12),
				candidate("anywhere", 4, nil, 2, 2),
				candidate("no-dates", 5, []string{"whistler"}, 0, 0),
			}

			out, steps := f.Apply(ctx, seeker, pool, catalog)

			Convey("Then only compatible users remain in pool order", func() {
				So(ids(out), ShouldResemble, []string{"b", "same-region", "anywhere"})
			})

			Convey("Then each rule reports its drops", func() {
				names := make([]string, 0, len(steps))
				for _, s := range steps {
					names = append(names, s.Name)
				}
				So(names, ShouldResemble, []string{"self", "opted_in", "skill", "location", "time", "block_list"})
				So(steps[0].Dropped, ShouldEqual, 1)
				So(steps[1].Dropped, ShouldEqual, 1)
				So(steps[2].Dropped, ShouldEqual, 1)
				So(steps[3].Dropped, ShouldEqual, 1)
				So(steps[4].Dropped, ShouldEqual, 2)
				So(steps[5].Left, ShouldEqual, 3)
			})

			Convey("Then the input pool is untouched", func() {
				So(pool[0].UserID, ShouldEqual, "seeker")
				So(pool, ShouldHaveLength, 9)
			})
		})

		Convey("When the seeker has no location preference", func() {
			open := model.NewSeeker(seeker.Profile, model.MatchingPreference{SkillLevelMin: 1, SkillLevelMax: 10})
			out, _ := f.Apply(ctx, open, []model.CandidateProfile{candidate("far", 5, []string{"niseko"}, 3, 4)}, catalog)

			Convey("Then location and time are wildcards", func() {
				So(ids(out), ShouldResemble, []string{"far"})
			})
		})

		Convey("When a block list is installed", func() {
			blocked := filter.New(filter.WithBlockList(staticBlockList{ids: []string{"b"}}))
			out, _ := blocked.Apply(ctx, seeker, []model.CandidateProfile{candidate("b", 5, []string{"whistler"}, 3, 5)}, catalog)

			Convey("Then blocked users are excluded", func() {
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When the block list fails", func() {
			failing := filter.New(filter.WithBlockList(staticBlockList{err: errors.New("down")}))
			out, _ := failing.Apply(ctx, seeker, []model.CandidateProfile{candidate("b", 5, []string{"whistler"}, 3, 5)}, catalog)

			Convey("Then nobody is blocked", func() {
				So(ids(out), ShouldResemble, []string{"b"})
			})
		})
	})
}

func TestSkillStrategy(t *testing.T) {
	Convey("Given a level 5 seeker asking for levels 2 to 3", t, func() {
		seeker := model.NewSeeker(
			model.CandidateProfile{UserID: "s", SkillLevel: 5},
			model.MatchingPreference{SkillLevelMin: 2, SkillLevelMax: 3},
		)

		Convey("Then the range strategy follows the requested range", func() {
			So(filter.SkillRange.Compatible(seeker, model.CandidateProfile{SkillLevel: 3}), ShouldBeTrue)
			So(filter.SkillRange.Compatible(seeker, model.CandidateProfile{SkillLevel: 6}), ShouldBeFalse)
		})

		Convey("Then the delta strategy follows the seeker's own level", func() {
			So(filter.SkillDelta.Compatible(seeker, model.CandidateProfile{SkillLevel: 6}), ShouldBeTrue)
			So(filter.SkillDelta.Compatible(seeker, model.CandidateProfile{SkillLevel: 4}), ShouldBeTrue)
			So(filter.SkillDelta.Compatible(seeker, model.CandidateProfile{SkillLevel: 3}), ShouldBeFalse)
		})

		Convey("Then delta applies through the filter option", func() {
			f := filter.New(filter.WithSkillStrategy(filter.SkillDelta))
			out, _ := f.Apply(context.Background(), seeker, []model.CandidateProfile{
				{UserID: "a", SkillLevel: 6, OptedIn: true},
				{UserID: "b", SkillLevel: 2, OptedIn: true},
			}, nil)
			So(ids(out), ShouldResemble, []string{"a"})
		})
	})

	Convey("Strategy names parse case-insensitively", t, func() {
		s, err := filter.ParseSkillStrategy(" Delta ")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, filter.SkillDelta)

		s, err = filter.ParseSkillStrategy("")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, filter.SkillRange)

		_, err = filter.ParseSkillStrategy("vibes")
		So(errors.Is(err, filter.ErrUnknownStrategy), ShouldBeTrue)
	})
}

func TestSkillStrategy_AllLevels(t *testing.T) {
	Convey("Given every requested range and every pair of levels", t, func() {
		var mismatches []string
		for lo := model.MinSkillLevel; lo <= model.MaxSkillLevel; lo++ {
			for hi := lo; hi <= model.MaxSkillLevel; hi++ {
				for own := model.MinSkillLevel; own <= model.MaxSkillLevel; own++ {
					seeker := model.NewSeeker(
						model.CandidateProfile{UserID: "s", SkillLevel: own},
						model.MatchingPreference{SkillLevelMin: lo, SkillLevelMax: hi},
					)
					for level := model.MinSkillLevel; level <= model.MaxSkillLevel; level++ {
						c := model.CandidateProfile{SkillLevel: level}
						if got, want := filter.SkillRange.Compatible(seeker, c), lo <= level && level <= hi; got != want {
							mismatches = append(mismatches, fmt.Sprintf("range [%d,%d] level %d: got %v", lo, hi, level, got))
						}
						delta := own - level
						if delta < 0 {
							delta = -delta
						}
						if got, want := filter.SkillDelta.Compatible(seeker, c), delta <= 1; got != want {
							mismatches = append(mismatches, fmt.Sprintf("delta own %d level %d: got %v", own, level, got))
						}
					}
				}
			}
		}

		Convey("Then range follows the request and delta the seeker's level", func() {
			So(mismatches, ShouldBeEmpty)
		})
	})
}
