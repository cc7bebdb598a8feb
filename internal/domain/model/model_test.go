package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func jan(day int) model.Date { return model.NewDate(2026, time.January, day) }

func TestDateRange(t *testing.T) {
	Convey("Given two January ranges", t, func() {
		a := model.DateRange{Start: jan(1), End: jan(5)}
		b := model.DateRange{Start: jan(3), End: jan(7)}

		Convey("Then lengths are inclusive", func() {
			So(a.Days(), ShouldEqual, 5)
			So(b.Days(), ShouldEqual, 5)
		})

		Convey("Then the overlap counts shared days on both sides", func() {
			So(a.Overlap(b), ShouldEqual, 3)
			So(b.Overlap(a), ShouldEqual, 3)
			So(a.Intersects(b), ShouldBeTrue)
		})

		Convey("When the ranges are disjoint", func() {
			c := model.DateRange{Start: jan(10), End: jan(12)}
			So(a.Overlap(c), ShouldEqual, 0)
			So(a.Intersects(c), ShouldBeFalse)
		})

		Convey("When a range is inverted or unset", func() {
			inv := model.DateRange{Start: jan(5), End: jan(1)}
			So(inv.Days(), ShouldEqual, 0)
			So(model.DateRange{}.Days(), ShouldEqual, 0)
			So(a.Overlap(model.DateRange{}), ShouldEqual, 0)
		})
	})
}

func TestDateJSON(t *testing.T) {
	Convey("Given a date", t, func() {
		d := jan(9)

		Convey("Then it round-trips as YYYY-MM-DD", func() {
			b, err := json.Marshal(d)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"2026-01-09"`)

			var back model.Date
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back.Equal(d.Time), ShouldBeTrue)
		})

		Convey("Then malformed input is rejected", func() {
			var back model.Date
			So(json.Unmarshal([]byte(`"09/01/2026"`), &back), ShouldNotBeNil)
		})
	})
}

func TestMatchingPreference_Validate(t *testing.T) {
	Convey("Given preference bounds", t, func() {
		valid := model.MatchingPreference{SkillLevelMin: 3, SkillLevelMax: 6}

		Convey("Then a sane range passes", func() {
			So(valid.Validate(), ShouldBeNil)
		})

		Convey("Then min greater than max is a validation error", func() {
			p := valid
			p.SkillLevelMin = 7
			err := p.Validate()
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			var ve *model.ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)
			So(ve.Field, ShouldEqual, "skill_level_min")
		})

		Convey("Then out-of-scale levels are rejected", func() {
			p := valid
			p.SkillLevelMax = 11
			So(p.Validate(), ShouldNotBeNil)
			p = valid
			p.SkillLevelMin = 0
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("Then unknown roles are rejected", func() {
			p := valid
			p.SeekingRole = "captain"
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("Then InSkillRange is inclusive at both ends", func() {
			for level := model.MinSkillLevel; level <= model.MaxSkillLevel; level++ {
				So(valid.InSkillRange(level), ShouldEqual, level >= 3 && level <= 6)
			}
		})
	})
}

func TestMatchingPreference_Normalize(t *testing.T) {
	Convey("Given a preference with duplicate and mixed-case entries", t, func() {
		p := model.MatchingPreference{
			PreferredResorts: []string{"Niseko", "niseko ", "hakuba"},
			Availability:     []model.Date{jan(3), jan(1), jan(3)},
		}

		n := p.Normalize()

		Convey("Then sets are deduplicated and sorted", func() {
			So(n.PreferredResorts, ShouldResemble, []string{"hakuba", "niseko"})
			So(len(n.Availability), ShouldEqual, 2)
			So(n.Availability[0].Equal(jan(1).Time), ShouldBeTrue)
		})

		Convey("Then the seeking role defaults to buddy", func() {
			So(n.SeekingRole, ShouldEqual, model.RoleBuddy)
		})
	})
}

func TestNewSeeker(t *testing.T) {
	Convey("Given a seeker profile", t, func() {
		profile := model.CandidateProfile{
			UserID:     "u1",
			SkillLevel: 5,
			Trips: []model.Trip{{
				ID: "t1", UserID: "u1", ResortID: "hakuba",
				Range: model.DateRange{Start: jan(20), End: jan(22)},
			}},
		}

		Convey("When availability is requested", func() {
			s := model.NewSeeker(profile, model.MatchingPreference{
				SkillLevelMin: 1, SkillLevelMax: 10,
				PreferredResorts: []string{"niseko"},
				Availability:     []model.Date{jan(5), jan(1), jan(3)},
			})
			Convey("Then the window spans the requested dates", func() {
				So(s.HasWindow(), ShouldBeTrue)
				So(s.Trip.Range.Days(), ShouldEqual, 5)
				So(s.Trip.ResortID, ShouldEqual, "niseko")
			})
		})

		Convey("When no availability is requested", func() {
			s := model.NewSeeker(profile, model.MatchingPreference{SkillLevelMin: 1, SkillLevelMax: 10})
			Convey("Then the first own trip is used", func() {
				So(s.Trip.ID, ShouldEqual, "t1")
				So(s.Trip.ResortID, ShouldEqual, "hakuba")
			})
		})

		Convey("When the profile is unknown", func() {
			s := model.NewSeeker(model.CandidateProfile{UserID: "ghost"}, model.MatchingPreference{SkillLevelMin: 4, SkillLevelMax: 8})
			Convey("Then the skill level is the midpoint of the range", func() {
				So(s.Profile.SkillLevel, ShouldEqual, 6)
				So(s.HasWindow(), ShouldBeFalse)
			})
		})
	})
}

func TestCandidateProfile_EffectiveTrips(t *testing.T) {
	Convey("Given a profile with only availability", t, func() {
		c := model.CandidateProfile{
			UserID: "u2",
			Preferences: model.MatchingPreference{
				PreferredResorts: []string{"niseko"},
				Availability:     []model.Date{jan(4), jan(2)},
			},
		}
		trips := c.EffectiveTrips()
		So(len(trips), ShouldEqual, 1)
		So(trips[0].Range.Days(), ShouldEqual, 3)
		So(trips[0].ResortID, ShouldEqual, "niseko")
	})

	Convey("Given a profile with neither trips nor availability", t, func() {
		So(model.CandidateProfile{UserID: "u3"}.EffectiveTrips(), ShouldBeEmpty)
	})
}

func TestPracticeEvent_NormalizedRating(t *testing.T) {
	Convey("Given practice events", t, func() {
		r := 4.0
		So(model.PracticeEvent{Rating: &r}.NormalizedRating(), ShouldAlmostEqual, 0.8)
		So(model.PracticeEvent{}.NormalizedRating(), ShouldAlmostEqual, 0.6)
		high := 9.0
		So(model.PracticeEvent{Rating: &high}.NormalizedRating(), ShouldEqual, 1.0)
	})
}

func TestDimensionScores_Sum(t *testing.T) {
	Convey("Given dimension scores", t, func() {
		d := model.DimensionScores{Time: 24, Location: 30, Skill: 15, Social: 5}
		So(d.Sum(), ShouldEqual, 74.0)
	})
}

func TestResortCatalog(t *testing.T) {
	Convey("Given a resort catalog", t, func() {
		catalog := model.ResortCatalog{"whistler": "bc", "revelstoke": "bc", "niseko": "hokkaido"}

		Convey("Then resort regions are merged with explicit ones", func() {
			So(catalog.Regions([]string{"Whistler", "niseko", "unknown"}, []string{"alps"}),
				ShouldResemble, []string{"alps", "bc", "hokkaido"})
		})

		Convey("Then unknown resorts have no region", func() {
			_, ok := catalog.Region("zermatt")
			So(ok, ShouldBeFalse)
		})
	})
}
