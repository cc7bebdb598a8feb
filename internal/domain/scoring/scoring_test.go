package scoring_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func jan(day int) model.Date { return model.NewDate(2026, time.January, day) }

func span(from, to int) model.DateRange { return model.DateRange{Start: jan(from), End: jan(to)} }

func seekerAt(resort string, from, to int) model.Seeker {
	return model.NewSeeker(
		model.CandidateProfile{UserID: "seeker", SkillLevel: 5},
		model.MatchingPreference{
			SkillLevelMin:    1,
			SkillLevelMax:    10,
			PreferredResorts: []string{resort},
			Availability:     []model.Date{jan(from), jan(to)},
		},
	)
}

func buddy(id, resort string, level, from, to int) scoring.Candidate {
	return scoring.Candidate{Profile: model.CandidateProfile{
		UserID:     id,
		SkillLevel: level,
		Role:       model.RoleBuddy,
		OptedIn:    true,
		Preferences: model.MatchingPreference{
			PreferredResorts: []string{resort},
			Availability:     []model.Date{jan(from), jan(to)},
		},
		Trips: []model.Trip{{ID: id + "-t", UserID: id, ResortID: resort, Range: span(from, to)}},
	}}
}

func TestDimensionScorers(t *testing.T) {
	Convey("Time overlap", t, func() {
		So(scoring.TimeOverlap(span(1, 5), span(1, 5), 40), ShouldEqual, 40)
		So(scoring.TimeOverlap(span(1, 5), span(3, 7), 40), ShouldAlmostEqual, 24, tolerance)
		So(scoring.TimeOverlap(span(1, 5), span(6, 9), 40), ShouldEqual, 0)
		So(scoring.TimeOverlap(model.DateRange{}, span(1, 5), 40), ShouldEqual, 0)
		So(scoring.TimeOverlap(span(1, 10), span(2, 3), 1), ShouldBeLessThanOrEqualTo, 1)
	})

	Convey("Location", t, func() {
		So(scoring.Location("niseko", "NISEKO", nil, nil, 30), ShouldEqual, 30)
		So(scoring.Location("niseko", "rusutsu", []string{"hokkaido"}, []string{"hokkaido"}, 30), ShouldEqual, 15)
		So(scoring.Location("niseko", "whistler", []string{"hokkaido"}, []string{"bc"}, 30), ShouldEqual, 0)
		So(scoring.Location("", "", nil, nil, 30), ShouldEqual, 0)
	})

	Convey("Skill", t, func() {
		So(scoring.SkillPercentage(5, 5, 20), ShouldEqual, 20)
		So(scoring.SkillPercentage(5, 6, 20), ShouldEqual, 15)
		So(scoring.SkillPercentage(5, 3, 20), ShouldEqual, 5)
		So(scoring.SkillPercentage(1, 10, 20), ShouldEqual, 5)
		So(scoring.SkillInRange(4, 3, 5), ShouldEqual, 1)
		So(scoring.SkillInRange(6, 3, 5), ShouldEqual, 0)
	})

	Convey("Role", t, func() {
		So(scoring.Role(model.RoleStudent, model.RoleStudent, 1), ShouldEqual, 1)
		So(scoring.Role(model.RoleBuddy, model.RoleCoach, 1), ShouldAlmostEqual, 0.8, tolerance)
		So(scoring.Role(model.RoleCoach, model.RoleBuddy, 1), ShouldAlmostEqual, 0.1, tolerance)
	})

	Convey("Social", t, func() {
		So(scoring.Social(scoring.Relation(true, true), 10), ShouldEqual, 10)
		So(scoring.Social(scoring.Relation(true, false), 10), ShouldEqual, 5)
		So(scoring.Social(scoring.Relation(false, true), 10), ShouldEqual, 5)
		So(scoring.Social(scoring.Relation(false, false), 10), ShouldEqual, 0)
	})

	Convey("Knowledge", t, func() {
		a, b, c := 80.0, 60.0, 500.0
		So(scoring.Knowledge(nil, &a), ShouldEqual, 0.5)
		So(scoring.Knowledge(&a, &b), ShouldAlmostEqual, 0.8, tolerance)
		So(scoring.Knowledge(&a, &c), ShouldEqual, 0)
	})

	Convey("Availability", t, func() {
		So(scoring.Availability(nil, []model.Date{jan(1)}), ShouldEqual, 0.5)
		So(scoring.Availability([]model.Date{jan(1), jan(2)}, []model.Date{jan(2), jan(3), jan(4)}), ShouldEqual, 0.5)
		So(scoring.Availability([]model.Date{jan(1)}, []model.Date{jan(1), jan(1)}), ShouldEqual, 1)
		So(scoring.Availability([]model.Date{jan(1)}, []model.Date{jan(9)}), ShouldEqual, 0)
	})
}

func TestPercentageModel(t *testing.T) {
	Convey("Given the percentage model", t, func() {
		m := scoring.NewPercentageModel()

		Convey("When trips are identical", func() {
			in := scoring.Input{Seeker: seekerAt("niseko", 1, 5)}
			s := m.Score(in, buddy("c", "niseko", 5, 1, 5))

			Convey("Then time and location are at their maxima", func() {
				So(s.Time, ShouldEqual, 40)
				So(s.Location, ShouldEqual, 30)
				So(s.Skill, ShouldEqual, 20)
				So(s.Social, ShouldEqual, 0)
			})
		})

		Convey("When trips partially overlap at the same resort", func() {
			in := scoring.Input{Seeker: seekerAt("niseko", 1, 5)}
			s := m.Score(in, buddy("c", "niseko", 6, 3, 7))

			So(s.Time, ShouldAlmostEqual, 24, tolerance)
			So(s.Location, ShouldEqual, 30)
			So(s.Skill, ShouldEqual, 15)
		})

		Convey("When the candidate follows back", func() {
			c := buddy("c", "niseko", 5, 1, 5)
			c.Follow = scoring.FollowMutual
			s := m.Score(scoring.Input{Seeker: seekerAt("niseko", 1, 5)}, c)

			So(s.Social, ShouldEqual, 10)
			So(s.Sum(), ShouldEqual, 100)
		})

		Convey("Then inclusion requires exceeding the threshold", func() {
			So(m.Include(20), ShouldBeFalse)
			So(m.Include(20.5), ShouldBeTrue)
		})
	})
}

func TestNormalizedModel(t *testing.T) {
	Convey("Given the normalized model", t, func() {
		m := scoring.NewNormalizedModel()
		So(m.Validate(), ShouldBeNil)
		c := buddy("c", "niseko", 5, 1, 5)

		Convey("When everything lines up", func() {
			s := m.Score(scoring.Input{Seeker: seekerAt("niseko", 1, 5)}, c)

			Convey("Then each sub-score is its weight", func() {
				So(s.Time, ShouldAlmostEqual, 0.4, tolerance)
				So(s.Location, ShouldAlmostEqual, 0.3, tolerance)
				So(s.Availability, ShouldAlmostEqual, 0.2, tolerance)
				So(s.Role, ShouldAlmostEqual, 0.1, tolerance)
				So(s.Knowledge, ShouldEqual, 0)
				So(s.Sum(), ShouldAlmostEqual, 1.0, tolerance)
			})
		})

		Convey("When knowledge scoring is requested without signals", func() {
			seeker := seekerAt("niseko", 1, 5)
			seeker.Preferences.IncludeKnowledgeScore = true
			s := m.Score(scoring.Input{Seeker: seeker}, c)

			Convey("Then base weights shrink and knowledge is neutral", func() {
				So(s.Time, ShouldAlmostEqual, 0.32, tolerance)
				So(s.Knowledge, ShouldAlmostEqual, 0.1, tolerance)
				So(s.Sum(), ShouldAlmostEqual, 0.9, tolerance)
			})
		})

		Convey("When both skill vectors are known", func() {
			seeker := seekerAt("niseko", 1, 5)
			seeker.Preferences.IncludeKnowledgeScore = true
			v := model.SkillVector{UserID: "seeker"}.WithValues([5]float64{0.5, 0.5, 0.5, 0.5, 0.5})
			cv := model.SkillVector{UserID: "c"}.WithValues([5]float64{0.2, 0.2, 0.2, 0.2, 0.2})
			c.Signals.Vector = &cv
			in := scoring.Input{Seeker: seeker, SeekerSignals: scoring.Signals{Vector: &v}}
			s := m.Score(in, c)

			Convey("Then the knowledge value averages neutral knowledge and cosine", func() {
				So(s.Knowledge, ShouldAlmostEqual, 0.2*0.75, tolerance)
				So(scoring.Reasons(in, c), ShouldContain, "similar riding style")
			})
		})

		Convey("When nothing lines up", func() {
			far := buddy("far", "whistler", 9, 20, 25)
			far.Profile.Role = model.RoleCoach
			s := m.Score(scoring.Input{Seeker: seekerAt("niseko", 1, 5)}, far)

			Convey("Then the pair is below the threshold", func() {
				So(m.Include(s.Sum()), ShouldBeFalse)
			})
		})

		Convey("Then bad weights are rejected", func() {
			bad := m
			bad.Weights.Time = 0.9
			So(errors.Is(bad.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			bad = m
			bad.KnowledgeWeight = 1
			So(errors.Is(bad.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
		})
	})

	Convey("Model names parse", t, func() {
		n, err := scoring.ParseModel("Percentage")
		So(err, ShouldBeNil)
		So(n, ShouldEqual, scoring.ModelPercentage)
		n, err = scoring.ParseModel("")
		So(err, ShouldBeNil)
		So(n, ShouldEqual, scoring.ModelNormalized)
		_, err = scoring.ParseModel("magic")
		So(errors.Is(err, scoring.ErrUnknownModel), ShouldBeTrue)
	})
}

func TestAggregator(t *testing.T) {
	Convey("Given a pool of candidates", t, func() {
		seeker := seekerAt("niseko", 1, 5)
		catalog := model.ResortCatalog{"niseko": "hokkaido", "rusutsu": "hokkaido", "whistler": "bc"}
		var candidates []scoring.Candidate
		for i := 0; i < 30; i++ {
			resort := []string{"niseko", "rusutsu", "whistler"}[i%3]
			from := 1 + i%9
			c := buddy(fmt.Sprintf("u%02d", i), resort, 1+i%10, from, from+i%4)
			c.Follow = scoring.FollowRelation(i % 3)
			candidates = append(candidates, c)
		}
		in := scoring.Input{Seeker: seeker, Catalog: catalog, Candidates: candidates}

		for _, m := range []scoring.Model{scoring.NewPercentageModel(), scoring.NewNormalizedModel()} {
			m := m
			upper := 100.0
			if m.Name() == scoring.ModelNormalized {
				upper = 1.0
			}

			Convey("When ranking with the "+m.Name()+" model", func() {
				out := scoring.NewAggregator(scoring.WithModel(m)).Aggregate(in)

				Convey("Then totals equal the sum of sub-scores and stay in bounds", func() {
					So(out, ShouldNotBeEmpty)
					for _, s := range out {
						So(s.TotalScore, ShouldEqual, s.Scores.Sum())
						So(s.TotalScore, ShouldBeBetweenOrEqual, 0, upper+tolerance)
						So(m.Include(s.TotalScore), ShouldBeTrue)
						So(s.Model, ShouldEqual, m.Name())
					}
				})

				Convey("Then results are sorted descending", func() {
					for i := 1; i < len(out); i++ {
						So(out[i-1].TotalScore, ShouldBeGreaterThanOrEqualTo, out[i].TotalScore)
					}
				})
			})
		}

		Convey("When two candidates tie", func() {
			in := scoring.Input{Seeker: seeker, Candidates: []scoring.Candidate{
				buddy("first", "niseko", 5, 1, 5),
				buddy("second", "niseko", 5, 1, 5),
			}}
			out := scoring.NewAggregator().Aggregate(in)

			Convey("Then pool order is kept", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].UserID, ShouldEqual, "first")
				So(out[1].UserID, ShouldEqual, "second")
			})

			Convey("Then reasons explain the match", func() {
				So(out[0].Reasons, ShouldResemble, []string{"same dates", "same resort", "shared availability", "same skill level", "role match"})
			})
		})

		Convey("When a limit is set", func() {
			out := scoring.NewAggregator(scoring.WithModel(scoring.NewPercentageModel()), scoring.WithLimit(3)).Aggregate(in)
			So(out, ShouldHaveLength, 3)
		})

		Convey("When there are no candidates", func() {
			out := scoring.NewAggregator().Aggregate(scoring.Input{Seeker: seeker})
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestReasons(t *testing.T) {
	Convey("Given a partially overlapping coach in the same region", t, func() {
		seeker := seekerAt("niseko", 1, 5)
		c := buddy("coach", "rusutsu", 6, 3, 7)
		c.Profile.Role = model.RoleCoach
		c.Follow = scoring.FollowOneWay
		in := scoring.Input{Seeker: seeker, Catalog: model.ResortCatalog{"niseko": "hokkaido", "rusutsu": "hokkaido"}}

		So(scoring.Reasons(in, c), ShouldResemble, []string{
			"overlapping dates (3 days)",
			"same region",
			"similar skill level",
			"coach available",
			"one-way follow",
		})
	})
}

func TestLocationAcrossPreferredResorts(t *testing.T) {
	Convey("Given a seeker who would ride at niseko or hakuba", t, func() {
		seeker := model.NewSeeker(
			model.CandidateProfile{UserID: "seeker", SkillLevel: 5},
			model.MatchingPreference{
				SkillLevelMin:    1,
				SkillLevelMax:    10,
				PreferredResorts: []string{"niseko", "hakuba"},
				Availability:     []model.Date{jan(1), jan(5)},
			},
		)
		catalog := model.ResortCatalog{"niseko": "hokkaido", "rusutsu": "hokkaido", "hakuba": "nagano"}
		in := scoring.Input{Seeker: seeker, Catalog: catalog}
		m := scoring.NewPercentageModel()

		Convey("When the candidate goes to niseko on the same dates", func() {
			c := buddy("c", "niseko", 5, 1, 5)
			s := m.Score(in, c)

			Convey("Then location is at its maximum", func() {
				So(s.Time, ShouldEqual, 40)
				So(s.Location, ShouldEqual, 30)
				So(scoring.Reasons(in, c), ShouldContain, "same resort")
			})
		})

		Convey("When the candidate goes to a neighbour of niseko", func() {
			s := m.Score(in, buddy("c", "rusutsu", 5, 1, 5))

			Convey("Then only the region matches", func() {
				So(s.Location, ShouldEqual, 15)
			})
		})

		Convey("When the candidate has equally long trips at two resorts", func() {
			c := buddy("c", "rusutsu", 5, 1, 5)
			c.Profile.Trips = append(c.Profile.Trips, model.Trip{ID: "c-t2", UserID: "c", ResortID: "hakuba", Range: span(1, 5)})
			s := m.Score(in, c)

			Convey("Then the trip at a requested resort is scored", func() {
				So(s.Location, ShouldEqual, 30)
			})
		})

		Convey("When the candidate has no trips but shares a resort", func() {
			c := buddy("c", "hakuba", 5, 1, 5)
			c.Profile.Trips = nil
			c.Profile.Preferences.PreferredResorts = []string{"appi", "hakuba"}
			s := m.Score(in, c)

			Convey("Then the shared resort is used", func() {
				So(s.Location, ShouldEqual, 30)
				So(s.Time, ShouldEqual, 40)
			})
		})
	})
}
