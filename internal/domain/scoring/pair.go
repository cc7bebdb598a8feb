package scoring

import (
	"strings"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/skills"
)

// Signals are the optional per-user extras gathered by the pipeline.
type Signals struct {
	Knowledge *float64
	Vector    *model.SkillVector
	Focus     *model.LearningFocus
}

// Candidate is a filtered profile plus what is known about its relation to the seeker.
type Candidate struct {
	Profile model.CandidateProfile
	Follow  FollowRelation
	Signals Signals
}

// Input is everything a model needs to rank one search.
type Input struct {
	Seeker        model.Seeker
	SeekerSignals Signals
	Catalog       model.ResortCatalog
	Candidates    []Candidate
}

// pair holds the raw per-dimension facts for one seeker/candidate pair.
// Models scale these; reasons read them.
type pair struct {
	seekerTrip    model.Trip
	candidateTrip model.Trip
	overlapDays   int
	sameDates     bool
	time          float64 // [0,1]
	location      float64 // 1 same resort, 0.5 same region
	availability  float64
	sharedDays    int
	skillDelta    int
	inRange       bool
	role          float64
	wants         model.Role
	has           model.Role
	follow        FollowRelation

	knowledge       float64
	hasKnowledge    bool
	vectorSim       float64
	hasVectors      bool
	focusSim        float64
	hasFocus        bool
	knowledgeSignal float64
}

// evaluatePair is swapped in tests to count evaluations.
var evaluatePair = evaluate

func evaluate(in Input, c Candidate) pair {
	s := in.Seeker
	p := pair{
		seekerTrip: s.Trip,
		wants:      s.Preferences.SeekingRole,
		has:        c.Profile.Role,
		follow:     c.Follow,
		skillDelta: skillDelta(s.Profile.SkillLevel, c.Profile.SkillLevel),
		inRange:    SkillInRange(c.Profile.SkillLevel, s.Preferences.SkillLevelMin, s.Preferences.SkillLevelMax) == 1,
	}
	if p.wants == "" {
		p.wants = model.RoleBuddy
	}

	p.candidateTrip = bestTrip(s.Trip, s.Preferences.PreferredResorts, c.Profile)
	p.overlapDays = s.Trip.Range.Overlap(p.candidateTrip.Range)
	p.sameDates = p.overlapDays > 0 && s.Trip.Range.Equal(p.candidateTrip.Range)
	p.time = TimeOverlap(s.Trip.Range, p.candidateTrip.Range, 1)

	// Any resort the seeker asked for counts as the seeker's resort.
	if containsFold(s.Preferences.PreferredResorts, p.candidateTrip.ResortID) {
		p.seekerTrip.ResortID = p.candidateTrip.ResortID
	}

	cp := c.Profile.Preferences.Normalize()
	p.location = Location(
		p.seekerTrip.ResortID, p.candidateTrip.ResortID,
		in.Catalog.Regions(appendResort(s.Preferences.PreferredResorts, s.Trip.ResortID), s.Preferences.PreferredRegions),
		in.Catalog.Regions(appendResort(cp.PreferredResorts, p.candidateTrip.ResortID), cp.PreferredRegions),
		1,
	)

	p.availability = Availability(s.Preferences.Availability, cp.Availability)
	p.sharedDays = sharedDates(s.Preferences.Availability, cp.Availability)
	p.role = Role(p.wants, p.has, 1)

	p.knowledge = Knowledge(in.SeekerSignals.Knowledge, c.Signals.Knowledge)
	p.hasKnowledge = in.SeekerSignals.Knowledge != nil && c.Signals.Knowledge != nil
	values := []float64{p.knowledge}
	if sv, cv := in.SeekerSignals.Vector, c.Signals.Vector; sv != nil && cv != nil {
		p.vectorSim, p.hasVectors = skills.Similarity(*sv, *cv), true
		values = append(values, p.vectorSim)
	}
	if sf, cf := in.SeekerSignals.Focus, c.Signals.Focus; sf != nil && cf != nil {
		p.focusSim, p.hasFocus = skills.FocusSimilarity(*sf, *cf), true
		values = append(values, p.focusSim)
	}
	p.knowledgeSignal = mean(values)
	return p
}

// bestTrip picks the candidate trip with the most overlap with the seeker's
// trip, preferring one at a resort the seeker asked for on ties. A candidate
// without booked trips travels to a preferred resort shared with the seeker
// when there is one, otherwise to its first preferred resort.
func bestTrip(seeker model.Trip, preferred []string, c model.CandidateProfile) model.Trip {
	if len(c.Trips) == 0 {
		t := model.Trip{UserID: c.UserID}
		if derived := c.EffectiveTrips(); len(derived) > 0 {
			t = derived[0]
		}
		resorts := c.Preferences.Normalize().PreferredResorts
		t.ResortID = ""
		for _, r := range resorts {
			if containsFold(preferred, r) {
				t.ResortID = r
				break
			}
		}
		if t.ResortID == "" && len(resorts) > 0 {
			t.ResortID = resorts[0]
		}
		return t
	}
	trips := c.Trips
	best := trips[0]
	bestDays, bestPreferred := seeker.Range.Overlap(best.Range), containsFold(preferred, best.ResortID)
	for _, t := range trips[1:] {
		d, at := seeker.Range.Overlap(t.Range), containsFold(preferred, t.ResortID)
		if d > bestDays || (d == bestDays && at && !bestPreferred) {
			best, bestDays, bestPreferred = t, d, at
		}
	}
	return best
}

func containsFold(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func appendResort(resorts []string, resort string) []string {
	if resort == "" {
		return resorts
	}
	return append(append([]string(nil), resorts...), resort)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
