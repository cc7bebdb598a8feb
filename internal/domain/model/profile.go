package model

// CandidateProfile is a user as seen by the matching engine.
type CandidateProfile struct {
	UserID      string             `json:"user_id"`
	Nickname    string             `json:"nickname"`
	SkillLevel  int                `json:"skill_level"`
	Role        Role               `json:"self_role"`
	OptedIn     bool               `json:"opted_in"`
	Preferences MatchingPreference `json:"preferences"`
	Trips       []Trip             `json:"trips,omitempty"`
}

// EffectiveTrips returns the user's trips. A user without trips but with
// availability dates gets one trip spanning those dates at the first
// preferred resort.
func (c CandidateProfile) EffectiveTrips() []Trip {
	if len(c.Trips) > 0 {
		return c.Trips
	}
	span := SpanOf(c.Preferences.Availability)
	if span.IsZero() {
		return nil
	}
	var resort string
	if len(c.Preferences.PreferredResorts) > 0 {
		resort = c.Preferences.PreferredResorts[0]
	}
	return []Trip{{ID: "availability", UserID: c.UserID, ResortID: resort, Range: span}}
}

// Seeker is the user running a search combined with the request preferences.
type Seeker struct {
	Profile     CandidateProfile
	Preferences MatchingPreference
	// Trip is the seeker's reference trip. A zero Range means no time window.
	Trip Trip
}

// NewSeeker derives the seeker's reference trip. The window comes from the
// requested availability, otherwise from the seeker's first own trip. The
// resort is the first preferred resort, otherwise the trip's resort. Scoring
// treats every preferred resort as the seeker's.
// An unknown profile gets the midpoint of the requested skill range.
func NewSeeker(profile CandidateProfile, prefs MatchingPreference) Seeker {
	prefs = prefs.Normalize()
	if profile.SkillLevel == 0 {
		profile.SkillLevel = (prefs.SkillLevelMin + prefs.SkillLevelMax) / 2
	}
	trip := Trip{ID: "request", UserID: profile.UserID, Range: SpanOf(prefs.Availability)}
	if trip.Range.IsZero() && len(profile.Trips) > 0 {
		trip = profile.Trips[0]
	}
	if len(prefs.PreferredResorts) > 0 {
		trip.ResortID = prefs.PreferredResorts[0]
	}
	return Seeker{Profile: profile, Preferences: prefs, Trip: trip}
}

// HasWindow reports whether the seeker constrains dates.
func (s Seeker) HasWindow() bool {
	return s.Trip.Range.Days() > 0
}
