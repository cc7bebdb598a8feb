// Package fixture serves matching data from a YAML document. It backs local
// development and demos where no database is available.
package fixture

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/skills"
	"github.com/okian/tripbuddy/internal/matching"
)

type document struct {
	Resorts map[string]string `yaml:"resorts"`
	Users   []userDoc         `yaml:"users"`
	Follows []followDoc       `yaml:"follows"`
	Events  []eventDoc        `yaml:"events"`
}

type userDoc struct {
	ID             string    `yaml:"id"`
	Nickname       string    `yaml:"nickname"`
	SkillLevel     int       `yaml:"skill_level"`
	Role           string    `yaml:"self_role"`
	OptedIn        *bool     `yaml:"opted_in"`
	SkillLevelMin  int       `yaml:"skill_level_min"`
	SkillLevelMax  int       `yaml:"skill_level_max"`
	Resorts        []string  `yaml:"preferred_resorts"`
	Regions        []string  `yaml:"preferred_regions"`
	Availability   []string  `yaml:"availability"`
	Trips          []tripDoc `yaml:"trips"`
	KnowledgeScore *float64  `yaml:"knowledge_score"`
}

type tripDoc struct {
	ID     string `yaml:"id"`
	Resort string `yaml:"resort"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
}

type followDoc struct {
	Follower string `yaml:"follower"`
	Followee string `yaml:"followee"`
}

type eventDoc struct {
	UserID     string    `yaml:"user_id"`
	LessonID   string    `yaml:"lesson_id"`
	Rating     *float64  `yaml:"rating"`
	OccurredAt time.Time `yaml:"occurred_at"`
}

// Source is an immutable in-memory dataset.
type Source struct {
	catalog   model.ResortCatalog
	users     []model.CandidateProfile
	byID      map[string]int
	knowledge map[string]float64
	following map[string][]string
	followers map[string][]string
	events    map[string][]model.PracticeEvent
}

var (
	_ matching.CandidateSource = (*Source)(nil)
	_ matching.ResortCatalog   = (*Source)(nil)
	_ matching.FollowGraph     = (*Source)(nil)
	_ matching.KnowledgeSource = (*Source)(nil)
	_ skills.EventSource       = (*Source)(nil)
)

// Load reads a fixture file.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return src, nil
}

// Parse builds a Source from YAML bytes.
func Parse(data []byte) (*Source, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	s := &Source{
		catalog:   make(model.ResortCatalog, len(doc.Resorts)),
		byID:      make(map[string]int, len(doc.Users)),
		knowledge: make(map[string]float64),
		following: make(map[string][]string),
		followers: make(map[string][]string),
		events:    make(map[string][]model.PracticeEvent),
	}
	for id, region := range doc.Resorts {
		s.catalog[strings.ToLower(id)] = strings.ToLower(region)
	}
	for _, u := range doc.Users {
		p, err := u.profile()
		if err != nil {
			return nil, err
		}
		if _, dup := s.byID[p.UserID]; dup {
			return nil, fmt.Errorf("duplicate user %q", p.UserID)
		}
		s.byID[p.UserID] = len(s.users)
		s.users = append(s.users, p)
		if u.KnowledgeScore != nil {
			s.knowledge[p.UserID] = *u.KnowledgeScore
		}
	}
	for _, f := range doc.Follows {
		s.following[f.Follower] = append(s.following[f.Follower], f.Followee)
		s.followers[f.Followee] = append(s.followers[f.Followee], f.Follower)
	}
	for _, e := range doc.Events {
		s.events[e.UserID] = append(s.events[e.UserID], model.PracticeEvent{
			UserID:     e.UserID,
			LessonID:   e.LessonID,
			Rating:     e.Rating,
			OccurredAt: e.OccurredAt,
		})
	}
	for id := range s.events {
		evs := s.events[id]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].OccurredAt.After(evs[j].OccurredAt) })
	}
	return s, nil
}

func (u userDoc) profile() (model.CandidateProfile, error) {
	if u.ID == "" {
		return model.CandidateProfile{}, fmt.Errorf("user without id")
	}
	optedIn := true
	if u.OptedIn != nil {
		optedIn = *u.OptedIn
	}
	p := model.CandidateProfile{
		UserID:     u.ID,
		Nickname:   u.Nickname,
		SkillLevel: u.SkillLevel,
		Role:       model.Role(strings.ToLower(u.Role)),
		OptedIn:    optedIn,
		Preferences: model.MatchingPreference{
			SkillLevelMin:    u.SkillLevelMin,
			SkillLevelMax:    u.SkillLevelMax,
			PreferredResorts: u.Resorts,
			PreferredRegions: u.Regions,
		},
	}
	for _, raw := range u.Availability {
		d, err := model.ParseDate(raw)
		if err != nil {
			return p, fmt.Errorf("user %s availability: %w", u.ID, err)
		}
		p.Preferences.Availability = append(p.Preferences.Availability, d)
	}
	p.Preferences = p.Preferences.Normalize()
	for i, t := range u.Trips {
		start, err := model.ParseDate(t.Start)
		if err != nil {
			return p, fmt.Errorf("user %s trip %d start: %w", u.ID, i, err)
		}
		end, err := model.ParseDate(t.End)
		if err != nil {
			return p, fmt.Errorf("user %s trip %d end: %w", u.ID, i, err)
		}
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("%s-trip-%d", u.ID, i+1)
		}
		p.Trips = append(p.Trips, model.Trip{
			ID:       id,
			UserID:   u.ID,
			ResortID: strings.ToLower(t.Resort),
			Range:    model.DateRange{Start: start, End: end},
		})
	}
	return p, nil
}

// Profile returns one user.
func (s *Source) Profile(_ context.Context, userID string) (model.CandidateProfile, error) {
	i, ok := s.byID[userID]
	if !ok {
		return model.CandidateProfile{}, fmt.Errorf("%w: %s", matching.ErrUserNotFound, userID)
	}
	return s.users[i], nil
}

// Candidates returns every user in file order. Filtering is left to the
// matching pipeline.
func (s *Source) Candidates(_ context.Context, _ string) ([]model.CandidateProfile, error) {
	return append([]model.CandidateProfile(nil), s.users...), nil
}

// Resorts returns the catalog.
func (s *Source) Resorts(context.Context) (model.ResortCatalog, error) {
	out := make(model.ResortCatalog, len(s.catalog))
	for k, v := range s.catalog {
		out[k] = v
	}
	return out, nil
}

func (s *Source) Following(_ context.Context, userID string) ([]string, error) {
	return append([]string(nil), s.following[userID]...), nil
}

func (s *Source) Followers(_ context.Context, userID string) ([]string, error) {
	return append([]string(nil), s.followers[userID]...), nil
}

func (s *Source) KnowledgeScores(_ context.Context, userIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(userIDs))
	for _, id := range userIDs {
		if v, ok := s.knowledge[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// PracticeEvents returns events at or after since, newest first, capped at limit.
func (s *Source) PracticeEvents(_ context.Context, userID string, since time.Time, limit int) ([]model.PracticeEvent, error) {
	var out []model.PracticeEvent
	for _, e := range s.events[userID] {
		if e.OccurredAt.Before(since) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
