package skills

import (
	"context"
	"sort"

	"github.com/okian/tripbuddy/internal/domain/model"
)

const (
	maxRecentLessons = 10
	trendBand        = 0.05

	focusPrimaryWeight = 0.4
	focusLessonWeight  = 0.3
	focusTrendWeight   = 0.3
)

// Focus derives the user's learning focus from the lookback window.
func (a *Analyzer) Focus(ctx context.Context, userID string) (model.LearningFocus, error) {
	if userID == "" {
		return model.LearningFocus{}, ErrEmptyUserID
	}
	events, err := a.recentEvents(ctx, userID)
	if err != nil {
		return model.LearningFocus{}, err
	}
	return a.BuildFocus(userID, events), nil
}

// BuildFocus summarizes events, which must be ordered newest first.
//
// The primary skill is the component with the largest total lesson weight
// and focus strength is that component's share of all weight. Each
// component's trend compares the mean rating of its newer half of events
// against the older half.
func (a *Analyzer) BuildFocus(userID string, events []model.PracticeEvent) model.LearningFocus {
	f := model.LearningFocus{
		UserID:     userID,
		SkillTrend: make(map[model.SkillComponent]model.Trend, len(model.SkillComponents)),
	}

	var totals [5]float64
	ratings := make([][]float64, len(model.SkillComponents)) // oldest first
	seen := make(map[string]struct{})
	for _, e := range events {
		if _, ok := seen[e.LessonID]; !ok && e.LessonID != "" && len(f.RecentLessonIDs) < maxRecentLessons {
			seen[e.LessonID] = struct{}{}
			f.RecentLessonIDs = append(f.RecentLessonIDs, e.LessonID)
		}
	}
	for i := len(events) - 1; i >= 0; i-- {
		w := a.lessons.Lookup(events[i].LessonID)
		r := events[i].NormalizedRating()
		for c, comp := range model.SkillComponents {
			if weight := w[comp]; weight > 0 {
				totals[c] += weight
				ratings[c] = append(ratings[c], r)
			}
		}
	}

	var sum, best float64
	bestIdx := -1
	for i, t := range totals {
		sum += t
		if t > best {
			best, bestIdx = t, i
		}
	}
	if bestIdx >= 0 && sum > 0 {
		f.PrimarySkill = model.SkillComponents[bestIdx]
		f.FocusStrength = model.Clamp01(best / sum)
	}
	for i, comp := range model.SkillComponents {
		f.SkillTrend[comp] = trendOf(ratings[i])
	}
	return f
}

func trendOf(chronological []float64) model.Trend {
	n := len(chronological)
	if n < 2 {
		return model.TrendStable
	}
	older, newer := chronological[:n/2], chronological[n/2:]
	diff := mean(newer) - mean(older)
	switch {
	case diff > trendBand:
		return model.TrendImproving
	case diff < -trendBand:
		return model.TrendDeclining
	}
	return model.TrendStable
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

// FocusSimilarity compares two learning foci in [0,1]: 40% for the same
// primary skill, 30% for the Jaccard overlap of recent lessons and 30% for
// the share of components trending the same way.
func FocusSimilarity(a, b model.LearningFocus) float64 {
	var score float64
	if a.PrimarySkill != "" && a.PrimarySkill == b.PrimarySkill {
		score += focusPrimaryWeight
	}
	score += focusLessonWeight * jaccard(a.RecentLessonIDs, b.RecentLessonIDs)

	same := 0
	for _, c := range model.SkillComponents {
		if trendLabel(a, c) == trendLabel(b, c) {
			same++
		}
	}
	score += focusTrendWeight * float64(same) / float64(len(model.SkillComponents))
	return model.Clamp01(score)
}

func trendLabel(f model.LearningFocus, c model.SkillComponent) model.Trend {
	if t, ok := f.SkillTrend[c]; ok && t != "" {
		return t
	}
	return model.TrendStable
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for k := range set {
		union[k] = struct{}{}
	}
	inter := 0
	for _, v := range dedupe(b) {
		if _, ok := set[v]; ok {
			inter++
		}
		union[v] = struct{}{}
	}
	return float64(inter) / float64(len(union))
}

func dedupe(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}
