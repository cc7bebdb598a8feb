package skills

import (
	"sort"
	"strings"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// defaultLessonWeight applies to every component when a lesson is unknown.
const defaultLessonWeight = 0.5

// Weights maps each component to how strongly a lesson trains it.
type Weights map[model.SkillComponent]float64

// LessonTable resolves lesson ids to component weights.
type LessonTable struct {
	weights map[string]Weights
	keys    []string // longest first, then lexical
}

// NewLessonTable builds a table from lesson id -> weights. Keys are matched case-insensitively.
func NewLessonTable(table map[string]Weights) *LessonTable {
	t := &LessonTable{weights: make(map[string]Weights, len(table))}
	for k, w := range table {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		t.weights[key] = w
		t.keys = append(t.keys, key)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		if len(t.keys[i]) != len(t.keys[j]) {
			return len(t.keys[i]) > len(t.keys[j])
		}
		return t.keys[i] < t.keys[j]
	})
	return t
}

// Lookup returns the weights for a lesson: exact match first, then the
// longest known key contained in the id (or containing it), else a uniform
// default.
func (t *LessonTable) Lookup(lessonID string) Weights {
	id := strings.ToLower(strings.TrimSpace(lessonID))
	if w, ok := t.weights[id]; ok {
		return w
	}
	if id != "" {
		for _, key := range t.keys {
			if strings.Contains(id, key) || strings.Contains(key, id) {
				return t.weights[key]
			}
		}
	}
	return uniformWeights()
}

func uniformWeights() Weights {
	w := make(Weights, len(model.SkillComponents))
	for _, c := range model.SkillComponents {
		w[c] = defaultLessonWeight
	}
	return w
}

// DefaultLessonTable is the built-in curriculum mapping.
func DefaultLessonTable() *LessonTable {
	return NewLessonTable(map[string]Weights{
		"stance_basics":    {model.StanceBalance: 0.9, model.TimingCoordination: 0.3},
		"balance_drills":   {model.StanceBalance: 1.0, model.Pressure: 0.4},
		"linked_turns":     {model.Rotation: 0.8, model.Edging: 0.5, model.TimingCoordination: 0.6},
		"pivot_slips":      {model.Rotation: 1.0, model.StanceBalance: 0.3},
		"carving":          {model.Edging: 1.0, model.Pressure: 0.7},
		"edge_control":     {model.Edging: 0.9, model.StanceBalance: 0.4},
		"moguls":           {model.Pressure: 0.8, model.Rotation: 0.6, model.TimingCoordination: 0.8},
		"pressure_control": {model.Pressure: 1.0, model.Edging: 0.4},
		"powder":           {model.Pressure: 0.7, model.StanceBalance: 0.6, model.TimingCoordination: 0.5},
		"park_jumps":       {model.TimingCoordination: 1.0, model.StanceBalance: 0.7, model.Pressure: 0.4},
		"switch_riding":    {model.StanceBalance: 0.8, model.Rotation: 0.5, model.TimingCoordination: 0.6},
	})
}
