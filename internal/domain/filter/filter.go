// Package filter narrows a candidate pool down to users a seeker could
// plausibly travel with. Rules run in a fixed order and each one records
// how many candidates it dropped.
package filter

import (
	"context"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
)

// Env is the per-search input shared by all rules.
type Env struct {
	Seeker  model.Seeker
	Catalog model.ResortCatalog
	Blocked map[string]struct{}
}

// Rule decides whether a single candidate survives.
type Rule interface {
	Name() string
	Keep(env *Env, c model.CandidateProfile) bool
}

// Step reports what a rule did to the pool.
type Step struct {
	Name    string `json:"name"`
	Initial int    `json:"initial"`
	Dropped int    `json:"dropped"`
	Left    int    `json:"left"`
}

// BlockList returns the user ids a seeker must never be matched with.
type BlockList interface {
	Blocked(ctx context.Context, seekerID string) ([]string, error)
}

type emptyBlockList struct{}

func (emptyBlockList) Blocked(context.Context, string) ([]string, error) { return nil, nil }

// Filter applies the rule chain.
type Filter struct {
	skill     SkillStrategy
	blockList BlockList
	logger    logger.Logger
}

// New creates a filter using the range skill strategy and an empty block list.
func New(opts ...Option) *Filter {
	f := &Filter{
		skill:     SkillRange,
		blockList: emptyBlockList{},
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Rules returns the chain in evaluation order.
func (f *Filter) Rules() []Rule {
	return []Rule{
		selfRule{},
		optedInRule{},
		skillRule{strategy: f.skill},
		locationRule{},
		timeRule{},
		blockRule{},
	}
}

// Apply returns the candidates that pass every rule, in pool order, plus a
// step report per rule. The result is never nil.
func (f *Filter) Apply(ctx context.Context, seeker model.Seeker, pool []model.CandidateProfile, catalog model.ResortCatalog) ([]model.CandidateProfile, []Step) {
	env := &Env{Seeker: seeker, Catalog: catalog, Blocked: f.blocked(ctx, seeker.Profile.UserID)}

	current := append(make([]model.CandidateProfile, 0, len(pool)), pool...)
	rules := f.Rules()
	steps := make([]Step, 0, len(rules))
	for _, r := range rules {
		initial := len(current)
		kept := current[:0]
		for _, c := range current {
			if r.Keep(env, c) {
				kept = append(kept, c)
			}
		}
		current = kept
		step := Step{Name: r.Name(), Initial: initial, Dropped: initial - len(current), Left: len(current)}
		steps = append(steps, step)
		if step.Dropped > 0 {
			f.logger.Debug(ctx, "candidates excluded",
				logger.String("rule", step.Name),
				logger.Int("dropped", step.Dropped),
				logger.Int("left", step.Left),
			)
		}
	}
	return current, steps
}

func (f *Filter) blocked(ctx context.Context, seekerID string) map[string]struct{} {
	ids, err := f.blockList.Blocked(ctx, seekerID)
	if err != nil {
		f.logger.Warn(ctx, "block list unavailable", logger.String("seeker_id", seekerID), logger.Error(err))
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
