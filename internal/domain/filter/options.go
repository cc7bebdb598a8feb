package filter

import "github.com/okian/tripbuddy/pkg/logger"

// Option configures a Filter.
type Option func(*Filter)

// WithSkillStrategy selects the skill compatibility rule.
func WithSkillStrategy(s SkillStrategy) Option {
	return func(f *Filter) {
		if s != "" {
			f.skill = s
		}
	}
}

// WithBlockList installs a block list lookup.
func WithBlockList(b BlockList) Option {
	return func(f *Filter) {
		if b != nil {
			f.blockList = b
		}
	}
}

// WithLogger sets the logger used for step reports.
func WithLogger(l logger.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.logger = l
		}
	}
}
