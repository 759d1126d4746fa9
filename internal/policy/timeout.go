package policy

import "time"

// TimeoutCategory names a class of blocking operation the engine performs.
// Using named categories (rather than passing raw durations around) mirrors
// the teacher's config.go section-keyed settings and lets SPEC_FULL.md's
// ambient operations (the test runner, the remote client) each get their
// own, independently tunable ceiling.
type TimeoutCategory string

const (
	CategoryStageWorker TimeoutCategory = "stage_worker"
	CategoryRemoteAPI   TimeoutCategory = "remote_api"
	CategoryTestRunner  TimeoutCategory = "test_runner"
	CategoryWholeTask   TimeoutCategory = "whole_task"
)

// TimeoutConfig maps each category to its ceiling.
type TimeoutConfig struct {
	durations map[TimeoutCategory]time.Duration
}

// DefaultTimeoutConfig matches §4.2's documented ceilings: a generous
// whole-task ceiling, tighter per-call ceilings for the pieces that talk to
// a remote system or spawn a subprocess.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		durations: map[TimeoutCategory]time.Duration{
			CategoryStageWorker: 300 * time.Second,
			CategoryRemoteAPI:   30 * time.Second,
			CategoryTestRunner:  600 * time.Second,
			CategoryWholeTask:   3600 * time.Second,
		},
	}
}

// TimeoutPolicy looks up the configured ceiling for a category.
type TimeoutPolicy struct {
	cfg TimeoutConfig
}

// NewTimeoutPolicy builds a TimeoutPolicy from cfg.
func NewTimeoutPolicy(cfg TimeoutConfig) *TimeoutPolicy {
	return &TimeoutPolicy{cfg: cfg}
}

// For returns the configured timeout for category, falling back to
// CategoryStageWorker's ceiling for an unrecognized category rather than
// returning zero (which callers could mistake for "no timeout").
func (p *TimeoutPolicy) For(category TimeoutCategory) time.Duration {
	if d, ok := p.cfg.durations[category]; ok {
		return d
	}
	return p.cfg.durations[CategoryStageWorker]
}

// Set overrides the ceiling for category. Used by test fixtures and by the
// host's environment overrides (cmd/orchestrate's envOverrides).
func (c *TimeoutConfig) Set(category TimeoutCategory, d time.Duration) {
	if c.durations == nil {
		c.durations = make(map[TimeoutCategory]time.Duration)
	}
	c.durations[category] = d
}
