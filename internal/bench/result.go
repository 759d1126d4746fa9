// Package bench drives the engine across a list of tasks (the "benchmark
// fan" of §4.6), recording per-task outcomes and deriving cross-task
// aggregates. Grounded on the teacher's workflow/aggregation package: named
// result/aggregate types plus a pure Aggregate-style derivation function,
// generalized from PR-review aggregation to benchmark-run aggregation.
package bench

import "time"

// IssueResult is one task's recorded outcome within a run.
type IssueResult struct {
	TaskID         string    `json:"task_id"`
	Successful     bool      `json:"successful"`
	TestsPassed    bool      `json:"tests_passed"`
	PatchGenerated bool      `json:"patch_generated"`
	TokensUsed     int       `json:"tokens_used"`
	CostUSD        float64   `json:"cost_usd"`
	WallTimeSec    float64   `json:"wall_time_sec"`
	FinalState     string    `json:"final_state"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Summary is the derived (never stored independently of its source results)
// cross-task view of a run, per §4.6's "derived, not stored" requirement.
type Summary struct {
	// Status is only set to StatusNoResults when the source list is empty,
	// per §8(12); a non-empty source leaves it blank.
	Status string `json:"status,omitempty"`

	Total int `json:"total"`

	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	TestsPassed    int `json:"tests_passed"`
	PatchGenerated int `json:"patches_generated"`

	SuccessRate    float64 `json:"success_rate"`
	TestPassRate   float64 `json:"test_pass_rate"`

	TotalTokens  int     `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	TotalWallSec float64 `json:"total_wall_time_sec"`
}

// status reported when a summary is computed over zero results, per §8(12).
const StatusNoResults = "no_results"

// Summarize derives a Summary from results, per §4.6. An empty slice yields
// {status: "no_results"} with every other field at its zero value rather
// than NaN rates (§8(12)/§4.6's division-by-zero protection).
func Summarize(results []IssueResult) Summary {
	if len(results) == 0 {
		return Summary{Status: StatusNoResults}
	}
	s := Summary{Total: len(results)}

	for _, r := range results {
		if r.Successful {
			s.Successful++
		} else {
			s.Failed++
		}
		if r.TestsPassed {
			s.TestsPassed++
		}
		if r.PatchGenerated {
			s.PatchGenerated++
		}
		s.TotalTokens += r.TokensUsed
		s.TotalCostUSD += r.CostUSD
		s.TotalWallSec += r.WallTimeSec
	}

	total := float64(s.Total)
	s.SuccessRate = float64(s.Successful) / total
	s.TestPassRate = float64(s.TestsPassed) / total

	return s
}
