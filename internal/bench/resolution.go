package bench

// PatchMetrics carries the raw inputs to the per-patch resolution-level
// formulas of §4.6, kept separate from the run-level Summary because these
// are computed per accepted patch, not per task outcome.
type PatchMetrics struct {
	Added              int
	Removed            int
	EstimatedNecessary int

	TestsPassed int
	TestsTotal  int
	Regressions int

	QualityScore   float64
	ReviewScore    float64
	CoverageScore  float64
	BlockingIssues float64
}

// Minimality implements §4.6's per-patch minimality formula exactly: 1.0
// when the changed-line count is at or under the estimate, otherwise a
// penalty proportional to the excess relative to the estimate, floored at 0.
func Minimality(m PatchMetrics) float64 {
	changed := m.Added + m.Removed
	if m.EstimatedNecessary <= 0 {
		if changed == 0 {
			return 1.0
		}
		return 0
	}
	if changed <= m.EstimatedNecessary {
		return 1.0
	}
	excess := float64(changed-m.EstimatedNecessary) / float64(m.EstimatedNecessary)
	v := 1 - 0.5*excess
	if v < 0 {
		return 0
	}
	return v
}

// Correctness implements §4.6's correctness formula: pass rate minus a
// regression penalty, floored at 0, with the "undefined total" edge case
// (TestsTotal == 0) defined as 0.5 rather than dividing by zero.
func Correctness(m PatchMetrics) float64 {
	if m.TestsTotal <= 0 {
		return 0.5
	}
	passRate := float64(m.TestsPassed) / float64(m.TestsTotal)
	penalty := 0.2 * float64(m.Regressions)
	if penalty > 1 {
		penalty = 1
	}
	v := passRate - penalty
	if v < 0 {
		return 0
	}
	return v
}

// ResolutionSummary is the derived cross-patch view of §4.6's resolution-
// level metrics, aggregated separately from the run-level Summary.
type ResolutionSummary struct {
	// Status is only set to StatusNoResults when the source list is empty,
	// per §8(12); a non-empty source leaves it blank.
	Status string `json:"status,omitempty"`

	Count int `json:"count"`

	MeanMinimality             float64 `json:"mean_minimality"`
	MeanCorrectness            float64 `json:"mean_correctness"`
	MeanPRAcceptanceLikelihood float64 `json:"mean_pr_acceptance_likelihood"`
}

// AggregateResolutions derives a ResolutionSummary by averaging the three
// per-patch formulas across metrics. An empty slice yields
// {status: "no_results"} per §8(12), matching Summarize's empty-input
// behavior for the run-level aggregate.
func AggregateResolutions(metrics []PatchMetrics) ResolutionSummary {
	if len(metrics) == 0 {
		return ResolutionSummary{Status: StatusNoResults}
	}

	var sumMinimality, sumCorrectness, sumAcceptance float64
	for _, m := range metrics {
		sumMinimality += Minimality(m)
		sumCorrectness += Correctness(m)
		sumAcceptance += PRAcceptanceLikelihood(m)
	}

	n := float64(len(metrics))
	return ResolutionSummary{
		Count:                      len(metrics),
		MeanMinimality:             sumMinimality / n,
		MeanCorrectness:            sumCorrectness / n,
		MeanPRAcceptanceLikelihood: sumAcceptance / n,
	}
}

// PRAcceptanceLikelihood implements §4.6's weighted composite: 0.3 quality +
// 0.4 review + 0.3 coverage, minus a blocking-issue penalty capped at 1,
// floored at 0. Callers are responsible for normalizing the four inputs to
// [0,1] before calling, per the spec's "all normalized to [0,1]" note.
func PRAcceptanceLikelihood(m PatchMetrics) float64 {
	penalty := 0.3 * m.BlockingIssues
	if penalty > 1 {
		penalty = 1
	}
	v := 0.3*m.QualityScore + 0.4*m.ReviewScore + 0.3*m.CoverageScore - penalty
	if v < 0 {
		return 0
	}
	return v
}
