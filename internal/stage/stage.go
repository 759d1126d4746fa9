// Package stage defines the fixed six-step workflow and the task context
// threaded through it: Analyze, Assess, Plan, Generate, Review, Validate,
// bracketed by the Pending and terminal Complete/Failed states.
package stage

// Stage identifies one leg of the workflow, or one of the three sentinel
// states bracketing it.
type Stage string

const (
	Pending  Stage = "pending"
	Analyze  Stage = "analyze"
	Assess   Stage = "assess"
	Plan     Stage = "plan"
	Generate Stage = "generate"
	Review   Stage = "review"
	Validate Stage = "validate"
	Complete Stage = "complete"
	Failed   Stage = "failed"
)

// Working lists the six stages in workflow order. A stage worker exists for
// each of these, keyed by this exact ordering.
var Working = []Stage{Analyze, Assess, Plan, Generate, Review, Validate}

// IsTerminal reports whether s is one of the two terminal sentinel states.
func (s Stage) IsTerminal() bool {
	return s == Complete || s == Failed
}

func (s Stage) String() string { return string(s) }
