package stage

// MaxRework is the default cap on rework visits to Generate from Review or
// Validate, per §4.1.
const MaxRework = 3

// TokenBudgetGuard gates Pending→Analyze on the cumulative-tokens cap.
func TokenBudgetGuard(maxTokensPerTask int) Guard {
	return func(ctx *Context) bool {
		return ctx.CumulativeTokens < maxTokensPerTask
	}
}

// NonEmptyStringGuard gates a forward edge on a named string field of the
// upstream stage's slot being non-empty.
func NonEmptyStringGuard(upstream Stage, key string) Guard {
	return func(ctx *Context) bool {
		out, ok := ctx.Slot(upstream)
		return ok && out.String(key) != ""
	}
}

// BoolFieldGuard gates a forward edge on a named bool field of the upstream
// stage's slot matching want.
func BoolFieldGuard(upstream Stage, key string, want bool) Guard {
	return func(ctx *Context) bool {
		out, ok := ctx.Slot(upstream)
		return ok && out.Bool(key) == want
	}
}

// ReworkGuard gates a Review→Generate or Validate→Generate edge on the
// per-task retry count staying under maxRework.
func ReworkGuard(maxRework int) Guard {
	return func(ctx *Context) bool {
		return ctx.RetryCount < maxRework
	}
}

// DefaultGuardConfig returns the guard wiring described in §4.1: field
// presence checks on the upstream slot for each linear forward edge, the
// token-budget guard on Pending→Analyze, and the rework guard (shared by
// both rework edges) gated on maxRework.
func DefaultGuardConfig(maxTokensPerTask, maxRework int) GuardConfig {
	return GuardConfig{
		TokenBudget:        TokenBudgetGuard(maxTokensPerTask),
		AnalyzeToAssess:    NonEmptyStringGuard(Analyze, "summary"),
		AssessToPlan:       BoolFieldGuard(Assess, "feasible", true),
		PlanToGenerate:     NonEmptyStringGuard(Plan, "plan"),
		GenerateToReview:   nil,
		ReviewToValidate:   BoolFieldGuard(Review, "requires_changes", false),
		ValidateToComplete: BoolFieldGuard(Validate, "tests_passed", true),
		ReworkGuard:        ReworkGuard(maxRework),
	}
}
