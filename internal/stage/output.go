package stage

// Output is the opaque bag a stage worker returns. TokensUsed and Success
// are the two canonical fields the engine inspects; Data carries whatever
// stage-specific payload the downstream guard or the next stage worker
// needs to read.
type Output struct {
	// TokensUsed is the number of tokens this stage invocation consumed.
	// It should equal InputTokens+OutputTokens when the worker reports a
	// split; budget/trace accounting uses this total.
	TokensUsed int

	// InputTokens and OutputTokens are the prompt/completion split used by
	// policy.BudgetPolicy.EstimateCost's two-rate formula (§4.2). A worker
	// that can't distinguish the two may leave both zero and report only
	// TokensUsed; cost estimation then attributes zero cost rather than
	// guessing a split.
	InputTokens  int
	OutputTokens int

	// Success indicates whether the worker completed its task. A worker can
	// return Success=false with no error at all — the engine never
	// second-guesses this, the outgoing guard decides what happens next.
	Success bool

	// Retryable is only meaningful when Success is false: it tells the
	// engine's retry loop whether this failure is worth retrying.
	Retryable bool

	// TokensApproximate marks TokensUsed as derived from the len(text)/4
	// fallback estimator rather than a reported usage figure, so budget
	// accounting downstream can tell the two apart.
	TokensApproximate bool

	// Data is the stage-specific payload. Guards read well-known keys out
	// of it (e.g. "summary", "requires_changes", "tests_passed"); the next
	// stage worker may read arbitrary additional keys.
	Data map[string]any
}

// String returns a named field from Data, or "" if absent or not a string.
func (o Output) String(key string) string {
	if v, ok := o.Data[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns a named field from Data, or false if absent or not a bool.
func (o Output) Bool(key string) bool {
	if v, ok := o.Data[key].(bool); ok {
		return v
	}
	return false
}
