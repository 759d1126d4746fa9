package policy

import "fmt"

// BudgetConfig bounds token and dollar spend, mirroring the teacher's
// context-builder/budget.go priority-order idiom: a hard per-task cap, a
// softer per-stage cap, and a $/1k-token rate table used for estimation.
type BudgetConfig struct {
	MaxTokensPerTask  int
	MaxTokensPerStage int
	MaxCostUSDPerTask float64

	// InputRatePerThousand and OutputRatePerThousand are the $/1k-token
	// prices §4.2 names explicitly (defaults $0.00015 input, $0.0006
	// output), used by EstimateCost to turn a stage's token split into a
	// dollar estimate.
	InputRatePerThousand  float64
	OutputRatePerThousand float64
}

// DefaultBudgetConfig matches the teacher's conservative defaults: a
// generous per-task ceiling, a tighter per-stage ceiling to catch runaway
// single stages early, and §4.2's input/output rate pair.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxTokensPerTask:      100_000,
		MaxTokensPerStage:     25_000,
		MaxCostUSDPerTask:     5.00,
		InputRatePerThousand:  0.00015,
		OutputRatePerThousand: 0.0006,
	}
}

// BudgetPolicy enforces BudgetConfig against a running task, per §4.2.
type BudgetPolicy struct {
	cfg BudgetConfig
}

// NewBudgetPolicy builds a BudgetPolicy from cfg.
func NewBudgetPolicy(cfg BudgetConfig) *BudgetPolicy {
	return &BudgetPolicy{cfg: cfg}
}

// CheckTokens returns ErrBudgetExceeded if cumulativeTokens exceeds the
// per-task cap, or if stageTokens alone exceeds the per-stage cap. The
// per-task boundary is inclusive of the cap itself, per §8(9):
// check_tokens(current, 0) is true iff current <= max.
func (p *BudgetPolicy) CheckTokens(cumulativeTokens, stageTokens int) error {
	if cumulativeTokens > p.cfg.MaxTokensPerTask {
		return fmt.Errorf("%w: cumulative tokens %d > task cap %d", ErrBudgetExceeded, cumulativeTokens, p.cfg.MaxTokensPerTask)
	}
	if stageTokens > p.cfg.MaxTokensPerStage {
		return fmt.Errorf("%w: stage tokens %d > stage cap %d", ErrBudgetExceeded, stageTokens, p.cfg.MaxTokensPerStage)
	}
	return nil
}

// CheckCost returns ErrBudgetExceeded if cumulativeCostUSD meets or exceeds
// the per-task dollar cap.
func (p *BudgetPolicy) CheckCost(cumulativeCostUSD float64) error {
	if cumulativeCostUSD >= p.cfg.MaxCostUSDPerTask {
		return fmt.Errorf("%w: cumulative cost $%.4f >= task cap $%.2f", ErrBudgetExceeded, cumulativeCostUSD, p.cfg.MaxCostUSDPerTask)
	}
	return nil
}

// EstimateCost converts an input/output token split to a dollar amount
// using the two configurable per-1k rates from §4.2.
func (p *BudgetPolicy) EstimateCost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)/1000.0)*p.cfg.InputRatePerThousand +
		(float64(outputTokens)/1000.0)*p.cfg.OutputRatePerThousand
}

// EstimateTokens is the §9-documented fallback token counter: len(text)//4,
// used only when a stage worker cannot report a real usage figure. Callers
// must label the result as approximate (stage.Output.TokensApproximate) so
// it doesn't get silently mistaken for a reported count downstream.
func EstimateTokens(text string) int {
	return len(text) / 4
}
