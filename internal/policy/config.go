package policy

import (
	"fmt"

	"github.com/relayforge/swe-orchestrator/internal/stage"
)

// Config aggregates every policy plus the state-machine guard wiring into
// the single object the engine constructs once at startup, mirroring the
// teacher's config.Config/DefaultConfig/Validate layering.
type Config struct {
	Retry    RetryConfig
	Budget   BudgetConfig
	Timeout  TimeoutConfig
	Security SecurityConfig

	MaxRework int
}

// DefaultConfig returns the conservative defaults described across §4.2 and
// this package's per-policy Default*Config constructors.
func DefaultConfig() Config {
	return Config{
		Retry:     DefaultRetryConfig(),
		Budget:    DefaultBudgetConfig(),
		Timeout:   DefaultTimeoutConfig(),
		Security:  DefaultSecurityConfig(),
		MaxRework: stage.MaxRework,
	}
}

// Validate rejects configurations that would make the engine non-functional
// or violate an invariant from §8, the way the teacher's config.Validate
// rejects an empty API key or a zero worker pool.
func (c Config) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("policy: retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Budget.MaxTokensPerTask <= 0 {
		return fmt.Errorf("policy: budget.max_tokens_per_task must be > 0, got %d", c.Budget.MaxTokensPerTask)
	}
	if c.Budget.MaxTokensPerStage <= 0 {
		return fmt.Errorf("policy: budget.max_tokens_per_stage must be > 0, got %d", c.Budget.MaxTokensPerStage)
	}
	if c.Budget.MaxTokensPerStage > c.Budget.MaxTokensPerTask {
		return fmt.Errorf("policy: budget.max_tokens_per_stage (%d) must not exceed max_tokens_per_task (%d)", c.Budget.MaxTokensPerStage, c.Budget.MaxTokensPerTask)
	}
	if c.Budget.MaxCostUSDPerTask <= 0 {
		return fmt.Errorf("policy: budget.max_cost_usd_per_task must be > 0, got %f", c.Budget.MaxCostUSDPerTask)
	}
	if c.MaxRework < 1 {
		return fmt.Errorf("policy: max_rework must be >= 1, got %d", c.MaxRework)
	}
	return nil
}

// GuardConfig derives a stage.GuardConfig from this Config, wiring
// TokenBudgetGuard and ReworkGuard from the Budget/MaxRework fields and
// leaving the field-presence guards at their package defaults.
func (c Config) GuardConfig() stage.GuardConfig {
	base := stage.DefaultGuardConfig(c.Budget.MaxTokensPerTask, c.MaxRework)
	return base
}
