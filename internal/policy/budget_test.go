package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetPolicyCheckTokens(t *testing.T) {
	cfg := DefaultBudgetConfig()
	cfg.MaxTokensPerTask = 1000
	cfg.MaxTokensPerStage = 300
	p := NewBudgetPolicy(cfg)

	assert.NoError(t, p.CheckTokens(500, 100))

	// §8(9): check_tokens(current, 0) is true (no error) iff current <= max.
	assert.NoError(t, p.CheckTokens(1000, 0))

	err := p.CheckTokens(1001, 0)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))

	err = p.CheckTokens(500, 301)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
}

func TestBudgetPolicyCheckCost(t *testing.T) {
	cfg := DefaultBudgetConfig()
	cfg.MaxCostUSDPerTask = 2.00
	p := NewBudgetPolicy(cfg)

	assert.NoError(t, p.CheckCost(1.99))
	assert.True(t, errors.Is(p.CheckCost(2.00), ErrBudgetExceeded))
}

func TestBudgetPolicyEstimateCostUsesInputOutputRates(t *testing.T) {
	cfg := DefaultBudgetConfig()
	cfg.InputRatePerThousand = 0.00015
	cfg.OutputRatePerThousand = 0.0006
	p := NewBudgetPolicy(cfg)

	assert.InDelta(t, 0.00015, p.EstimateCost(1000, 0), 1e-9)
	assert.InDelta(t, 0.0006, p.EstimateCost(0, 1000), 1e-9)
	assert.InDelta(t, 0.00075, p.EstimateCost(1000, 1000), 1e-9)
}
