package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsStagePerTaskInversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.MaxTokensPerStage = cfg.Budget.MaxTokensPerTask + 1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroRetryAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroMaxRework(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRework = 0
	assert.Error(t, cfg.Validate())
}

func TestGuardConfigWiresTokenBudget(t *testing.T) {
	cfg := DefaultConfig()
	gc := cfg.GuardConfig()
	assert.NotNil(t, gc.TokenBudget)
	assert.NotNil(t, gc.ReworkGuard)
}
