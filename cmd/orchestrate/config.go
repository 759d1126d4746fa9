package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/relayforge/swe-orchestrator/internal/policy"
)

// envOverrides layers environment variables over policy.DefaultConfig
// (defaults first, then env). No command-line flag overrides these policy
// settings. Only the host layer ever calls os.Getenv;
// internal/policy.Config itself carries no environment awareness.
func envOverrides(cfg policy.Config) policy.Config {
	if v := os.Getenv("ORCHESTRATE_MAX_TOKENS_PER_TASK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Budget.MaxTokensPerTask = n
		}
	}
	if v := os.Getenv("ORCHESTRATE_MAX_TOKENS_PER_STAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Budget.MaxTokensPerStage = n
		}
	}
	if v := os.Getenv("ORCHESTRATE_MAX_COST_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Budget.MaxCostUSDPerTask = f
		}
	}
	if v := os.Getenv("ORCHESTRATE_MAX_REWORK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRework = n
		}
	}
	if v := os.Getenv("ORCHESTRATE_WHOLE_TASK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout.Set(policy.CategoryWholeTask, d)
		}
	}
	if v := os.Getenv("ORCHESTRATE_STAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout.Set(policy.CategoryStageWorker, d)
		}
	}
	return cfg
}

// requireCredential surfaces an absent API credential as the non-retryable
// AuthenticationError §6 names, rather than letting a stage worker discover
// the absence lazily on first remote call.
func requireCredential(envVar string) (string, error) {
	v := os.Getenv(envVar)
	if v == "" {
		return "", authError{msg: fmt.Sprintf("orchestrate: missing required credential %s", envVar)}
	}
	return v, nil
}
