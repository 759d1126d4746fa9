package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmptyResultsYieldsNoResultsStatus(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, StatusNoResults, s.Status)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.SuccessRate)
	assert.Equal(t, 0.0, s.TestPassRate)
}

func TestSummarizeRatesAndSums(t *testing.T) {
	results := []IssueResult{
		{Successful: true, TestsPassed: true, PatchGenerated: true, TokensUsed: 100, CostUSD: 1.0, WallTimeSec: 2.0},
		{Successful: false, TestsPassed: false, PatchGenerated: true, TokensUsed: 50, CostUSD: 0.5, WallTimeSec: 1.0},
	}
	s := Summarize(results)

	assert.Equal(t, "", s.Status)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.TestsPassed)
	assert.Equal(t, 2, s.PatchGenerated)
	assert.Equal(t, 0.5, s.SuccessRate)
	assert.Equal(t, 0.5, s.TestPassRate)
	assert.Equal(t, 150, s.TotalTokens)
	assert.InDelta(t, 1.5, s.TotalCostUSD, 1e-9)
	assert.InDelta(t, 3.0, s.TotalWallSec, 1e-9)
}
