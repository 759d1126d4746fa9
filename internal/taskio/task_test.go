package taskio

import (
	"context"
	"testing"

	"github.com/relayforge/swe-orchestrator/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, taskCtx *stage.Context) (stage.Output, error) {
	return stage.Output{Success: true}, nil
}

func fullRegistry() Registry {
	return Registry{
		stage.Analyze:  stage.WorkerFunc(noop),
		stage.Assess:   stage.WorkerFunc(noop),
		stage.Plan:     stage.WorkerFunc(noop),
		stage.Generate: stage.WorkerFunc(noop),
		stage.Review:   stage.WorkerFunc(noop),
		stage.Validate: stage.WorkerFunc(noop),
	}
}

func TestRegistryValidateAcceptsCompleteRegistry(t *testing.T) {
	assert.NoError(t, fullRegistry().Validate())
}

func TestRegistryValidateRejectsMissingStage(t *testing.T) {
	r := fullRegistry()
	delete(r, stage.Review)

	err := r.Validate()
	require.Error(t, err)

	var missing *MissingWorkerError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, stage.Review, missing.Stage)
}
