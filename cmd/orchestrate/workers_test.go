package main

import (
	"context"
	"errors"
	"testing"

	"github.com/relayforge/swe-orchestrator/internal/policy"
	"github.com/relayforge/swe-orchestrator/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthErrorClassifiesAsAuth(t *testing.T) {
	err := authError{msg: "no credential"}
	assert.Equal(t, policy.KindAuth, err.Kind())
	assert.Equal(t, policy.KindAuth, policy.Classify(err))
}

func TestStubWorkersRequireCredential(t *testing.T) {
	registry := stubWorkers("")
	worker, ok := registry[stage.Analyze]
	require.True(t, ok)

	_, err := worker.Run(context.Background(), stage.NewContext("t1", "u", "org/repo"))
	require.Error(t, err)

	var authErr authError
	assert.True(t, errors.As(err, &authErr))
}

func TestStubWorkersSucceedWithCredential(t *testing.T) {
	registry := stubWorkers("a-real-key")
	for s, worker := range registry {
		out, err := worker.Run(context.Background(), stage.NewContext("t1", "u", "org/repo"))
		require.NoError(t, err, "stage %s should succeed once a credential is present", s)
		assert.True(t, out.Success)
	}
}
