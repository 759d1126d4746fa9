package ratelimit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoCacheComputesOnce(t *testing.T) {
	c := NewRepoCache()
	calls := 0
	compute := func() (string, error) {
		calls++
		return "resolved", nil
	}

	v1, err := c.GetOrCompute("org/repo", compute)
	require.NoError(t, err)
	v2, err := c.GetOrCompute("org/repo", compute)
	require.NoError(t, err)

	assert.Equal(t, "resolved", v1)
	assert.Equal(t, "resolved", v2)
	assert.Equal(t, 1, calls)
}

func TestRepoCacheDeleteRemovesBothMapAndIndexAtomically(t *testing.T) {
	c := NewRepoCache()
	_, err := c.GetOrCompute("org/a", func() (string, error) { return "main", nil })
	require.NoError(t, err)
	_, err = c.GetOrCompute("org/b", func() (string, error) { return "main", nil })
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"org/a", "org/b"}, c.CoordinatesSharing("main"))

	c.Delete("org/a")
	assert.ElementsMatch(t, []string{"org/b"}, c.CoordinatesSharing("main"))

	c.Delete("org/b")
	assert.Empty(t, c.CoordinatesSharing("main"))
}

func TestRepoCacheConcurrentAccessIsSafe(t *testing.T) {
	c := NewRepoCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrCompute("org/repo", func() (string, error) { return "main", nil })
		}()
	}
	wg.Wait()

	assert.Len(t, c.CoordinatesSharing("main"), 1)
}
