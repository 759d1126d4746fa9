package ratelimit

import "sync"

// RepoCache is the process-wide, copy-on-first-use lookup table for
// repository coordinates named in §5. It is deliberately simpler than the
// quota cache: a single map-level mutex, no TTL, no breaker — just
// memoization of a coordinate-derived value (e.g. a resolved default branch
// or clone URL) so concurrent tasks touching the same repository don't each
// pay the resolution cost.
//
// Its insert/delete path honors the lock/index-ordering principle named in
// the spec's Open Questions (§9, "an index is maintained transactionally
// with the map it indexes"): entries and their reverse lookup are mutated
// together under one lock acquisition, never as two separate critical
// sections that could interleave with a concurrent delete.
type RepoCache struct {
	mu      sync.Mutex
	values  map[string]string
	byValue map[string][]string // reverse index: value -> coordinates sharing it
}

// NewRepoCache creates an empty cache.
func NewRepoCache() *RepoCache {
	return &RepoCache{
		values:  make(map[string]string),
		byValue: make(map[string][]string),
	}
}

// GetOrCompute returns the cached value for coordinate, computing and
// storing it via compute on a first miss. While a coordinate's entry is
// cached, compute is not called for it again (later calls for the same
// coordinate, even if they race, block on the same lock and observe the
// first writer's result). A failed compute stores nothing, and Delete
// removes the entry, so either lets a later call compute again.
func (c *RepoCache) GetOrCompute(coordinate string, compute func() (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.values[coordinate]; ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return "", err
	}

	c.values[coordinate] = v
	c.byValue[v] = append(c.byValue[v], coordinate)
	return v, nil
}

// Delete removes coordinate and its reverse-index entry atomically — the
// map and the index are updated under the same lock acquisition so no
// reader can observe one updated without the other.
func (c *RepoCache) Delete(coordinate string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values[coordinate]
	if !ok {
		return
	}
	delete(c.values, coordinate)

	coords := c.byValue[v]
	for i, co := range coords {
		if co == coordinate {
			c.byValue[v] = append(coords[:i], coords[i+1:]...)
			break
		}
	}
	if len(c.byValue[v]) == 0 {
		delete(c.byValue, v)
	}
}

// CoordinatesSharing returns every coordinate currently mapped to value.
func (c *RepoCache) CoordinatesSharing(value string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	coords := c.byValue[value]
	out := make([]string, len(coords))
	copy(out, coords)
	return out
}
