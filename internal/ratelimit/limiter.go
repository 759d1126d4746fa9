// Package ratelimit implements the proactive, quota-aware remote-API client
// contract from §4.4: a limiter that checks and waits on a cached quota view
// rather than reacting to 429s after the fact, with a circuit breaker
// protecting the refresh call and a conservative-defaults fallback when the
// remote endpoint cannot be reached at all.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Quota is the cached view of a remote endpoint's rate-limit state.
type Quota struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
	ResetIn   time.Duration
}

// Refresher queries the remote endpoint for the current quota. Stage workers
// and the test-runner subprocess never call this directly; only the
// limiter's Check/WaitIfNeeded path does, so every caller observes the same
// serialized, cached view.
type Refresher func(ctx context.Context) (Quota, error)

// Config tunes the limiter, mirroring §4.4's named defaults.
type Config struct {
	CheckInterval time.Duration
	SafetyMargin  int

	// ConservativeRemaining/ConservativeResetIn are substituted whenever a
	// refresh fails (a remote error, or a call rejected by the open
	// breaker), per §4.4's "assume 1000 remaining, reset in one hour"
	// degrade path.
	ConservativeRemaining int
	ConservativeResetIn   time.Duration

	Breaker gobreaker.Settings
}

// DefaultConfig matches §4.4 verbatim plus a conservative breaker that trips
// after three consecutive refresh failures and probes again after a minute,
// grounded on the breaker settings used for outbound AI-endpoint calls
// elsewhere in the example pack.
func DefaultConfig() Config {
	return Config{
		CheckInterval:         60 * time.Second,
		SafetyMargin:          100,
		ConservativeRemaining: 1000,
		ConservativeResetIn:   time.Hour,
		Breaker: gobreaker.Settings{
			Name:        "ratelimit-refresh",
			MaxRequests: 1,
			Interval:    0,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		},
	}
}

// Limiter serializes every caller through a single mutex around the cached
// quota view. The mutex is not held while WaitIfNeeded sleeps: concurrent
// callers can wait at the same time, each one refreshes after waking, and
// waiters are not released in FIFO order. The breaker wraps only the refresh call, so a
// tripped breaker short-circuits straight to the conservative-defaults path
// instead of blocking callers on a doomed remote call.
type Limiter struct {
	cfg       Config
	refresh   Refresher
	breaker   *gobreaker.CircuitBreaker
	mu        sync.Mutex
	cached    Quota
	cachedAt  time.Time
	hasCached bool
}

// New builds a Limiter that calls refresh to query the remote endpoint.
func New(cfg Config, refresh Refresher) *Limiter {
	return &Limiter{
		cfg:     cfg,
		refresh: refresh,
		breaker: gobreaker.NewCircuitBreaker(cfg.Breaker),
	}
}

// Check returns the current quota view: a cached value if younger than
// CheckInterval, otherwise a fresh refresh (routed through the breaker).
func (l *Limiter) Check(ctx context.Context) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkLocked(ctx)
}

func (l *Limiter) checkLocked(ctx context.Context) (Quota, error) {
	if l.hasCached && time.Since(l.cachedAt) < l.cfg.CheckInterval {
		return l.cached, nil
	}
	return l.refreshLocked(ctx)
}

// refreshLocked must be called with l.mu held. It routes the refresh call
// through the circuit breaker and, on any failure (remote error or a
// tripped breaker), substitutes the conservative defaults rather than
// propagating an error that would stall the caller indefinitely.
func (l *Limiter) refreshLocked(ctx context.Context) (Quota, error) {
	result, err := l.breaker.Execute(func() (any, error) {
		return l.refresh(ctx)
	})
	if err != nil {
		q := Quota{
			Remaining: l.cfg.ConservativeRemaining,
			Limit:     l.cfg.ConservativeRemaining,
			ResetAt:   time.Now().Add(l.cfg.ConservativeResetIn),
			ResetIn:   l.cfg.ConservativeResetIn,
		}
		l.cached = q
		l.cachedAt = time.Now()
		l.hasCached = true
		return q, nil
	}

	q := result.(Quota)
	l.cached = q
	l.cachedAt = time.Now()
	l.hasCached = true
	return q, nil
}

// WaitIfNeeded blocks until the endpoint has capacity for estimatedCost. If
// the current quota (refreshed if stale) has at most estimatedCost plus the
// configured safety margin remaining, it sleeps until ResetAt+1s, then
// force-refreshes before returning. The sleep is cancellable via ctx, per
// §5's suspension-point requirement.
func (l *Limiter) WaitIfNeeded(ctx context.Context, estimatedCost int) error {
	l.mu.Lock()
	q, err := l.checkLocked(ctx)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	if q.Remaining > estimatedCost+l.cfg.SafetyMargin {
		return nil
	}

	wait := time.Until(q.ResetAt) + time.Second
	if wait < 0 {
		wait = 0
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("ratelimit: wait cancelled: %w", ctx.Err())
	case <-timer.C:
	}

	l.mu.Lock()
	_, err = l.refreshLocked(ctx)
	l.mu.Unlock()
	return err
}
