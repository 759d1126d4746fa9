package policy

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig mirrors the shape of the teacher's workflow/validation retry
// configuration: named fields with sane defaults rather than positional
// arguments, so callers can override exactly one knob.
type RetryConfig struct {
	MaxAttempts int

	// RateLimitBaseDelay is the unit used by the linear backoff applied to
	// KindRateLimit errors: delay = RateLimitBaseDelay * (attempt+1).
	RateLimitBaseDelay time.Duration

	// TransientInitialInterval/TransientMaxInterval/TransientMultiplier
	// parameterize the exponential backoff Decide applies to KindTransient
	// errors (computed in exponentialDelay; NewExponentialBackOff builds a
	// cenkalti/backoff/v4 instance from the same fields).
	TransientInitialInterval time.Duration
	TransientMaxInterval     time.Duration
	TransientMultiplier      float64
}

// DefaultRetryConfig matches §4.2's documented defaults: three attempts, a
// sixty-second rate-limit linear base, and a five-second exponential base
// (the teacher's llm/retry.go BackoffBase doubling pattern) capped at two
// minutes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:              3,
		RateLimitBaseDelay:       60 * time.Second,
		TransientInitialInterval: 5 * time.Second,
		TransientMaxInterval:     120 * time.Second,
		TransientMultiplier:      2.0,
	}
}

// RetryDecision is the outcome of a single RetryPolicy.Decide call.
type RetryDecision struct {
	Retry bool
	Delay time.Duration
	Kind  ErrorKind
}

// RetryPolicy classifies an error and decides whether/how long to wait
// before the next attempt, per §4.2: non-retryable kinds never retry
// regardless of attempt count; rate-limit errors back off linearly;
// transient errors back off exponentially; KindUnknown and KindParsing
// retry on the same exponential schedule and under the same MaxAttempts
// cap as transient errors.
type RetryPolicy struct {
	cfg RetryConfig
}

// NewRetryPolicy builds a RetryPolicy from cfg.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	return &RetryPolicy{cfg: cfg}
}

// nonRetryableKinds are never retried, irrespective of attempt count.
var nonRetryableKinds = map[ErrorKind]bool{
	KindAuth:              true,
	KindContentFilter:     true,
	KindBudget:            true,
	KindInvalidTransition: true,
	KindDeadline:          true,
}

// Decide classifies err and returns whether to retry and how long to wait.
// attempt is zero-based (the number of attempts already made).
func (p *RetryPolicy) Decide(attempt int, err error) RetryDecision {
	kind := Classify(err)

	if nonRetryableKinds[kind] {
		return RetryDecision{Retry: false, Kind: kind}
	}
	if attempt+1 >= p.cfg.MaxAttempts {
		return RetryDecision{Retry: false, Kind: kind}
	}

	switch kind {
	case KindRateLimit:
		return RetryDecision{
			Retry: true,
			Delay: p.cfg.RateLimitBaseDelay * time.Duration(attempt+1),
			Kind:  kind,
		}
	case KindTransient, KindUnknown, KindParsing:
		return RetryDecision{
			Retry: true,
			Delay: p.exponentialDelay(attempt),
			Kind:  kind,
		}
	default:
		return RetryDecision{Retry: false, Kind: kind}
	}
}

// exponentialDelay mirrors backoff.ExponentialBackOff's interval growth
// without needing a live BackOff instance per call (Decide is stateless per
// attempt; the caller passes in the attempt index it tracks itself).
func (p *RetryPolicy) exponentialDelay(attempt int) time.Duration {
	interval := float64(p.cfg.TransientInitialInterval) * math.Pow(p.cfg.TransientMultiplier, float64(attempt))
	if max := float64(p.cfg.TransientMaxInterval); interval > max {
		interval = max
	}
	return time.Duration(interval)
}

// NewExponentialBackOff returns a ready-to-use cenkalti/backoff/v4 instance
// configured from cfg, for callers that want the library's own retry-loop
// driver instead of Decide's single-shot delay calculation.
func (cfg RetryConfig) NewExponentialBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.TransientInitialInterval
	b.MaxInterval = cfg.TransientMaxInterval
	b.Multiplier = cfg.TransientMultiplier
	b.MaxElapsedTime = 0 // caller bounds attempts, not elapsed time
	return b
}
