package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNonRetryableNeverRetries(t *testing.T) {
	p := NewRetryPolicy(DefaultRetryConfig())

	cases := []error{
		ErrBudgetExceeded,
		ErrDeadlineExceeded,
		ErrInvalidTransition,
		kindError{kind: KindAuth, msg: "invalid api key"},
		kindError{kind: KindContentFilter, msg: "blocked by content filter"},
	}
	for _, err := range cases {
		d := p.Decide(0, err)
		assert.False(t, d.Retry, "expected no retry for %v", err)
	}
}

func TestRetryPolicyRateLimitLinearBackoff(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 5
	p := NewRetryPolicy(cfg)

	err := errors.New("received 429 too many requests")

	d0 := p.Decide(0, err)
	require.True(t, d0.Retry)
	assert.Equal(t, KindRateLimit, d0.Kind)
	assert.Equal(t, cfg.RateLimitBaseDelay*1, d0.Delay)

	d1 := p.Decide(1, err)
	assert.Equal(t, cfg.RateLimitBaseDelay*2, d1.Delay)
}

func TestRetryPolicyTransientExponentialBackoff(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 5
	p := NewRetryPolicy(cfg)

	err := errors.New("connection reset, timeout talking to upstream")

	d0 := p.Decide(0, err)
	require.True(t, d0.Retry)
	assert.Equal(t, KindTransient, d0.Kind)

	d1 := p.Decide(1, err)
	assert.Greater(t, d1.Delay, d0.Delay, "exponential backoff should grow with attempt")
}

func TestRetryPolicyExhaustsAtMaxAttempts(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 2
	p := NewRetryPolicy(cfg)

	err := errors.New("rate limit exceeded")

	d := p.Decide(1, err) // attempt+1 == MaxAttempts
	assert.False(t, d.Retry)
}

func TestRetryPolicyUnknownKindRetriesLikeTransient(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 3
	p := NewRetryPolicy(cfg)

	d := p.Decide(0, errors.New("some opaque failure"))
	assert.True(t, d.Retry)
	assert.Equal(t, KindUnknown, d.Kind)
}

func TestClassifyPrefersStructuredKindOverText(t *testing.T) {
	err := kindError{kind: KindAuth, msg: "429 this text would otherwise say rate limit"}
	assert.Equal(t, KindAuth, Classify(err))
}

func TestNewExponentialBackOffConfigured(t *testing.T) {
	cfg := DefaultRetryConfig()
	b := cfg.NewExponentialBackOff()
	require.NotNil(t, b)
	assert.Equal(t, cfg.TransientInitialInterval, b.InitialInterval)
	assert.Equal(t, cfg.TransientMaxInterval, b.MaxInterval)
	assert.Equal(t, time.Duration(0), b.MaxElapsedTime)
}
