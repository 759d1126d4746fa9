// Package policy centralises every tunable limit and safety check so the
// engine carries no magic numbers: retry/backoff, token and cost budgets,
// per-operation timeouts, and input sanitisation/allow-listing.
package policy

import (
	"errors"
	"strings"
)

// ErrorKind is the closed taxonomy of §7. Classify is the single place
// allowed to fall back to substring matching on an opaque error's message;
// every other package must go through it rather than doing its own string
// matching.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransient
	KindRateLimit
	KindAuth
	KindContentFilter
	KindBudget
	KindParsing
	KindInvalidTransition
	KindDeadline
)

// Kinded is implemented by errors that already know their own
// classification, bypassing the substring fallback entirely.
type Kinded interface {
	Kind() ErrorKind
}

// ErrBudgetExceeded is the sentinel for a token/cost budget violation. It is
// always KindBudget and never retryable.
var ErrBudgetExceeded = kindError{kind: KindBudget, msg: "policy: token or cost budget exceeded"}

// ErrDeadlineExceeded is the sentinel the engine reports when the whole-task
// deadline expires. Always KindDeadline and never retryable. A per-stage
// timeout surfaces as whatever error the worker returns (typically
// context.DeadlineExceeded) and is classified like any other error.
var ErrDeadlineExceeded = kindError{kind: KindDeadline, msg: "policy: deadline exceeded"}

// ErrInvalidTransition is the sentinel for a programmer-error control-flow
// bug surfaced by the state machine. Always KindInvalidTransition.
var ErrInvalidTransition = kindError{kind: KindInvalidTransition, msg: "policy: invalid state transition"}

type kindError struct {
	kind ErrorKind
	msg  string
}

func (e kindError) Error() string  { return e.msg }
func (e kindError) Kind() ErrorKind { return e.kind }

// rateLimitMarkers are the case-insensitive substrings §7/§9/§8(11) require
// the fallback classifier to recognize.
var rateLimitMarkers = []string{"429", "rate limit", "resource_exhausted"}

// Classify determines the ErrorKind for err: a structured Kinded check
// first, then the textual fallback described in §9.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}

	lower := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return KindRateLimit
		}
	}
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "connection") || strings.Contains(lower, "5xx") {
		return KindTransient
	}

	return KindUnknown
}

// IsRateLimitError reports whether err's message contains one of the
// recognized rate-limit markers, case-insensitively. Exposed directly for
// callers that want the fallback check without the full Classify dance.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
