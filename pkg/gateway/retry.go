package gateway

import "time"

// RetryPolicy encapsulates the backoff schedule and how many times a single
// provider is retried before the orchestrator advances to the next one.
//
// Rate-limited attempts back off linearly: BaseDelay * (attempt + 1).
// Transient network failures wait a short fixed delay and share the same
// retry budget. Rejections are never retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt, so a
	// provider sees at most MaxRetries+1 calls.
	MaxRetries int

	// BaseDelay is the backoff unit for rate-limited attempts.
	BaseDelay time.Duration

	// TransientDelay is the fixed wait after a network/timeout failure.
	TransientDelay time.Duration
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		BaseDelay:      5 * time.Second,
		TransientDelay: 5 * time.Second,
	}
}

// Backoff returns the wait before retrying after a rate limit on the given
// attempt, with attempt starting at 0.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt+1)
}

// Retryable reports whether an outcome may consume retry budget.
func (p RetryPolicy) Retryable(kind OutcomeKind) bool {
	switch kind {
	case OutcomeRateLimited, OutcomeTransient:
		return true
	default:
		return false
	}
}

// Delay returns the wait before the next attempt for a retryable outcome.
func (p RetryPolicy) Delay(kind OutcomeKind, attempt int) time.Duration {
	if kind == OutcomeRateLimited {
		return p.Backoff(attempt)
	}
	return p.TransientDelay
}
