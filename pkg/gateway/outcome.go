package gateway

import (
	"context"
	"fmt"

	"github.com/vestra-data/signalgate/pkg/models"
)

// OutcomeKind classifies the result of a single provider call.
type OutcomeKind string

const (
	// OutcomeSuccess means the provider returned a usable response.
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeRateLimited means the provider returned an HTTP 429 equivalent.
	// Retryable with backoff against the same provider.
	OutcomeRateLimited OutcomeKind = "rate_limited"

	// OutcomeRejected means any other non-success response (bad request,
	// auth failure). Not retryable; the caller advances immediately.
	OutcomeRejected OutcomeKind = "rejected"

	// OutcomeTransient means a network or timeout failure. Retryable with
	// a short fixed delay, sharing the rate-limit retry budget.
	OutcomeTransient OutcomeKind = "transient"
)

// Outcome is the classified result of one transport attempt. The orchestrator
// consumes only this classification and never inspects raw HTTP status codes.
type Outcome struct {
	Kind       OutcomeKind
	Text       string // set when Kind == OutcomeSuccess
	StatusCode int    // set when Kind == OutcomeRejected
	Err        error  // set when Kind == OutcomeTransient
}

// Success builds a successful outcome carrying the response text.
func Success(text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

// RateLimited builds a rate-limited outcome.
func RateLimited() Outcome {
	return Outcome{Kind: OutcomeRateLimited}
}

// Rejected builds a non-retryable rejection carrying the status code.
func Rejected(statusCode int) Outcome {
	return Outcome{Kind: OutcomeRejected, StatusCode: statusCode}
}

// Transient builds a retryable network/timeout outcome.
func Transient(err error) Outcome {
	return Outcome{Kind: OutcomeTransient, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeRejected:
		return fmt.Sprintf("%s (status %d)", o.Kind, o.StatusCode)
	case OutcomeTransient:
		return fmt.Sprintf("%s (%v)", o.Kind, o.Err)
	default:
		return string(o.Kind)
	}
}

// Transport performs the actual network exchange with a provider and returns
// a classified outcome.
type Transport interface {
	// Complete sends the payload to the named provider model.
	Complete(ctx context.Context, provider string, payload []models.ChatMessage, temperature float64) Outcome

	// Available reports whether a credential is present for the provider
	// family. Unavailable providers are skipped without a network attempt.
	Available(provider string) bool
}
