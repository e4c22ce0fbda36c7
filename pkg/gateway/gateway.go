// Package gateway orchestrates LLM calls across an ordered provider list with
// a content-addressed response cache, a free-tier eligibility guard, and a
// classify-then-retry policy.
//
// Call flow per provider: cache lookup, eligibility check, dispatch, classify.
// Rate-limited and transient outcomes are retried against the same provider
// until the budget is exhausted; rejections advance immediately. When every
// provider fails the call terminates with ErrNoResult, never a panic, so
// batch callers can skip the item and continue.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vestra-data/signalgate/pkg/models"
)

// ErrNoResult is returned when every provider in the list was ineligible,
// unavailable, rejected, or exhausted its retries.
var ErrNoResult = errors.New("all providers failed")

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalgate_gateway_attempts_total",
		Help: "Total provider dispatch attempts by outcome",
	}, []string{"outcome"})

	skipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalgate_gateway_skips_total",
		Help: "Providers skipped without a network attempt, by reason",
	}, []string{"reason"})

	backoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signalgate_gateway_backoff_seconds",
		Help:    "Backoff duration before provider retries",
		Buckets: []float64{1, 2, 5, 10, 15, 30, 60},
	})

	noResultTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalgate_gateway_no_result_total",
		Help: "Calls that exhausted the entire provider list",
	})
)

// ResponseCache is the day-scoped cache consulted before any network attempt.
type ResponseCache interface {
	Get(provider string, payload []models.ChatMessage) (string, bool)
	Put(provider string, payload []models.ChatMessage, response string)
}

// Gateway composes the cache, guard, retry policy, and transport. All
// collaborators are constructed at startup and passed in; the gateway holds
// no ambient global state.
type Gateway struct {
	transport Transport
	cache     ResponseCache
	guard     Guard
	policy    RetryPolicy
	logger    zerolog.Logger

	// sleep is swapped out in tests so retries run instantly.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Gateway. cache may be nil to disable caching.
func New(transport Transport, cache ResponseCache, guard Guard, policy RetryPolicy) *Gateway {
	return &Gateway{
		transport: transport,
		cache:     cache,
		guard:     guard,
		policy:    policy,
		logger:    log.Logger,
		sleep:     sleepCtx,
	}
}

// Invoke tries each provider in order and returns the first cached or fresh
// response. Providers are tried strictly in list order with duplicates
// removed; within a provider, retries finish before the next provider is
// tried. On exhaustion it returns ErrNoResult.
func (g *Gateway) Invoke(ctx context.Context, providers []string, payload []models.ChatMessage, temperature float64) (string, error) {
	for _, provider := range dedupe(providers) {
		// A cache hit needs no network access and bypasses the guard.
		if g.cache != nil {
			if cached, ok := g.cache.Get(provider, payload); ok {
				g.logger.Debug().Str("provider", provider).Msg("cache hit")
				return cached, nil
			}
		}

		if !g.transport.Available(provider) {
			skipsTotal.WithLabelValues("unavailable").Inc()
			g.logger.Debug().Str("provider", provider).Msg("no credential, skipping")
			continue
		}

		if !g.guard.Eligible(provider) {
			skipsTotal.WithLabelValues("ineligible").Inc()
			g.logger.Info().Str("provider", provider).Msg("blocked by free-tier guard")
			continue
		}

		text, advance, err := g.tryProvider(ctx, provider, payload, temperature)
		if err != nil {
			return "", err
		}
		if !advance {
			return text, nil
		}
	}

	noResultTotal.Inc()
	return "", ErrNoResult
}

// tryProvider dispatches to one provider, applying the retry policy. It
// returns advance=true when the orchestrator should move to the next
// provider. A non-nil error only reports context cancellation.
func (g *Gateway) tryProvider(ctx context.Context, provider string, payload []models.ChatMessage, temperature float64) (text string, advance bool, err error) {
	for attempt := 0; attempt <= g.policy.MaxRetries; attempt++ {
		out := g.transport.Complete(ctx, provider, payload, temperature)
		attemptsTotal.WithLabelValues(string(out.Kind)).Inc()

		switch out.Kind {
		case OutcomeSuccess:
			if g.cache != nil {
				g.cache.Put(provider, payload, out.Text)
			}
			if attempt > 0 {
				g.logger.Info().Str("provider", provider).Int("attempt", attempt).Msg("succeeded after retry")
			}
			return out.Text, false, nil

		case OutcomeRejected:
			g.logger.Warn().Str("provider", provider).Int("status", out.StatusCode).Msg("rejected, trying next provider")
			return "", true, nil

		default: // rate-limited or transient
			if attempt >= g.policy.MaxRetries {
				g.logger.Warn().Str("provider", provider).Str("outcome", out.String()).Msg("retries exhausted, trying next provider")
				return "", true, nil
			}
			delay := g.policy.Delay(out.Kind, attempt)
			backoffSeconds.Observe(delay.Seconds())
			g.logger.Info().
				Str("provider", provider).
				Str("outcome", out.String()).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("retrying after backoff")
			if err := g.sleep(ctx, delay); err != nil {
				return "", false, fmt.Errorf("retry wait: %w", err)
			}
		}
	}
	return "", true, nil
}

// dedupe preserves order while dropping repeated provider identifiers.
func dedupe(providers []string) []string {
	seen := make(map[string]bool, len(providers))
	out := make([]string, 0, len(providers))
	for _, p := range providers {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
