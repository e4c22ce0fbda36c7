// Package pipeline runs the batch scoring loop: read raw headlines, score
// each one through the call gateway, persist the verdicts, and publish
// high-value items.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/gateway"
	"github.com/vestra-data/signalgate/pkg/models"
	"github.com/vestra-data/signalgate/pkg/store"
	newssync "github.com/vestra-data/signalgate/pkg/sync"
)

// Invoker is the call gateway surface the pipeline depends on.
type Invoker interface {
	Invoke(ctx context.Context, providers []string, payload []models.ChatMessage, temperature float64) (string, error)
}

// Summary reports what one pipeline run accomplished.
type Summary struct {
	Processed int
	HighValue int
	Synced    int
}

// Pipeline scores headlines and stores the results.
type Pipeline struct {
	gw        Invoker
	store     *store.Store
	publisher *newssync.Publisher // nil disables remote sync
	roster    []string
	minScore  int
	itemDelay time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	// sleep paces successive gateway calls; swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Pipeline. The provider roster is the default model followed by
// the fallback list; the gateway de-duplicates it.
func New(gw Invoker, st *store.Store, pub *newssync.Publisher, gwCfg config.GatewayConfig, scoring config.ScoringConfig) *Pipeline {
	roster := append([]string{gwCfg.DefaultModel}, gwCfg.FallbackModels...)
	return &Pipeline{
		gw:        gw,
		store:     st,
		publisher: pub,
		roster:    roster,
		minScore:  scoring.MinScore,
		itemDelay: scoring.ItemDelay,
		logger:    log.Logger,
		now:       time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// Run scores every unprocessed item. A headline the gateway cannot score is
// skipped, never a batch failure. Successive gateway calls are paced by the
// configured inter-item delay to respect upstream per-minute limits.
func (p *Pipeline) Run(ctx context.Context, items []models.NewsItem) (Summary, error) {
	var sum Summary
	first := true

	for _, item := range items {
		seen, err := p.store.Seen(ctx, item.ID, item.Platform)
		if err != nil {
			return sum, err
		}
		if seen {
			continue
		}

		if !first {
			if err := p.sleep(ctx, p.itemDelay); err != nil {
				return sum, err
			}
		}
		first = false

		p.logger.Info().Str("title", truncate(item.Title, 40)).Msg("scoring headline")
		verdict, err := p.analyze(ctx, item.Title)
		if err != nil {
			return sum, err
		}
		if verdict == nil {
			continue
		}

		scored := models.ScoredNews{
			OriginalID:  item.ID,
			Platform:    item.Platform,
			Title:       item.Title,
			URL:         item.URL,
			Score:       verdict.Score,
			Category:    models.NormalizeCategory(verdict.Category),
			Insight:     verdict.Reason,
			CrawlTime:   item.CrawlTime,
			ProcessedAt: p.now(),
		}
		if err := p.store.Record(ctx, scored); err != nil {
			return sum, err
		}

		sum.Processed++
		if scored.Score >= p.minScore {
			sum.HighValue++
			p.logger.Info().
				Int("score", scored.Score).
				Str("category", scored.Category).
				Str("reason", scored.Insight).
				Msg("high-value headline")
		}
	}

	if p.publisher != nil && sum.HighValue > 0 {
		rows, err := p.store.HighValue(ctx, p.now(), p.minScore)
		if err != nil {
			return sum, err
		}
		sum.Synced = p.publisher.Publish(ctx, rows)
		if err := p.publisher.Cleanup(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("remote cleanup failed")
		}
	}

	return sum, nil
}

// analyze scores one headline. A nil verdict with nil error means the item
// should be skipped: every provider failed or the reply was unparseable.
func (p *Pipeline) analyze(ctx context.Context, title string) (*models.Verdict, error) {
	resp, err := p.gw.Invoke(ctx, p.roster, ScoringMessages(title), 0.3)
	if err != nil {
		if errors.Is(err, gateway.ErrNoResult) {
			p.logger.Warn().Str("title", truncate(title, 40)).Msg("no provider could score, skipping")
			return nil, nil
		}
		return nil, err
	}

	verdict, err := ParseVerdict(resp)
	if err != nil {
		p.logger.Warn().Err(err).Str("title", truncate(title, 40)).Msg("unparseable verdict, skipping")
		return nil, nil
	}
	return verdict, nil
}

// truncate cuts on rune boundaries; headlines are mostly CJK text.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
