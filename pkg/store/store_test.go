package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vestra-data/signalgate/pkg/models"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "news_test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, context.Background()
}

func scored(id int64, platform string, score int, at time.Time) models.ScoredNews {
	return models.ScoredNews{
		OriginalID:  id,
		Platform:    platform,
		Title:       "headline",
		URL:         "https://example.com",
		Score:       score,
		Category:    "finance",
		Insight:     "matters",
		ProcessedAt: at,
	}
}

func TestRecordAndSeen(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()

	seen, err := s.Seen(ctx, 1, "cnbc")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("fresh item must not be seen")
	}

	if err := s.Record(ctx, scored(1, "cnbc", 7, now)); err != nil {
		t.Fatal(err)
	}

	seen, err = s.Seen(ctx, 1, "cnbc")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("recorded item must be seen")
	}

	// Same id on a different platform is a distinct item.
	seen, err = s.Seen(ctx, 1, "techcrunch")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("same id on another platform must not be seen")
	}
}

func TestHighValueSeesRowsAheadOfUTC(t *testing.T) {
	s, ctx := newTestStore(t)

	// Shortly after local midnight in a zone ahead of UTC the row and the
	// query must agree on the day.
	taipei := time.FixedZone("CST", 8*3600)
	now := time.Date(2026, 8, 31, 1, 0, 0, 0, taipei)

	if err := s.Record(ctx, scored(1, "moneydj", 9, now)); err != nil {
		t.Fatal(err)
	}

	rows, err := s.HighValue(ctx, now, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("row recorded at %v must be visible the same run, got %d rows", now, len(rows))
	}
}

func TestOpenEnablesWAL(t *testing.T) {
	s, _ := newTestStore(t)

	var mode string
	if err := s.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestHighValueFiltersByScoreAndDay(t *testing.T) {
	s, ctx := newTestStore(t)
	today := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	_ = s.Record(ctx, scored(1, "cnbc", 8, today))
	_ = s.Record(ctx, scored(2, "cnbc", 3, today))
	_ = s.Record(ctx, scored(3, "cnbc", 9, yesterday))

	rows, err := s.HighValue(ctx, today, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 high-value row, got %d", len(rows))
	}
	if rows[0].OriginalID != 1 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}
