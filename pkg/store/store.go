// Package store persists scored headlines and reads raw items out of the
// crawled daily databases.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vestra-data/signalgate/pkg/models"
)

// Store records and queries processed news in a local SQLite database.
type Store struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS processed_news (
	original_id   INTEGER,
	platform_name TEXT,
	title         TEXT,
	url           TEXT,
	score         INTEGER,
	category      TEXT,
	analysis      TEXT,
	crawl_time    TEXT,
	processed_at  TEXT,
	PRIMARY KEY (original_id, platform_name)
);
`

// New opens the processed-news database and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open news db: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate news db: %w", err)
	}
	return &Store{db: db}, nil
}

// Seen reports whether an item has already been processed.
func (s *Store) Seen(ctx context.Context, originalID int64, platform string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_news WHERE original_id = ? AND platform_name = ?`,
		originalID, platform,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seen check: %w", err)
	}
	return true, nil
}

// Record stores a scored headline. ProcessedAt is stored in the caller's
// clock; HighValue must be queried with the same clock.
func (s *Store) Record(ctx context.Context, n models.ScoredNews) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_news
		 (original_id, platform_name, title, url, score, category, analysis, crawl_time, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.OriginalID, n.Platform, n.Title, n.URL, n.Score, n.Category, n.Insight,
		n.CrawlTime, n.ProcessedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("record news: %w", err)
	}
	return nil
}

// HighValue returns items processed on the given day with score >= minScore.
func (s *Store) HighValue(ctx context.Context, day time.Time, minScore int) ([]models.ScoredNews, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT original_id, platform_name, title, url, score, category, analysis, crawl_time, processed_at
		 FROM processed_news
		 WHERE score >= ? AND processed_at LIKE ?`,
		minScore, day.Format("2006-01-02")+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query high value: %w", err)
	}
	defer rows.Close()

	var result []models.ScoredNews
	for rows.Next() {
		var n models.ScoredNews
		var processedAt string
		if err := rows.Scan(&n.OriginalID, &n.Platform, &n.Title, &n.URL,
			&n.Score, &n.Category, &n.Insight, &n.CrawlTime, &processedAt); err != nil {
			return nil, fmt.Errorf("scan high value: %w", err)
		}
		if t, err := time.Parse("2006-01-02 15:04:05", processedAt); err == nil {
			n.ProcessedAt = t
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
