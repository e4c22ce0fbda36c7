package feed

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vestra-data/signalgate/pkg/config"
)

const createFeedTables = `
CREATE TABLE IF NOT EXISTS rss_feeds (
	id       INTEGER PRIMARY KEY,
	name     TEXT UNIQUE,
	url      TEXT,
	category TEXT
);
CREATE TABLE IF NOT EXISTS rss_items (
	id               INTEGER PRIMARY KEY,
	feed_id          INTEGER,
	title            TEXT,
	link             TEXT,
	pub_date         TEXT,
	description      TEXT,
	first_crawl_time TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_rss_dedup ON rss_items (feed_id, title);
`

// Store writes crawled items into the per-day feed database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a feed database and registers the feed roster.
func OpenStore(dbPath string, feeds []config.FeedConfig) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open feed db: %w", err)
	}
	if _, err := db.Exec(createFeedTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate feed db: %w", err)
	}

	for _, f := range feeds {
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO rss_feeds (name, url, category) VALUES (?, ?, ?)`,
			f.Name, f.URL, f.Category,
		); err != nil {
			db.Close()
			return nil, fmt.Errorf("register feed %s: %w", f.Name, err)
		}
	}

	return &Store{db: db}, nil
}

// InsertItems stores the items for a named feed, skipping duplicates by
// (feed, title). It returns the number of newly inserted rows.
func (s *Store) InsertItems(feedName string, items []Item) (int, error) {
	var feedID int64
	err := s.db.QueryRow(`SELECT id FROM rss_feeds WHERE name = ?`, feedName).Scan(&feedID)
	if err != nil {
		return 0, fmt.Errorf("unknown feed %s: %w", feedName, err)
	}

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	inserted := 0
	for _, it := range items {
		if it.Title == "" {
			continue
		}
		res, err := s.db.Exec(
			`INSERT OR IGNORE INTO rss_items (feed_id, title, link, pub_date, description, first_crawl_time)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			feedID, it.Title, it.Link, it.PubDate, it.Description, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert item: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the conventional per-day database file name for a kind
// ("news" or "rss") and date.
func DBPath(kind string, day time.Time) string {
	return fmt.Sprintf("trendradar_%s_%s.db", kind, day.Format("2006-01-02"))
}
