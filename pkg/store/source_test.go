package store

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func writeRawDB(t *testing.T, path, schema string, inserts []string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	for _, stmt := range inserts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenReadOnlyRefusesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendradar_news_2026-08-31.db")
	writeRawDB(t, path, newsSchema, nil)

	db, err := openReadOnly(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO platforms VALUES (1, 'x')`); err == nil {
		t.Error("write through a read-only connection must fail")
	}
}

const newsSchema = `
CREATE TABLE platforms (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE news_items (id INTEGER PRIMARY KEY, platform_id INTEGER, title TEXT, url TEXT, first_crawl_time TEXT);
`

const rssSchema = `
CREATE TABLE rss_feeds (id INTEGER PRIMARY KEY, name TEXT, url TEXT, category TEXT);
CREATE TABLE rss_items (id INTEGER PRIMARY KEY, feed_id INTEGER, title TEXT, link TEXT, pub_date TEXT, description TEXT, first_crawl_time TEXT);
`

func TestLoadItemsFromNewsDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendradar_news_2026-08-31.db")
	writeRawDB(t, path, newsSchema, []string{
		`INSERT INTO platforms VALUES (1, 'wallstreetcn')`,
		`INSERT INTO news_items VALUES (1, 1, 'older headline', 'https://example.com/1', '2026-08-31 08:00:00')`,
		`INSERT INTO news_items VALUES (2, 1, 'newer headline', 'https://example.com/2', '2026-08-31 09:00:00')`,
	})

	items, err := LoadItems([]string{path}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Newest first.
	if items[0].Title != "newer headline" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[0].Platform != "wallstreetcn" {
		t.Errorf("unexpected platform: %s", items[0].Platform)
	}
	if items[0].Source != "News-wallstreetcn" {
		t.Errorf("unexpected source label: %s", items[0].Source)
	}
}

func TestLoadItemsFromRSSDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendradar_rss_2026-08-31.db")
	writeRawDB(t, path, rssSchema, []string{
		`INSERT INTO rss_feeds VALUES (1, 'cnbc', 'https://example.com/rss', 'Finance')`,
		`INSERT INTO rss_items VALUES (1, 1, 'rss headline', 'https://example.com/r1', '', '', '2026-08-31 07:00:00')`,
	})

	items, err := LoadItems([]string{path}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].URL != "https://example.com/r1" {
		t.Errorf("unexpected url: %s", items[0].URL)
	}
	if items[0].Source != "RSS-cnbc" {
		t.Errorf("unexpected source label: %s", items[0].Source)
	}
}

func TestLoadItemsRespectsGlobalLimit(t *testing.T) {
	newsPath := filepath.Join(t.TempDir(), "trendradar_news_2026-08-31.db")
	writeRawDB(t, newsPath, newsSchema, []string{
		`INSERT INTO platforms VALUES (1, 'p')`,
		`INSERT INTO news_items VALUES (1, 1, 'a', '', '')`,
		`INSERT INTO news_items VALUES (2, 1, 'b', '', '')`,
		`INSERT INTO news_items VALUES (3, 1, 'c', '', '')`,
	})

	items, err := LoadItems([]string{newsPath}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("expected limit of 2, got %d", len(items))
	}
}
