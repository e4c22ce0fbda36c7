package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/vestra-data/signalgate/pkg/models"
)

// LoadItems reads raw headlines from the given daily databases, newest first,
// up to limit across all sources. RSS databases are recognized by file name
// and use the rss_items/rss_feeds schema; news databases use
// news_items/platforms.
func LoadItems(dbPaths []string, limit int) ([]models.NewsItem, error) {
	var all []models.NewsItem
	for _, path := range dbPaths {
		if len(all) >= limit {
			break
		}
		items, err := loadFrom(path, limit-len(all))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		all = append(all, items...)
	}
	return all, nil
}

// openReadOnly opens a daily database for querying only. The source files
// belong to the crawler; the scorer must never write to them.
func openReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?_pragma=query_only(1)")
}

func loadFrom(path string, limit int) ([]models.NewsItem, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// RSS databases use rss_items/rss_feeds with a "link" column; news
	// databases use news_items/platforms with "url".
	itemTable, platformTable, platformCol, urlCol, label := "news_items", "platforms", "platform_id", "url", "News"
	if strings.Contains(path, "rss") {
		itemTable, platformTable, platformCol, urlCol, label = "rss_items", "rss_feeds", "feed_id", "link", "RSS"
	}

	rows, err := db.Query(fmt.Sprintf(
		`SELECT n.id, n.title, n.%s, n.first_crawl_time, p.name
		 FROM %s n
		 LEFT JOIN %s p ON n.%s = p.id
		 ORDER BY n.id DESC
		 LIMIT ?`, urlCol, itemTable, platformTable, platformCol), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		var it models.NewsItem
		var url, crawl, platform sql.NullString
		if err := rows.Scan(&it.ID, &it.Title, &url, &crawl, &platform); err != nil {
			return nil, err
		}
		it.URL = url.String
		it.CrawlTime = crawl.String
		it.Platform = platform.String
		it.Source = label + "-" + platform.String
		items = append(items, it)
	}
	return items, rows.Err()
}
