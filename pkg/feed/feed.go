// Package feed crawls configured RSS sources into a per-day SQLite database.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vestra-data/signalgate/pkg/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Item is one parsed RSS entry.
type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

type rssDoc struct {
	Channel struct {
		Items []Item `xml:"item"`
	} `xml:"channel"`
}

// Crawler fetches feeds and stores their items.
type Crawler struct {
	feeds  []config.FeedConfig
	client *http.Client
	logger zerolog.Logger
}

// NewCrawler builds a Crawler over the configured feed roster.
func NewCrawler(feeds []config.FeedConfig) *Crawler {
	return &Crawler{
		feeds:  feeds,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: log.Logger,
	}
}

// Crawl fetches every configured feed and writes new items into the database
// at dbPath. A failing feed is logged and skipped; the crawl continues.
// It returns the number of items stored.
func (c *Crawler) Crawl(ctx context.Context, dbPath string) (int, error) {
	store, err := OpenStore(dbPath, c.feeds)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	total := 0
	for _, f := range c.feeds {
		items, err := c.fetch(ctx, f.URL)
		if err != nil {
			c.logger.Warn().Err(err).Str("feed", f.Name).Msg("feed fetch failed, skipping")
			continue
		}
		n, err := store.InsertItems(f.Name, items)
		if err != nil {
			c.logger.Warn().Err(err).Str("feed", f.Name).Msg("feed store failed, skipping")
			continue
		}
		c.logger.Info().Str("feed", f.Name).Int("fetched", len(items)).Int("new", n).Msg("feed crawled")
		total += n
	}
	return total, nil
}

func (c *Crawler) fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return Parse(body)
}

// Parse decodes an RSS 2.0 document into its items.
func Parse(data []byte) ([]Item, error) {
	var doc rssDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return doc.Channel.Items, nil
}
