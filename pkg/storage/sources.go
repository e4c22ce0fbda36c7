package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vestra-data/signalgate/pkg/feed"
)

// PrepareSources returns the local paths of the daily databases to score.
// It tries to download today's news and rss databases; when neither is
// available (early in the day, or no storage configured) it falls back to the
// newest local news database and its matching rss file.
func PrepareSources(ctx context.Context, client *Client, day time.Time) []string {
	var paths []string

	if client != nil {
		for _, kind := range []string{"news", "rss"} {
			path, err := client.DownloadDB(ctx, kind, day)
			if err != nil {
				if !IsNotFound(err) {
					log.Warn().Err(err).Str("kind", kind).Msg("daily db download failed")
				}
				continue
			}
			paths = append(paths, path)
		}
	}

	if len(paths) > 0 {
		return paths
	}

	log.Info().Msg("no data for today yet, looking for local history")
	matches, _ := filepath.Glob("trendradar_news_*.db")
	if len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)
	latest := matches[len(matches)-1]
	paths = append(paths, latest)

	datePart := strings.TrimSuffix(strings.TrimPrefix(latest, "trendradar_news_"), ".db")
	if t, err := time.Parse("2006-01-02", datePart); err == nil {
		rssPath := feed.DBPath("rss", t)
		if _, err := os.Stat(rssPath); err == nil {
			paths = append(paths, rssPath)
		}
	}
	return paths
}
