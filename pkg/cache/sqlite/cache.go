// Package sqlite provides a day-scoped, content-addressed response cache.
//
// Keys are digests over (provider, canonical payload, calendar day), so the
// same request on a different day never reuses yesterday's answer. Multiple
// pipeline runs may share the database file; WAL mode and a busy timeout keep
// concurrent readers and writers safe.
package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/vestra-data/signalgate/pkg/models"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalgate_cache_hits_total",
		Help: "Total response cache hits",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalgate_cache_misses_total",
		Help: "Total response cache misses",
	})

	cacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalgate_cache_errors_total",
		Help: "Total cache storage errors by operation",
	}, []string{"operation"})
)

// Cache is the content-addressed response cache backed by SQLite.
type Cache struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS llm_response_cache (
	prompt_hash  TEXT PRIMARY KEY,
	provider     TEXT NOT NULL,
	response     TEXT NOT NULL,
	created_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_llm_date ON llm_response_cache (created_date);
`

// New opens the cache database, creating the schema if needed.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, logger: log.Logger, now: time.Now}, nil
}

// Key computes the cache key for a provider and payload on the given day.
// The digest covers the provider ID, the canonical JSON form of the payload,
// and the calendar day, so entries are day-scoped by construction.
func Key(provider string, payload []models.ChatMessage, day time.Time) string {
	canonical, _ := json.Marshal(payload)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", provider, canonical, day.UTC().Format("2006-01-02"))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the cached response for (provider, payload) today. Any storage
// error behaves as a miss; Get never fails the caller and never touches the
// network.
func (c *Cache) Get(provider string, payload []models.ChatMessage) (string, bool) {
	key := Key(provider, payload, c.now())

	var response string
	err := c.db.QueryRow(
		`SELECT response FROM llm_response_cache WHERE prompt_hash = ?`, key,
	).Scan(&response)
	if err != nil {
		if err != sql.ErrNoRows {
			cacheErrorsTotal.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Msg("cache read failed, treating as miss")
		}
		c.misses.Add(1)
		cacheMissesTotal.Inc()
		return "", false
	}

	c.hits.Add(1)
	cacheHitsTotal.Inc()
	return response, true
}

// Put upserts a response under today's key. Empty responses are not stored.
// Write failures are logged and swallowed: the response has already been
// obtained, so a caching failure must never fail the overall request.
func (c *Cache) Put(provider string, payload []models.ChatMessage, response string) {
	if response == "" {
		return
	}

	now := c.now()
	key := Key(provider, payload, now)
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO llm_response_cache (prompt_hash, provider, response, created_date)
		 VALUES (?, ?, ?, ?)`,
		key, provider, response, now.UTC().Format("2006-01-02"),
	)
	if err != nil {
		cacheErrorsTotal.WithLabelValues("put").Inc()
		c.logger.Warn().Err(err).Str("provider", provider).Msg("cache write failed")
	}
}

// Sweep deletes entries older than retentionDays and returns the number of
// rows removed. It is meant to run once per process lifetime at startup.
func (c *Cache) Sweep(retentionDays int) (int64, error) {
	cutoff := c.now().UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02")
	res, err := c.db.Exec(`DELETE FROM llm_response_cache WHERE created_date < ?`, cutoff)
	if err != nil {
		cacheErrorsTotal.WithLabelValues("sweep").Inc()
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.logger.Info().Int64("removed", n).Str("cutoff", cutoff).Msg("cache sweep complete")
	}
	return n, nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM llm_response_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM llm_response_cache`)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
