// Package sync publishes high-value headlines to a Supabase-style PostgREST
// table and enforces its retention policy.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/models"
)

// ErrNotConfigured is returned when no sync endpoint is configured.
var ErrNotConfigured = errors.New("sync not configured")

// Publisher upserts rows into the remote table over the PostgREST API.
type Publisher struct {
	baseURL       string
	key           string
	table         string
	retentionDays int
	maxRows       int
	client        *http.Client
	logger        zerolog.Logger
	now           func() time.Time
}

// New builds a Publisher from configuration.
func New(cfg config.SyncConfig) (*Publisher, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, ErrNotConfigured
	}
	return &Publisher{
		baseURL:       strings.TrimSuffix(cfg.URL, "/"),
		key:           cfg.Key,
		table:         cfg.Table,
		retentionDays: cfg.RetentionDays,
		maxRows:       cfg.MaxRows,
		client:        &http.Client{Timeout: 30 * time.Second},
		logger:        log.Logger,
		now:           time.Now,
	}, nil
}

type remoteRow struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	Score     int    `json:"score"`
	Category  string `json:"category"`
	Insight   string `json:"insight"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// Publish check-and-upserts the given rows by (title, source) and returns how
// many synced. Per-row failures are logged and skipped so one bad row never
// aborts the batch.
func (p *Publisher) Publish(ctx context.Context, rows []models.ScoredNews) int {
	synced := 0
	for _, n := range rows {
		row := remoteRow{
			Title:     CleanText(n.Title),
			Score:     n.Score,
			Category:  models.NormalizeCategory(CleanText(n.Category)),
			Insight:   CleanText(n.Insight),
			URL:       CleanText(n.URL),
			Source:    CleanText(n.Platform),
			CreatedAt: n.ProcessedAt.UTC().Format(time.RFC3339),
		}
		if err := p.upsert(ctx, row); err != nil {
			p.logger.Warn().Err(err).Str("title", truncate(n.Title, 40)).Msg("sync failed, skipping row")
			continue
		}
		synced++
	}
	return synced
}

func (p *Publisher) upsert(ctx context.Context, row remoteRow) error {
	existing, err := p.findID(ctx, row.Title, row.Source)
	if err != nil {
		return err
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if existing > 0 {
		endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%d", p.baseURL, p.table, existing)
		return p.do(ctx, http.MethodPatch, endpoint, body)
	}
	endpoint := fmt.Sprintf("%s/rest/v1/%s", p.baseURL, p.table)
	return p.do(ctx, http.MethodPost, endpoint, body)
}

// findID returns the id of an existing row with the same title and source,
// or 0 when absent.
func (p *Publisher) findID(ctx context.Context, title, source string) (int64, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=id&title=eq.%s&source=eq.%s&limit=1",
		p.baseURL, p.table, url.QueryEscape(title), url.QueryEscape(source))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	p.auth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("select returned %d", resp.StatusCode)
	}

	var found []remoteRow
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(data, &found); err != nil {
		return 0, fmt.Errorf("decode select: %w", err)
	}
	if len(found) == 0 {
		return 0, nil
	}
	return found[0].ID, nil
}

// Cleanup deletes rows older than the retention window and trims the table
// down to the newest maxRows entries.
func (p *Publisher) Cleanup(ctx context.Context) error {
	cutoff := p.now().UTC().AddDate(0, 0, -p.retentionDays).Format("2006-01-02")
	endpoint := fmt.Sprintf("%s/rest/v1/%s?created_at=lt.%s", p.baseURL, p.table, cutoff)
	if err := p.do(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("retention delete: %w", err)
	}

	ids, err := p.overflowIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%d", p.baseURL, p.table, id)
		if err := p.do(ctx, http.MethodDelete, endpoint, nil); err != nil {
			return fmt.Errorf("cap delete: %w", err)
		}
	}
	if len(ids) > 0 {
		p.logger.Info().Int("removed", len(ids)).Int("cap", p.maxRows).Msg("trimmed remote table to row cap")
	}
	return nil
}

// overflowIDs returns the ids of rows beyond the newest maxRows.
func (p *Publisher) overflowIDs(ctx context.Context) ([]int64, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=id&order=created_at.desc&offset=%d",
		p.baseURL, p.table, p.maxRows)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	p.auth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overflow select returned %d", resp.StatusCode)
	}

	var found []remoteRow
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, fmt.Errorf("decode overflow select: %w", err)
	}
	ids := make([]int64, 0, len(found))
	for _, r := range found {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (p *Publisher) do(ctx context.Context, method, endpoint string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	p.auth(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s returned %d: %s", method, resp.StatusCode, msg)
	}
	return nil
}

func (p *Publisher) auth(req *http.Request) {
	req.Header.Set("apikey", p.key)
	req.Header.Set("Authorization", "Bearer "+p.key)
}

// CleanText strips NUL bytes and control characters that break JSON encoding
// downstream.
func CleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (unicode.IsControl(r) && r != '\n' && r != '\t') {
			return -1
		}
		return r
	}, s)
}

// truncate cuts on rune boundaries; headlines are mostly CJK text.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
