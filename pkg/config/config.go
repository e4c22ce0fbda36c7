package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all signalgate configuration.
type Config struct {
	CacheDBPath string        `yaml:"cache_db_path"`
	NewsDBPath  string        `yaml:"news_db_path"`
	Gateway     GatewayConfig `yaml:"gateway"`
	Cache       CacheConfig   `yaml:"cache"`
	Feeds       []FeedConfig  `yaml:"feeds"`
	Storage     StorageConfig `yaml:"storage"`
	Sync        SyncConfig    `yaml:"sync"`
	Scoring     ScoringConfig `yaml:"scoring"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Log         LogConfig     `yaml:"log"`
}

// GatewayConfig controls the LLM call gateway.
type GatewayConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Referer        string        `yaml:"referer"`
	Title          string        `yaml:"title"`
	DefaultModel   string        `yaml:"default_model"`
	FallbackModels []string      `yaml:"fallback_models"`
	FreeOnly       bool          `yaml:"free_only"`
	FreeMarker     string        `yaml:"free_marker"`
	MaxRetries     int           `yaml:"max_retries"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	TransientDelay time.Duration `yaml:"transient_delay"`
	Timeout        time.Duration `yaml:"timeout"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// FeedConfig defines one RSS source.
type FeedConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// StorageConfig defines the S3-compatible object store holding daily databases.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// SyncConfig defines the remote table high-value news is published to.
type SyncConfig struct {
	URL           string `yaml:"url"`
	Key           string `yaml:"key"`
	Table         string `yaml:"table"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRows       int    `yaml:"max_rows"`
}

// ScoringConfig controls the batch scoring pipeline.
type ScoringConfig struct {
	MinScore  int           `yaml:"min_score"`
	ItemLimit int           `yaml:"item_limit"`
	ItemDelay time.Duration `yaml:"item_delay"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		CacheDBPath: "daily_signals.db",
		NewsDBPath:  "investment_news.db",
		Gateway: GatewayConfig{
			BaseURL:      "https://openrouter.ai/api/v1",
			APIKey:       "${OPENROUTER_API_KEY}",
			Referer:      "http://localhost:8501",
			Title:        "Signalgate",
			DefaultModel: "google/gemini-2.0-flash-exp:free",
			FallbackModels: []string{
				"xiaomi/mimo-v2-flash:free",
				"tngtech/deepseek-r1t2-chimera:free",
				"nex-agi/nex-n1-deepseek-v3.1:free",
				"google/gemma-3-27b-it:free",
				"meta-llama/llama-3.3-70b-instruct:free",
				"meta-llama/llama-3.1-405b-instruct:free",
				"nvidia/nemotron-3-nano-30b-a3b:free",
				"mistralai/devstral-2-2512:free",
				"kwaipilot/kat-coder-pro:free",
			},
			FreeOnly:       true,
			FreeMarker:     ":free",
			MaxRetries:     2,
			BaseDelay:      5 * time.Second,
			TransientDelay: 5 * time.Second,
			Timeout:        60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:       true,
			RetentionDays: 7,
		},
		Feeds: []FeedConfig{
			{Name: "MoneyDJ_TW", URL: "https://news.google.com/rss/search?q=site:moneydj.com&hl=zh-TW&gl=TW&ceid=TW:zh-Hant", Category: "Taiwan"},
			{Name: "Yahoo_TW_Market", URL: "https://tw.stock.yahoo.com/rss?category=tw-market", Category: "Taiwan"},
			{Name: "TW_Semiconductor", URL: "https://news.google.com/rss/search?q=%E5%8F%B0%E7%A9%8D%E9%9B%BB+OR+%E8%81%AF%E7%99%BC%E7%A7%91+OR+%E5%8D%8A%E5%B0%8E%E9%AB%94+when:1d&hl=zh-TW&gl=TW&ceid=TW:zh-Hant", Category: "Taiwan"},
			{Name: "CNBC_US", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10000664", Category: "US"},
			{Name: "TechCrunch_AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/", Category: "US"},
			{Name: "US_Tech_Giants", URL: "https://news.google.com/rss/search?q=NVIDIA+OR+Apple+OR+Microsoft+OR+AMD+when:1d&hl=en-US&gl=US&ceid=US:en", Category: "US"},
		},
		Storage: StorageConfig{
			Endpoint:  "${S3_ENDPOINT_URL}",
			AccessKey: "${S3_ACCESS_KEY_ID}",
			SecretKey: "${S3_SECRET_ACCESS_KEY}",
			Bucket:    "trendradar-news",
			Region:    "auto",
		},
		Sync: SyncConfig{
			URL:           "${SUPABASE_URL}",
			Key:           "${SUPABASE_KEY}",
			Table:         "ai_news",
			RetentionDays: 7,
			MaxRows:       100,
		},
		Scoring: ScoringConfig{
			MinScore:  5,
			ItemLimit: 60,
			ItemDelay: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Unset env vars leave the ${VAR} placeholder behind in defaults;
	// ExpandEnv only runs over the file contents, so clear leftovers here.
	cfg.expandDefaults()

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to environment-driven
// defaults when no config file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.expandDefaults()
		return cfg, nil
	}
	return Load(path)
}

func (c *Config) expandDefaults() {
	c.Gateway.APIKey = os.ExpandEnv(c.Gateway.APIKey)
	c.Storage.Endpoint = os.ExpandEnv(c.Storage.Endpoint)
	c.Storage.AccessKey = os.ExpandEnv(c.Storage.AccessKey)
	c.Storage.SecretKey = os.ExpandEnv(c.Storage.SecretKey)
	c.Sync.URL = os.ExpandEnv(c.Sync.URL)
	c.Sync.Key = os.ExpandEnv(c.Sync.Key)
}
