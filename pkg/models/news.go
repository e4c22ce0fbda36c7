package models

import "time"

// NewsItem is a raw headline read from a crawled news or RSS database.
type NewsItem struct {
	ID        int64  `json:"id"`
	Platform  string `json:"platform"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	CrawlTime string `json:"crawl_time"`
	Source    string `json:"source"` // "News-<platform>" or "RSS-<feed>"
}

// Verdict is the structured scoring result returned by the model.
type Verdict struct {
	Score    int    `json:"score"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// ScoredNews is a processed headline with its verdict attached.
type ScoredNews struct {
	OriginalID  int64     `json:"original_id"`
	Platform    string    `json:"platform"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Score       int       `json:"score"`
	Category    string    `json:"category"`
	Insight     string    `json:"insight"`
	CrawlTime   string    `json:"crawl_time"`
	ProcessedAt time.Time `json:"processed_at"`
}

// AllowedCategories is the category whitelist enforced by the downstream
// table's CHECK constraint. Anything else is folded into "other".
var AllowedCategories = []string{
	"semiconductor",
	"ai-tech",
	"finance",
	"industrial-shipping",
	"macro-policy",
	"other",
}

// NormalizeCategory folds unknown categories into "other".
func NormalizeCategory(cat string) string {
	for _, c := range AllowedCategories {
		if c == cat {
			return cat
		}
	}
	return "other"
}
