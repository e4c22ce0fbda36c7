package models

// CacheEntry stores one cached LLM response, keyed by a content digest.
type CacheEntry struct {
	PromptHash  string `json:"prompt_hash"`
	Provider    string `json:"provider"`
	Response    string `json:"response"`
	CreatedDate string `json:"created_date"` // calendar day, YYYY-MM-DD
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
