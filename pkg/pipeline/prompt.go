package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vestra-data/signalgate/pkg/models"
)

const systemPrompt = `You are a chief investment analyst covering the Taiwan (TWSE) and US (NASDAQ/NYSE/S&P) equity markets. Your task is to filter noisy news for items with real market impact. Reply strictly in JSON.`

const userPromptTemplate = `Headline: %q

Analyze from a Taiwan/US equity investor's perspective and reply with JSON:
{
  "score": 1-10 (integer),
  "category": "semiconductor" | "ai-tech" | "finance" | "industrial-shipping" | "macro-policy" | "other",
  "reason": "short rationale (under 20 words)"
}

Scoring guide:
- 10 (market mover): major shocks (war, Fed moves), TSMC/NVIDIA/Apple/AMD earnings surprises, national policy hitting supply chains.
- 8-9 (high impact): large-cap revenue or guidance, major M&A.
- 6-7 (moderate): semiconductor/AI supply chain news, US big tech moves, key commodity prices.
- 4-5 (low): routine single-stock moves, non-core sectors, scheduled filings.
- 1-3 (noise): local crime or social stories, political bickering without economic content, ads, entertainment, sports.`

// ScoringMessages builds the chat payload for scoring one headline.
func ScoringMessages(title string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, title)},
	}
}

// ParseVerdict extracts the scoring verdict from a raw model reply. Markdown
// code fences are stripped and a list-wrapped object is accepted, since
// models drift on both.
func ParseVerdict(raw string) (*models.Verdict, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var v models.Verdict
	if err := json.Unmarshal([]byte(clean), &v); err == nil && v.Score > 0 {
		return &v, nil
	}

	var list []models.Verdict
	if err := json.Unmarshal([]byte(clean), &list); err == nil && len(list) > 0 && list[0].Score > 0 {
		return &list[0], nil
	}

	return nil, fmt.Errorf("no verdict in reply: %.60s", clean)
}
