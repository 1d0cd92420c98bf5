package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

const promptTemplate = `You are a procurement analyst for a food service distributor.

Customer: %s
Facility: %s

Per-product demand statistics (JSON):
%s

Using only the statistics above, respond with a single strict JSON object and
nothing else, using exactly these keys:
{
  "recommended_products": [{"product_id": "...", "rationale": "..."}],
  "ordering_schedule": [{"date": "YYYY-MM-DD", "products": ["..."]}],
  "insights": {
    "seasonal_trends": "...",
    "risk_assessment": "...",
    "cost_optimization": "..."
  }
}

Keep every rationale to one or two sentences grounded in the numbers provided.`

// BuildPrompt renders the statistics table into the narrative model prompt.
func BuildPrompt(customerID, facilityID string, stats []ProductStat) (string, error) {
	if len(stats) == 0 {
		return "", fmt.Errorf("no product statistics to summarize")
	}

	table, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal statistics table: %w", err)
	}

	return strings.TrimSpace(fmt.Sprintf(promptTemplate, customerID, facilityID, table)), nil
}
