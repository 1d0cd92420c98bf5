package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/demandcast/backend-go/internal/domain"
)

// ProductStat is one row of the statistics table handed to the narrative
// model.
type ProductStat struct {
	ProductID      string            `json:"product_id"`
	ProductName    string            `json:"product_name"`
	AvgDemand      float64           `json:"avg_demand"`
	Trend          domain.TrendClass `json:"trend"`
	Confidence     float64           `json:"confidence"`
	QuantileSpread float64           `json:"quantile_spread"`
}

// Result is the structured narrative payload extracted from the model's
// response.
type Result struct {
	RecommendedProducts []ProductInsight        `json:"recommended_products"`
	OrderingSchedule    []ScheduleHint          `json:"ordering_schedule"`
	Insights            domain.InsightNarrative `json:"insights"`
}

// ProductInsight carries per-product narrative from the model.
type ProductInsight struct {
	ProductID string `json:"product_id"`
	Rationale string `json:"rationale"`
}

// ScheduleHint is the model's view of the ordering schedule. Advisory only;
// the deterministic schedule built from order spacing is authoritative.
type ScheduleHint struct {
	Date     string   `json:"date"`
	Products []string `json:"products"`
}

// Client generates narrative insight for a scored product set.
type Client interface {
	Generate(ctx context.Context, customerID, facilityID string, stats []ProductStat) (*Result, error)
}

// Config for the chat-completion backed client. BaseURL may point at any
// OpenAI-compatible endpoint.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

type llmClient struct {
	api       *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int
}

func NewClient(cfg Config) Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	return &llmClient{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *llmClient) Generate(ctx context.Context, customerID, facilityID string, stats []ProductStat) (*Result, error) {
	prompt, err := BuildPrompt(customerID, facilityID, stats)
	if err != nil {
		return nil, fmt.Errorf("build insight prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrInsightTimeout
		}
		return nil, fmt.Errorf("insight call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.InsightParseError{Reason: "empty completion"}
	}

	return ParseResult(resp.Choices[0].Message.Content)
}

// ParseResult extracts the first balanced JSON object from the model's raw
// text and decodes it. Anything else is an InsightParseError; the caller
// substitutes templated rationale.
func ParseResult(text string) (*Result, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &domain.InsightParseError{Reason: "invalid json payload: " + err.Error()}
	}
	return &result, nil
}

// ExtractJSON returns the first balanced {...} span in the text. String
// literals are honored so braces inside them do not affect balancing.
func ExtractJSON(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}

	if start < 0 {
		return "", &domain.InsightParseError{Reason: "no json object in response"}
	}
	return "", &domain.InsightParseError{Reason: "unbalanced json object in response"}
}
