package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"trendscope/internal/domain/trend"
)

const systemPrompt = `You are a cultural trend analyst combining social listening with behavioral economics.
Given a trend, produce a deep, actionable analysis. Be ultra-specific with zero generic statements,
quantify potential impact where possible, and include concrete next steps.

Output as JSON only, no other text:
{
  "context": "background on the trend's origin and current status",
  "social_listening": "what people are specifically saying, broken down by reaction and demographic",
  "behavioral_drivers": "the psychological motivations and cognitive biases driving adoption",
  "market_opportunities": "specific product gaps, service innovations and timing windows",
  "engagement_strategies": "concrete action plans for marketing, product and community",
  "risk_assessment": "backlash scenarios, regulatory considerations, sustainability forecast",
  "content_ideas": ["5 specific content concepts with headlines and core messaging"]
}`

// OpenAIEngine generates trend analyses via the OpenAI chat completion
// API. Calls are billed, so callers cache results; the engine itself is
// stateless.
type OpenAIEngine struct {
	client      *openai.Client
	model       openai.ChatModel
	callTimeout time.Duration
}

// Config configures the OpenAI analysis engine.
type Config struct {
	APIKey      string
	Model       string
	CallTimeout time.Duration
}

// NewOpenAIEngine creates an analysis engine.
func NewOpenAIEngine(cfg Config) *OpenAIEngine {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4o
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	return &OpenAIEngine{
		client:      &client,
		model:       model,
		callTimeout: cfg.CallTimeout,
	}
}

// Analyze produces a structured analysis for one trend record. The call
// is bounded by the configured timeout so an unresponsive backend
// cannot stall the request path.
func (e *OpenAIEngine) Analyze(ctx context.Context, record trend.Record) (trend.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(record)),
		},
	})
	if err != nil {
		return trend.Analysis{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return trend.Analysis{}, fmt.Errorf("no response from openai")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var parsed struct {
		Context              string   `json:"context"`
		SocialListening      string   `json:"social_listening"`
		BehavioralDrivers    string   `json:"behavioral_drivers"`
		MarketOpportunities  string   `json:"market_opportunities"`
		EngagementStrategies string   `json:"engagement_strategies"`
		RiskAssessment       string   `json:"risk_assessment"`
		ContentIdeas         []string `json:"content_ideas"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return trend.Analysis{}, fmt.Errorf("failed to parse analysis response: %w, content: %s", err, content)
	}

	return trend.Analysis{
		TrendName: record.Name,
		Source:    record.Source,
		Context:   parsed.Context,
		Insights: trend.Insights{
			SocialListening:      parsed.SocialListening,
			BehavioralDrivers:    parsed.BehavioralDrivers,
			MarketOpportunities:  parsed.MarketOpportunities,
			EngagementStrategies: parsed.EngagementStrategies,
			RiskAssessment:       parsed.RiskAssessment,
			ContentIdeas:         parsed.ContentIdeas,
		},
	}, nil
}

func buildPrompt(record trend.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trend: %s\nSource: %s\n", record.Name, record.Source)
	if record.Category != "" {
		fmt.Fprintf(&sb, "Category: %s\n", record.Category)
	}
	fmt.Fprintf(&sb, "Popularity score: %.0f\n", record.PopularityScore)

	if details, err := json.MarshalIndent(record.Details, "", "  "); err == nil {
		fmt.Fprintf(&sb, "\nAdditional information:\n%s\n", details)
	}
	return sb.String()
}

// cleanJSONResponse strips markdown code fences some models wrap around
// JSON output.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
