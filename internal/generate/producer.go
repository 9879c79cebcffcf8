package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"wordwebs/internal/config"
	"wordwebs/internal/models"
)

// PromptConfig carries the prompt-construction parameters for one
// generation call. A single producer handles every prompt variant; the
// config selects theme, avoid-list and creativity instead of separate
// producer types.
type PromptConfig struct {
	Theme           string
	AvoidCategories []string
	Model           string
	// Temperature pins the sampling temperature; nil uses the default.
	// Zero is a valid, deterministic setting.
	Temperature *float32
}

const defaultTemperature = 0.7

// Producer returns one raw candidate puzzle (4 groups) per call.
type Producer interface {
	Produce(ctx context.Context, prompt PromptConfig) ([]models.Group, error)
}

// GeminiProducer drives Gemini through its OpenAI-compatible chat
// endpoint.
type GeminiProducer struct {
	client       *openai.Client
	defaultModel string
}

// NewGeminiProducer builds the producer from config (API key, base URL,
// default model).
func NewGeminiProducer(cfg *config.Config) *GeminiProducer {
	clientCfg := openai.DefaultConfig(cfg.GeminiAPIKey)
	clientCfg.BaseURL = cfg.GeminiBaseURL

	return &GeminiProducer{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.GeminiModel,
	}
}

func (p *GeminiProducer) Produce(ctx context.Context, prompt PromptConfig) ([]models.Group, error) {
	model := prompt.Model
	if model == "" {
		model = p.defaultModel
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: effectiveTemperature(prompt.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(prompt)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("gemini returned no choices")
	}

	return parseCandidate(resp.Choices[0].Message.Content)
}

// effectiveTemperature resolves the request temperature. The client
// marshals Temperature with omitempty, so an explicit zero is sent as
// the smallest positive float to keep it on the wire.
func effectiveTemperature(t *float32) float32 {
	if t == nil {
		return defaultTemperature
	}
	if *t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return *t
}

// buildPrompt assembles the generation prompt, optionally themed and
// steering away from recently used categories.
func buildPrompt(prompt PromptConfig) string {
	var b strings.Builder

	themeClause := ""
	if prompt.Theme != "" {
		themeClause = " related to " + prompt.Theme
	}

	fmt.Fprintf(&b, `Create a word puzzle game like NYT Connections%s. Generate exactly 16 words that form 4 groups of 4 words each.

Rules:
- Each group should have a clear connection/category, but make it tricky like NYT Connections
- Words should be single words only (no phrases, no proper nouns)
- Difficulty levels: 1 (easiest/most obvious), 2 (medium), 3 (harder), 4 (hardest/most deceptive)
- Groups should have varied difficulty levels (one of each: 1, 2, 3, 4)
- IMPORTANT: Include words that could seemingly belong to multiple categories to create red herrings
- Difficulty 4 should have an unexpected or clever connection that's not immediately obvious
- Some words should be deliberately misleading - they look like they go with one group but actually belong to another
- Make players second-guess their choices, especially for harder difficulties
`, themeClause)

	if len(prompt.AvoidCategories) > 0 {
		fmt.Fprintf(&b, "- Do NOT reuse any of these recently used categories: %s\n",
			strings.Join(prompt.AvoidCategories, ", "))
	}

	b.WriteString(`
Return ONLY a valid JSON object in this exact format:
{
  "groups": [
    {"words": ["WORD1", "WORD2", "WORD3", "WORD4"], "category": "CATEGORY NAME", "difficulty": 1},
    {"words": ["WORD5", "WORD6", "WORD7", "WORD8"], "category": "CATEGORY NAME", "difficulty": 2},
    {"words": ["WORD9", "WORD10", "WORD11", "WORD12"], "category": "CATEGORY NAME", "difficulty": 3},
    {"words": ["WORD13", "WORD14", "WORD15", "WORD16"], "category": "CATEGORY NAME", "difficulty": 4}
  ]
}`)

	return b.String()
}

// parseCandidate extracts the JSON object from a model response that
// may wrap it in prose or code fences.
func parseCandidate(response string) ([]models.Group, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var candidate struct {
		Groups []models.Group `json:"groups"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &candidate); err != nil {
		return nil, fmt.Errorf("malformed candidate JSON: %w", err)
	}
	return candidate.Groups, nil
}
