// Package llm wraps the Gemini API behind the two model tiers the content
// pipeline uses: a fast tier for outlining, polishing, and verification,
// and an accurate tier for drafting.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"newsforge/internal/retry"
)

const (
	// DefaultFastModel handles high-volume, low-stakes transforms.
	DefaultFastModel = "gemini-2.5-flash"
	// DefaultAccurateModel handles full article drafting.
	DefaultAccurateModel = "gemini-2.5-pro"

	defaultTemperature = float32(0.7)
	defaultMaxTokens   = int32(4096)
	defaultTopK        = float32(40)
	defaultTopP        = float32(0.95)
)

// Tier selects the model quality/cost tradeoff for one call.
type Tier string

const (
	TierFast     Tier = "fast"
	TierAccurate Tier = "accurate"
)

// Options tunes a single generation call. Zero values fall back to the
// defaults above.
type Options struct {
	Temperature float32
	MaxTokens   int32
}

// Client is a Gemini API client with per-tier model routing. All calls run
// through the retry executor: quota rejections back off and retry, other
// failures surface immediately.
type Client struct {
	gClient       *genai.Client
	fastModel     string
	accurateModel string
	retryOpts     retry.Options
}

// NewClient creates a Gemini client. Empty model names use the defaults.
func NewClient(ctx context.Context, apiKey, fastModel, accurateModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GEMINI_API_KEY or gemini.api_key)")
	}
	if fastModel == "" {
		fastModel = DefaultFastModel
	}
	if accurateModel == "" {
		accurateModel = DefaultAccurateModel
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		gClient:       gClient,
		fastModel:     fastModel,
		accurateModel: accurateModel,
		retryOpts:     retry.DefaultOptions(),
	}, nil
}

func (c *Client) model(tier Tier) string {
	if tier == TierAccurate {
		return c.accurateModel
	}
	return c.fastModel
}

// Generate produces text for prompt on the given tier. An empty candidate
// is treated as an error so callers never persist blank content.
func (c *Client) Generate(ctx context.Context, tier Tier, prompt string, opts Options) (string, error) {
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		TopK:            genai.Ptr(defaultTopK),
		TopP:            genai.Ptr(defaultTopP),
		MaxOutputTokens: maxTokens,
	}

	model := c.model(tier)
	return retry.DoValue(ctx, c.retryOpts, func(ctx context.Context) (string, error) {
		resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, config)
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}

		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("empty response from model %s", model)
		}
		return text, nil
	})
}
