package stages

import (
	"context"
	"encoding/json"
	"strings"

	"newsforge/internal/core"
	"newsforge/internal/llm"
	"newsforge/internal/logger"
)

type scoreEntry struct {
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Rescore blends an AI newsworthiness rating into the heuristic score of
// the given topics. Any model failure leaves the heuristic scores in
// place; rescoring never blocks a run.
func (r *Runner) Rescore(ctx context.Context, topics []core.Topic) error {
	if len(topics) == 0 {
		return nil
	}

	entries, err := r.scoreTopics(ctx, topics)
	if err != nil {
		logger.Warn("AI rescoring failed, keeping heuristic scores", "error", err.Error())
		return nil
	}

	byTitle := make(map[string]float64, len(entries))
	for _, e := range entries {
		byTitle[strings.ToLower(strings.TrimSpace(e.Title))] = e.Score
	}

	for _, topic := range topics {
		model, ok := byTitle[strings.ToLower(strings.TrimSpace(topic.Title))]
		if !ok {
			continue
		}
		blended := BlendScore(topic.Score, model)
		if blended == topic.Score {
			continue
		}
		if err := r.Store.UpdateTopicScore(topic.ID, blended); err != nil {
			logger.Warn("Failed to persist blended score", "topic", topic.ID, "error", err.Error())
		}
	}

	return nil
}

func (r *Runner) scoreTopics(ctx context.Context, topics []core.Topic) ([]scoreEntry, error) {
	raw, err := r.AI.Generate(ctx, llm.TierFast, buildScorePrompt(topics), llm.Options{
		Temperature: 0.5,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, err
	}

	extracted, err := llm.ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var entries []scoreEntry
	if err := json.Unmarshal([]byte(extracted), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// BlendScore averages the heuristic score with a 0-100 model rating
// mapped onto the same 0-1 scale. Out-of-range ratings are clamped.
func BlendScore(heuristic, model float64) float64 {
	if model < 0 {
		model = 0
	}
	if model > 100 {
		model = 100
	}
	return (heuristic + model/100) / 2
}
