package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"newsforge/internal/core"
	"newsforge/internal/llm"
	"newsforge/internal/logger"
)

const (
	summaryBullets  = 3
	summaryMaxChars = 50
)

// outlineResponse is the JSON shape the model is asked for.
type outlineResponse struct {
	Genre    string                `json:"genre"`
	Sections []core.OutlineSection `json:"sections"`
	Summary  []string              `json:"summary"`
}

// Outline plans up to target NEW topics, highest score first. Transform
// failures degrade to a deterministic mock outline; the stage itself only
// fails on storage errors.
func (r *Runner) Outline(ctx context.Context, target int) (int, error) {
	topics, err := r.Store.ListTopicsByStatus(core.TopicNew, target)
	if err != nil {
		return 0, fmt.Errorf("failed to list new topics: %w", err)
	}

	outlined := 0
	for _, topic := range topics {
		outline, genre := r.buildOutline(ctx, topic)

		if err := r.Store.SaveTopicOutline(topic.ID, outline); err != nil {
			return outlined, fmt.Errorf("failed to save outline for %s: %w", topic.ID, err)
		}
		if genre != topic.Genre {
			if err := r.Store.UpdateTopicGenre(topic.ID, genre); err != nil {
				return outlined, fmt.Errorf("failed to update genre for %s: %w", topic.ID, err)
			}
		}
		if err := r.Store.UpdateTopicStatus(topic.ID, core.TopicOutlined); err != nil {
			return outlined, fmt.Errorf("failed to advance topic %s: %w", topic.ID, err)
		}
		outlined++
	}

	return outlined, nil
}

// buildOutline asks the model for an outline and degrades on any failure:
// a bad response yields the deterministic fallback, never an error.
func (r *Runner) buildOutline(ctx context.Context, topic core.Topic) (*core.TopicOutline, core.Genre) {
	raw, err := r.AI.Generate(ctx, llm.TierFast, buildOutlinePrompt(topic), llm.Options{
		Temperature: 0.6,
		MaxTokens:   2048,
	})
	if err != nil {
		logger.Warn("Outline generation failed, using fallback", "topic", topic.ID, "error", err.Error())
		return fallbackOutline(topic), topic.Genre
	}

	extracted, err := llm.ExtractJSONObject(raw)
	if err != nil {
		logger.Warn("Outline response had no JSON, using fallback", "topic", topic.ID)
		return fallbackOutline(topic), topic.Genre
	}

	var parsed outlineResponse
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil || len(parsed.Sections) == 0 {
		logger.Warn("Outline response unparseable, using fallback", "topic", topic.ID)
		return fallbackOutline(topic), topic.Genre
	}

	outline := &core.TopicOutline{
		Sections: parsed.Sections,
		Summary:  normalizeSummary(parsed.Summary, topic),
	}

	genre := core.Genre(strings.ToLower(strings.TrimSpace(parsed.Genre)))
	if !core.ValidGenre(genre) {
		genre = topic.Genre
		if !core.ValidGenre(genre) {
			genre = core.GenreOther
		}
	}

	return outline, genre
}

// normalizeSummary enforces the three-bullet contract: exactly three
// bullets of at most 50 characters. Anything else falls back to
// deterministic bullets.
func normalizeSummary(bullets []string, topic core.Topic) []string {
	if len(bullets) != summaryBullets {
		return fallbackSummary(topic)
	}

	out := make([]string, summaryBullets)
	for i, bullet := range bullets {
		out[i] = capBullet(strings.TrimSpace(bullet))
	}
	return out
}

// capBullet trims a bullet to the 50-character budget, preferring a
// sentence boundary, then hard-truncating with an ellipsis.
func capBullet(bullet string) string {
	runes := []rune(bullet)
	if len(runes) <= summaryMaxChars {
		return bullet
	}

	head := string(runes[:summaryMaxChars])
	if idx := strings.Index(head, ". "); idx > 0 {
		return head[:idx+1]
	}
	return string(runes[:summaryMaxChars-3]) + "..."
}

// fallbackSummary produces the deterministic bullets used whenever the
// model cannot.
func fallbackSummary(topic core.Topic) []string {
	return []string{
		capBullet("Key development: " + topic.Title),
		capBullet("Reported by " + topic.SourceName),
		capBullet("Full story at the original source"),
	}
}

// fallbackOutline is the full mock outline used when outline generation
// fails outright.
func fallbackOutline(topic core.Topic) *core.TopicOutline {
	return &core.TopicOutline{
		Sections: []core.OutlineSection{
			{
				Title:  "Overview",
				Points: []string{"What happened", "Why it matters"},
			},
			{
				Title:  "Key details",
				Points: []string{"Main facts from the report", "Context and background"},
			},
			{
				Title:  "What comes next",
				Points: []string{"Expected developments", "Where to follow the story"},
			},
		},
		Summary: fallbackSummary(topic),
	}
}
