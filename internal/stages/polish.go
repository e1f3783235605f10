package stages

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"newsforge/internal/core"
	"newsforge/internal/llm"
	"newsforge/internal/logger"
)

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// Polish refines the body of every DRAFTED topic's article. The stage is
// status-neutral and idempotent: a failed AI call degrades to local
// whitespace normalization, and running it twice is harmless.
func (r *Runner) Polish(ctx context.Context, limit int) (int, error) {
	topics, err := r.Store.ListTopicsByStatus(core.TopicDrafted, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list drafted topics: %w", err)
	}

	polished := 0
	for _, topic := range topics {
		article, err := r.Store.GetArticleByTopic(topic.ID)
		if err != nil {
			return polished, fmt.Errorf("failed to load article for %s: %w", topic.ID, err)
		}
		if article == nil {
			logger.Warn("Drafted topic has no article, skipping polish", "topic", topic.ID)
			continue
		}

		body := r.polishBody(ctx, article.Body)
		if body == article.Body {
			polished++
			continue
		}

		if err := r.Store.UpdateArticleBody(article.ID, body); err != nil {
			return polished, fmt.Errorf("failed to update article %s: %w", article.ID, err)
		}
		polished++
	}

	return polished, nil
}

func (r *Runner) polishBody(ctx context.Context, body string) string {
	polished, err := r.AI.Generate(ctx, llm.TierFast, buildPolishPrompt(body), llm.Options{
		Temperature: 0.5,
		MaxTokens:   4096,
	})
	if err != nil {
		logger.Warn("Polish generation failed, applying local cleanup", "error", err.Error())
		return LocalPolish(body)
	}

	polished = strings.TrimSpace(polished)

	// A polish that dropped the citation block would fail verification
	// downstream; keep the original in that case.
	if strings.Contains(body, ":::source") && !strings.Contains(polished, ":::source") {
		logger.Warn("Polished body lost the citation block, keeping original")
		return LocalPolish(body)
	}

	return polished
}

// LocalPolish is the deterministic fallback: collapse runs of blank lines
// and strip trailing whitespace from every line.
func LocalPolish(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	cleaned := strings.Join(lines, "\n")
	cleaned = excessBlankLines.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
