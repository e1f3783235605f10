package stages

import (
	"context"
	"fmt"

	"newsforge/internal/core"
	"newsforge/internal/logger"
)

// Publish releases up to limit VERIFIED topics. Publishing is a pure
// state transition: no AI call, and republishing an already published
// article is a silent no-op so the stage can be rerun safely.
func (r *Runner) Publish(ctx context.Context, limit int) (int, error) {
	topics, err := r.Store.ListTopicsByStatus(core.TopicVerified, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list verified topics: %w", err)
	}

	published := 0
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		article, err := r.Store.GetArticleByTopic(topic.ID)
		if err != nil {
			return published, fmt.Errorf("failed to load article for %s: %w", topic.ID, err)
		}
		if article == nil {
			logger.Warn("Verified topic has no article, skipping publish", "topic", topic.ID)
			continue
		}

		if article.Status != core.ArticlePublished {
			if err := r.Store.UpdateArticleStatus(article.ID, core.ArticlePublished); err != nil {
				return published, fmt.Errorf("failed to publish article %s: %w", article.ID, err)
			}
		}
		if err := r.Store.UpdateTopicStatus(topic.ID, core.TopicPublished); err != nil {
			return published, fmt.Errorf("failed to advance topic %s: %w", topic.ID, err)
		}

		logger.Info("Published article", "topic", topic.ID, "slug", article.Slug)
		published++
	}

	return published, nil
}
