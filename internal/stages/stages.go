// Package stages implements the article production state machine: outline,
// draft, polish, verify, publish. Every AI-dependent stage degrades to a
// deterministic fallback instead of blocking the run.
package stages

import (
	"context"

	"newsforge/internal/core"
	"newsforge/internal/llm"
)

// Transformer is the AI text-generation dependency. *llm.Client satisfies
// it; tests substitute fakes.
type Transformer interface {
	Generate(ctx context.Context, tier llm.Tier, prompt string, opts llm.Options) (string, error)
}

// Store is the persistence surface the stages need.
type Store interface {
	ListTopicsByStatus(status core.TopicStatus, limit int) ([]core.Topic, error)
	GetTopic(id string) (*core.Topic, error)
	UpdateTopicStatus(id string, status core.TopicStatus) error
	UpdateTopicGenre(id string, genre core.Genre) error
	UpdateTopicScore(id string, score float64) error
	SaveTopicOutline(id string, outline *core.TopicOutline) error
	GetArticleByTopic(topicID string) (*core.Article, error)
	SaveArticle(article core.Article) error
	UpdateArticleBody(id, body string) error
	UpdateArticleStatus(id string, status core.ArticleStatus) error
}

// Runner executes the production stages against a store and an AI
// transformer.
type Runner struct {
	AI    Transformer
	Store Store
}

// NewRunner wires a stage runner.
func NewRunner(ai Transformer, store Store) *Runner {
	return &Runner{AI: ai, Store: store}
}
