package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsforge/internal/core"
	"newsforge/internal/llm"
	"newsforge/internal/logger"
)

const slugMaxLen = 50

// Draft writes an article for up to limit OUTLINED topics. Generation
// failures degrade to a skeleton body built from the outline; the article
// is always produced.
func (r *Runner) Draft(ctx context.Context, limit int) (int, error) {
	topics, err := r.Store.ListTopicsByStatus(core.TopicOutlined, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list outlined topics: %w", err)
	}

	drafted := 0
	for _, topic := range topics {
		outline := topic.Outline
		if outline == nil {
			outline = fallbackOutline(topic)
		}

		content := r.generateBody(ctx, topic, outline)
		article := composeArticle(topic, outline, content)

		if err := r.Store.SaveArticle(article); err != nil {
			return drafted, fmt.Errorf("failed to save draft for %s: %w", topic.ID, err)
		}
		if err := r.Store.UpdateTopicStatus(topic.ID, core.TopicDrafted); err != nil {
			return drafted, fmt.Errorf("failed to advance topic %s: %w", topic.ID, err)
		}
		drafted++
	}

	return drafted, nil
}

func (r *Runner) generateBody(ctx context.Context, topic core.Topic, outline *core.TopicOutline) string {
	content, err := r.AI.Generate(ctx, llm.TierAccurate, buildDraftPrompt(topic, outline), llm.Options{
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		logger.Warn("Draft generation failed, using outline skeleton", "topic", topic.ID, "error", err.Error())
		return skeletonBody(outline)
	}
	return strings.TrimSpace(content)
}

// composeArticle assembles the final Markdown: title heading, the three
// summary bullets, the generated body, and the citation block. The
// citation block is appended deterministically on every path so no draft
// can ship without attribution.
func composeArticle(topic core.Topic, outline *core.TopicOutline, content string) core.Article {
	now := time.Now().UTC()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topic.Title)
	for _, bullet := range outline.Summary {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(CitationBlock(topic))

	return core.Article{
		ID:          uuid.NewString(),
		TopicID:     topic.ID,
		Slug:        Slugify(topic.Title),
		Title:       topic.Title,
		Description: topic.Abstract,
		Summary:     outline.Summary,
		Body:        b.String(),
		Genre:       topic.Genre,
		Status:      core.ArticleDraft,
		Sources: []core.ArticleSource{
			{Name: topic.SourceName, URL: topic.URL, Date: topic.PublishedAt},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// skeletonBody renders the outline as section headings with point bullets,
// used when drafting fails.
func skeletonBody(outline *core.TopicOutline) string {
	var b strings.Builder
	for i, section := range outline.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		for _, point := range section.Points {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}
	return strings.TrimSpace(b.String())
}

// CitationBlock renders the source attribution appended to every article.
func CitationBlock(topic core.Topic) string {
	date := ""
	if !topic.PublishedAt.IsZero() {
		date = topic.PublishedAt.Format("2006-01-02")
	}
	return fmt.Sprintf(":::source\n**Source**: [%s](%s) — %s (%s)\n:::", topic.Title, topic.URL, topic.SourceName, date)
}

// Slugify derives a URL slug from a title: lowercased, punctuation
// stripped, spaces to dashes, at most 50 bytes.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	if len(slug) > slugMaxLen {
		slug = strings.Trim(slug[:slugMaxLen], "-")
	}
	return slug
}
