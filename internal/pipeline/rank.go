package pipeline

import (
	"time"

	"github.com/google/uuid"

	"newsforge/internal/core"
	"newsforge/internal/rank"
)

func rankKey(item core.SourceItem) string {
	return rank.CanonicalKey(item.URL, item.Title)
}

// buildTopic promotes a source item into a scored NEW topic.
func buildTopic(item core.SourceItem, canonicalKey string, now time.Time) core.Topic {
	return core.Topic{
		ID:           uuid.NewString(),
		CanonicalKey: canonicalKey,
		Title:        item.Title,
		Abstract:     item.Abstract,
		URL:          item.URL,
		SourceName:   item.SourceName,
		PublishedAt:  item.PublishedAt,
		Genre:        rank.DetectGenre(item),
		Score:        rank.Score(item, now),
		Status:       core.TopicNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
