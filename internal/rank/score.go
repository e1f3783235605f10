// Package rank turns normalized source items into scored, deduplicated,
// classified topic candidates.
package rank

import (
	"time"

	"newsforge/internal/core"
)

const (
	baseScore = 0.5

	// Bonuses. Independent signals; the sum is clamped to 1.0.
	wordCountBonus = 0.2
	imageBonus     = 0.1
	abstractBonus  = 0.1
	recencyBonus   = 0.1
	richBodyBonus  = 0.1

	minRichWordCount = 500
	maxRichWordCount = 2000
	minAbstractLen   = 50
	recencyWindow    = 24 * time.Hour
)

// Score computes the heuristic newsworthiness score for item, always in
// [0, 1]. Missing fields simply forfeit their bonus; nothing subtracts.
func Score(item core.SourceItem, now time.Time) float64 {
	score := baseScore

	if item.WordCount >= minRichWordCount && item.WordCount <= maxRichWordCount {
		score += wordCountBonus
	}

	if item.Image != nil && item.Image.URL != "" {
		score += imageBonus
	}

	if len(item.Abstract) > minAbstractLen {
		score += abstractBonus
	}

	if !item.PublishedAt.IsZero() {
		age := now.Sub(item.PublishedAt)
		if age >= 0 && age < recencyWindow {
			score += recencyBonus
		}
	}

	// Both abstract and body present and materially different means the
	// provider gave us real content, not a mirrored description.
	if item.Abstract != "" && item.BodyText != "" && item.BodyText != item.Abstract {
		score += richBodyBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
