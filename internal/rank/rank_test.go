package rank

import (
	"testing"
	"time"

	"newsforge/internal/core"
)

func TestScoreBounds(t *testing.T) {
	now := time.Now().UTC()

	empty := core.SourceItem{}
	if got := Score(empty, now); got != 0.5 {
		t.Errorf("Expected bare item to score 0.5, got %.2f", got)
	}

	// Every bonus at once must still clamp to 1.0.
	loaded := core.SourceItem{
		Title:       "Major discovery announced",
		Abstract:    "A detailed abstract that easily clears the fifty character minimum length.",
		BodyText:    "Full body text that differs from the abstract in substance and length.",
		WordCount:   1200,
		PublishedAt: now.Add(-time.Hour),
		Image:       &core.ImageInfo{URL: "https://example.com/lead.jpg"},
	}
	if got := Score(loaded, now); got != 1.0 {
		t.Errorf("Expected fully loaded item to clamp at 1.0, got %.2f", got)
	}
}

func TestScoreIndividualBonuses(t *testing.T) {
	now := time.Now().UTC()
	longAbstract := "This abstract is comfortably longer than fifty characters in total."

	cases := []struct {
		name string
		item core.SourceItem
		want float64
	}{
		{"word count in window", core.SourceItem{WordCount: 500}, 0.7},
		{"word count at upper edge", core.SourceItem{WordCount: 2000}, 0.7},
		{"word count too short", core.SourceItem{WordCount: 499}, 0.5},
		{"word count too long", core.SourceItem{WordCount: 2001}, 0.5},
		{"image present", core.SourceItem{Image: &core.ImageInfo{URL: "https://example.com/a.jpg"}}, 0.6},
		{"image without URL", core.SourceItem{Image: &core.ImageInfo{}}, 0.5},
		{"long abstract", core.SourceItem{Abstract: longAbstract}, 0.6},
		{"short abstract", core.SourceItem{Abstract: "Too short."}, 0.5},
		{"fresh publication", core.SourceItem{PublishedAt: now.Add(-23 * time.Hour)}, 0.6},
		{"stale publication", core.SourceItem{PublishedAt: now.Add(-25 * time.Hour)}, 0.5},
		{"future publication", core.SourceItem{PublishedAt: now.Add(time.Hour)}, 0.5},
		{"body mirrors abstract", core.SourceItem{Abstract: "same text", BodyText: "same text"}, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.item, now); got != tc.want {
				t.Errorf("Expected %.2f, got %.2f", tc.want, got)
			}
		})
	}

	// Note the word-count window is inclusive on both edges.
	for i := 0; i < 3; i++ {
		item := core.SourceItem{WordCount: 800, Abstract: longAbstract}
		if got := Score(item, now); got < 0.0 || got > 1.0 {
			t.Fatalf("Score out of range: %.2f", got)
		}
	}
}

func TestCanonicalKeyCollapsesNearDuplicates(t *testing.T) {
	a := CanonicalKey("https://example.com/story/1", "Breaking: AI Breakthrough!")
	b := CanonicalKey("https://example.com/story/2?utm=x", "breaking ai breakthrough")
	if a != b {
		t.Errorf("Expected near-duplicate headlines to collapse, got %q vs %q", a, b)
	}
	if a != "example.com:breakingaibreakthrough" {
		t.Errorf("Unexpected key %q", a)
	}
}

func TestCanonicalKeyKeepsHostsDistinct(t *testing.T) {
	a := CanonicalKey("https://example.com/story", "Shared Headline")
	b := CanonicalKey("https://other.org/story", "Shared Headline")
	if a == b {
		t.Errorf("Expected different hosts to produce different keys, got %q", a)
	}
}

func TestCanonicalKeyTruncatesTitle(t *testing.T) {
	long := "An Exceptionally Long Headline That Keeps Going And Going Well Past Fifty Characters"
	key := CanonicalKey("https://example.com/x", long)
	titlePart := key[len("example.com:"):]
	if len(titlePart) != 50 {
		t.Errorf("Expected 50-byte title segment, got %d (%q)", len(titlePart), titlePart)
	}
}

func TestCanonicalKeyBadURL(t *testing.T) {
	key := CanonicalKey("://not a url", "Title")
	if key != ":title" {
		t.Errorf("Expected empty host segment for unparseable URL, got %q", key)
	}
}

func TestDetectGenreTableOrder(t *testing.T) {
	cases := []struct {
		name string
		item core.SourceItem
		want core.Genre
	}{
		{"health from title", core.SourceItem{Title: "New medical trial shows promise"}, core.GenreHealth},
		{"technology from abstract", core.SourceItem{Abstract: "A software platform for robotics"}, core.GenreTechnology},
		{"business from section", core.SourceItem{Section: "Business"}, core.GenreBusiness},
		{"science", core.SourceItem{Title: "Climate research update"}, core.GenreScience},
		{"sports", core.SourceItem{Title: "Olympic qualifiers begin"}, core.GenreSports},
		{"politics", core.SourceItem{Title: "Election results contested"}, core.GenrePolitics},
		{"catch-all", core.SourceItem{Title: "Local ferry schedule changes"}, core.GenreOther},
		// Health outranks technology when both match.
		{"health beats technology", core.SourceItem{Title: "Hospital adopts new software"}, core.GenreHealth},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectGenre(tc.item); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDetectGenreTagsTakePriority(t *testing.T) {
	// Free text says technology, tags say health; tags win.
	item := core.SourceItem{
		Title: "Software rollout delayed",
		Tags:  []string{"Medicine and Health"},
	}
	if got := DetectGenre(item); got != core.GenreHealth {
		t.Errorf("Expected tags to take priority, got %q", got)
	}
}

func TestDetectGenreDeterministic(t *testing.T) {
	item := core.SourceItem{
		Title:    "Market rally continues",
		Abstract: "Stocks climbed as the economy showed resilience.",
		Tags:     []string{"Finance"},
	}
	first := DetectGenre(item)
	if !core.ValidGenre(first) {
		t.Fatalf("Expected a valid genre, got %q", first)
	}
	for i := 0; i < 5; i++ {
		if got := DetectGenre(item); got != first {
			t.Fatalf("Expected stable classification, got %q then %q", first, got)
		}
	}
}
