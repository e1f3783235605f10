package rank

import (
	"strings"

	"newsforge/internal/core"
)

// genreKeywords maps each genre to its trigger substrings. Evaluation
// order matters: the first genre with a match wins, so more specific
// beats (health before technology) come first.
var genreOrder = []core.Genre{
	core.GenreHealth,
	core.GenreTechnology,
	core.GenreLifestyle,
	core.GenreCulture,
	core.GenreBusiness,
	core.GenreScience,
	core.GenreSports,
	core.GenreEntertainment,
	core.GenrePolitics,
}

var genreKeywords = map[core.Genre][]string{
	core.GenreHealth:        {"health", "medical", "medicine", "hospital", "disease"},
	core.GenreTechnology:    {"technology", "artificial intelligence", " ai ", "software", "computing"},
	core.GenreLifestyle:     {"lifestyle", "wellness", "fashion", "travel"},
	core.GenreCulture:       {"culture", "art ", "museum", "music"},
	core.GenreBusiness:      {"business", "economy", "market", "finance"},
	core.GenreScience:       {"science", "research", "climate", "space"},
	core.GenreSports:        {"sports", "sport ", "football", "olympic"},
	core.GenreEntertainment: {"entertainment", "celebrity", "movie", "television"},
	core.GenrePolitics:      {"politics", "election", "government", "parliament"},
}

// DetectGenre classifies item into the closed genre set. Tags are checked
// before free text since provider keywords are higher-precision signals;
// within each pass the first matching genre in table order wins. Items
// matching nothing fall through to the catch-all. Matching is
// case-insensitive and deterministic.
func DetectGenre(item core.SourceItem) core.Genre {
	if len(item.Tags) > 0 {
		tagText := " " + strings.ToLower(strings.Join(item.Tags, " ")) + " "
		if g, ok := match(tagText); ok {
			return g
		}
	}

	freeText := " " + strings.ToLower(item.Title+" "+item.Abstract+" "+item.Section) + " "
	if g, ok := match(freeText); ok {
		return g
	}

	return core.GenreOther
}

func match(text string) (core.Genre, bool) {
	for _, genre := range genreOrder {
		for _, keyword := range genreKeywords[genre] {
			if strings.Contains(text, keyword) {
				return genre, true
			}
		}
	}
	return core.GenreOther, false
}
