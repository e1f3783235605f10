package pipeline

import (
	"context"

	"newsforge/internal/core"
	"newsforge/internal/sources"
)

// Provider clients take category vocabularies of their own; these maps
// translate the shared category names where they differ.
var guardianSections = map[string]string{
	"business":      "business",
	"culture":       "culture",
	"entertainment": "culture",
	"health":        "society",
	"lifestyle":     "lifeandstyle",
	"politics":      "politics",
	"science":       "science",
	"sports":        "sport",
	"technology":    "technology",
}

var nytSections = map[string]string{
	"business":      "business",
	"culture":       "arts",
	"entertainment": "arts",
	"health":        "health",
	"lifestyle":     "fashion",
	"politics":      "politics",
	"science":       "science",
	"sports":        "sports",
	"technology":    "technology",
}

// NewsAPIFetcher adapts a NewsAPI client to the pipeline.
type NewsAPIFetcher struct {
	Client *sources.NewsAPIClient
}

func (f *NewsAPIFetcher) Name() string { return "NewsAPI" }

func (f *NewsAPIFetcher) Quota() sources.Quota { return f.Client.Quota() }

func (f *NewsAPIFetcher) Fetch(ctx context.Context, opts FetchOptions) ([]core.SourceItem, error) {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	var items []core.SourceItem
	for _, category := range categories {
		fetched, err := f.Client.TopHeadlines(ctx, sources.NewsAPIQuery{
			Country:  opts.Locale,
			Category: category,
		})
		if err != nil {
			return items, err
		}
		items = append(items, fetched...)
	}
	return items, nil
}

// GuardianFetcher adapts a Guardian client to the pipeline.
type GuardianFetcher struct {
	Client *sources.GuardianClient
}

func (f *GuardianFetcher) Name() string { return "The Guardian" }

func (f *GuardianFetcher) Quota() sources.Quota { return f.Client.Quota() }

func (f *GuardianFetcher) Fetch(ctx context.Context, opts FetchOptions) ([]core.SourceItem, error) {
	sections := mapSections(opts.Categories, guardianSections)

	var items []core.SourceItem
	for _, section := range sections {
		fetched, err := f.Client.Search(ctx, sources.GuardianQuery{Section: section})
		if err != nil {
			return items, err
		}
		items = append(items, fetched...)
	}
	return items, nil
}

// NYTFetcher adapts a New York Times client to the pipeline.
type NYTFetcher struct {
	Client *sources.NYTClient
}

func (f *NYTFetcher) Name() string { return "The New York Times" }

func (f *NYTFetcher) Quota() sources.Quota { return f.Client.Quota() }

func (f *NYTFetcher) Fetch(ctx context.Context, opts FetchOptions) ([]core.SourceItem, error) {
	sections := mapSections(opts.Categories, nytSections)

	var items []core.SourceItem
	for _, section := range sections {
		fetched, err := f.Client.TopStories(ctx, section)
		if err != nil {
			return items, err
		}
		items = append(items, fetched...)
	}
	return items, nil
}

// mapSections translates categories through a provider's section map,
// dropping duplicates after translation. No categories means one
// unfiltered fetch.
func mapSections(categories []string, table map[string]string) []string {
	if len(categories) == 0 {
		return []string{""}
	}

	seen := make(map[string]bool, len(categories))
	var sections []string
	for _, category := range categories {
		section, ok := table[category]
		if !ok {
			section = ""
		}
		if seen[section] {
			continue
		}
		seen[section] = true
		sections = append(sections, section)
	}
	return sections
}
