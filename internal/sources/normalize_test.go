package sources

import (
	"testing"

	"newsforge/internal/core"
)

func TestNormalizeNewsAPIArticle(t *testing.T) {
	article := NewsAPIArticle{
		Source:      NewsAPISource{ID: "the-verge", Name: "The Verge"},
		Author:      "Jane Reporter",
		Title:       "Chipmaker unveils new accelerator",
		Description: "A short description of the announcement.",
		URL:         "https://example.com/chip",
		URLToImage:  "https://example.com/chip.jpg",
		PublishedAt: "2026-08-27T10:30:00Z",
		Content:     "The full announcement text continues at length... [+2831 chars]",
	}

	item := NormalizeNewsAPIArticle(article)

	if item.Provider != core.ProviderNewsAPI {
		t.Errorf("Expected provider newsapi, got %q", item.Provider)
	}
	if item.ProviderID != article.URL {
		t.Errorf("Expected URL as provider ID, got %q", item.ProviderID)
	}
	if item.Abstract != "A short description of the announcement." {
		t.Errorf("Expected description as abstract, got %q", item.Abstract)
	}
	if item.BodyText != "The full announcement text continues at length..." {
		t.Errorf("Expected truncation marker stripped, got %q", item.BodyText)
	}
	if item.Image == nil || item.Image.URL != "https://example.com/chip.jpg" {
		t.Errorf("Expected image from urlToImage, got %+v", item.Image)
	}
	if item.PublishedAt.IsZero() {
		t.Error("Expected publishedAt to parse")
	}

	// Tags: source name, source id, author, deduplicated in order.
	want := []string{"The Verge", "the-verge", "Jane Reporter"}
	if len(item.Tags) != len(want) {
		t.Fatalf("Expected %d tags, got %v", len(want), item.Tags)
	}
	for i, tag := range want {
		if item.Tags[i] != tag {
			t.Errorf("Expected tag %q at %d, got %q", tag, i, item.Tags[i])
		}
	}
}

func TestNormalizeNewsAPIArticleFallsBackToContent(t *testing.T) {
	article := NewsAPIArticle{
		Title:   "No description here",
		URL:     "https://example.com/x",
		Content: "Body stands in for the abstract. [+100 chars]",
	}

	item := NormalizeNewsAPIArticle(article)
	if item.Abstract != "Body stands in for the abstract." {
		t.Errorf("Expected content fallback abstract, got %q", item.Abstract)
	}
	if item.Image != nil {
		t.Error("Expected no image")
	}
	if len(item.Tags) != 0 {
		t.Errorf("Expected no tags, got %v", item.Tags)
	}
}

func TestNormalizeGuardianArticle(t *testing.T) {
	article := GuardianArticle{
		ID:                 "technology/2026/aug/27/example",
		Type:               "article",
		SectionName:        "Technology",
		WebPublicationDate: "2026-08-27T08:00:00Z",
		WebTitle:           "Web title",
		WebURL:             "https://www.theguardian.com/technology/2026/aug/27/example",
		Fields: &GuardianFields{
			Headline:  "Expanded headline",
			TrailText: "Trail text summary",
			Byline:    "A Writer",
			Body:      "<p>First paragraph.</p><p>Second paragraph.</p>",
			WordCount: "850",
			Thumbnail: "https://media.guim.co.uk/thumb.jpg",
		},
		Tags: []GuardianTag{
			{ID: "technology/ai", Type: "keyword", WebTitle: "Artificial intelligence"},
			{ID: "profile/a-writer", Type: "contributor", WebTitle: "A Writer"},
		},
	}

	item := NormalizeGuardianArticle(article)

	if item.Title != "Expanded headline" {
		t.Errorf("Expected expanded headline to win, got %q", item.Title)
	}
	if item.Abstract != "Trail text summary" {
		t.Errorf("Expected trailText as abstract, got %q", item.Abstract)
	}
	if item.WordCount != 850 {
		t.Errorf("Expected word count 850, got %d", item.WordCount)
	}
	if item.Image == nil || item.Image.URL != "https://media.guim.co.uk/thumb.jpg" {
		t.Errorf("Expected thumbnail image, got %+v", item.Image)
	}
	if len(item.Tags) != 1 || item.Tags[0] != "Artificial intelligence" {
		t.Errorf("Expected only keyword tags, got %v", item.Tags)
	}
	if item.BodyText != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("Expected body HTML reduced to text, got %q", item.BodyText)
	}
	if item.SourceName != "The Guardian" {
		t.Errorf("Unexpected source name %q", item.SourceName)
	}
}

func TestNormalizeGuardianArticleElementImage(t *testing.T) {
	article := GuardianArticle{
		WebTitle: "No thumbnail",
		Elements: []GuardianElement{
			{
				Type: "image",
				Assets: []GuardianAsset{
					{
						File:     "https://media.guim.co.uk/full.jpg",
						TypeData: &GuardianAssetDetails{Caption: "A caption", Credit: "A credit"},
					},
				},
			},
		},
	}

	item := NormalizeGuardianArticle(article)
	if item.Image == nil {
		t.Fatal("Expected image from elements")
	}
	if item.Image.Caption != "A caption" || item.Image.Credit != "A credit" {
		t.Errorf("Expected caption and credit carried over, got %+v", item.Image)
	}
}

func TestNormalizeNYTSearchArticle(t *testing.T) {
	doc := NYTSearchArticle{
		URI:            "nyt://article/abc",
		WebURL:         "https://www.nytimes.com/2026/08/27/science/example.html",
		Abstract:       "The abstract.",
		PubDate:        "2026-08-27T06:00:00+0000",
		SectionName:    "Science",
		TypeOfMaterial: "News",
		WordCount:      1100,
		Headline:       NYTHeadline{Main: "Main headline"},
		Byline:         NYTByline{Original: "By Someone"},
		Keywords: []NYTKeyword{
			{Name: "subject", Value: "Space and Astronomy"},
			{Name: "persons", Value: "Doe, Jane"},
		},
		Multimedia: []NYTMultimedia{
			{Type: "image", URL: "images/2026/08/27/small.jpg", Width: 300, Height: 200},
			{Type: "image", URL: "images/2026/08/27/large.jpg", Width: 2048, Height: 1365, Caption: "Big", Credit: "NYT"},
			{Type: "video", URL: "video.mp4", Width: 9999, Height: 9999},
		},
	}

	item := NormalizeNYTSearchArticle(doc)

	if item.Title != "Main headline" {
		t.Errorf("Expected main headline, got %q", item.Title)
	}
	if len(item.Tags) != 1 || item.Tags[0] != "Space and Astronomy" {
		t.Errorf("Expected only subject keywords, got %v", item.Tags)
	}
	if item.Image == nil {
		t.Fatal("Expected an image")
	}
	// Largest image rendition, relative URL upgraded.
	if item.Image.URL != "https://www.nytimes.com/images/2026/08/27/large.jpg" {
		t.Errorf("Expected upgraded absolute URL, got %q", item.Image.URL)
	}
	if item.PublishedAt.IsZero() {
		t.Error("Expected pub_date to parse")
	}
}

func TestNormalizeNYTSearchArticleAbstractFallback(t *testing.T) {
	doc := NYTSearchArticle{
		LeadParagraph: "Lead paragraph text.",
		Snippet:       "Snippet text.",
	}
	if got := NormalizeNYTSearchArticle(doc).Abstract; got != "Lead paragraph text." {
		t.Errorf("Expected lead paragraph fallback, got %q", got)
	}

	doc = NYTSearchArticle{Snippet: "Snippet text."}
	if got := NormalizeNYTSearchArticle(doc).Abstract; got != "Snippet text." {
		t.Errorf("Expected snippet fallback, got %q", got)
	}
}

func TestNormalizeNYTTopStory(t *testing.T) {
	story := NYTTopStory{
		URI:           "nyt://article/def",
		URL:           "https://www.nytimes.com/2026/08/27/business/example.html",
		Title:         "Top story",
		Abstract:      "Abstract.",
		PublishedDate: "2026-08-27T05:00:00-04:00",
		Section:       "business",
		DesFacet:      []string{"d1", "d2", "d3", "d4", "d5", "d6"},
		OrgFacet:      []string{"o1", "o2", "o3", "o4", "o5", "o6"},
		Multimedia: []NYTMultimedia{
			{Format: "Large Thumbnail", URL: "https://static01.nyt.com/thumb.jpg"},
			{Format: "Super Jumbo", URL: "https://static01.nyt.com/jumbo.jpg", Copyright: "NYT"},
		},
	}

	item := NormalizeNYTTopStory(story)

	if len(item.Tags) != maxFacetTags {
		t.Errorf("Expected facet tags capped at %d, got %d", maxFacetTags, len(item.Tags))
	}
	if item.Image == nil || item.Image.URL != "https://static01.nyt.com/jumbo.jpg" {
		t.Errorf("Expected Super Jumbo rendition, got %+v", item.Image)
	}
	if item.Image.Credit != "NYT" {
		t.Errorf("Expected copyright as credit, got %q", item.Image.Credit)
	}
}

func TestNormalizeResponsesRejectNonOKStatus(t *testing.T) {
	if items := NormalizeNewsAPIResponse(NewsAPIResponse{Status: "error"}); items != nil {
		t.Errorf("Expected nil for error status, got %v", items)
	}
	if items := NormalizeGuardianResponse(GuardianResponse{Response: GuardianResponseBody{Status: "error"}}); items != nil {
		t.Errorf("Expected nil for error status, got %v", items)
	}
	if items := NormalizeNYTTopStoriesResponse(NYTTopStoriesResponse{Status: "ERROR"}); items != nil {
		t.Errorf("Expected nil for error status, got %v", items)
	}
}

func TestQuotaLow(t *testing.T) {
	cases := []struct {
		quota Quota
		want  bool
	}{
		{Quota{}, false},
		{Quota{Remaining: 50, Limit: 500}, true},
		{Quota{Remaining: 51, Limit: 500}, false},
		{Quota{Remaining: 0, Limit: 10}, true},
	}
	for _, tc := range cases {
		if got := tc.quota.Low(); got != tc.want {
			t.Errorf("Quota %+v: expected Low()=%v, got %v", tc.quota, tc.want, got)
		}
	}
}
