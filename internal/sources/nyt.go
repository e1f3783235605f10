package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/araddon/dateparse"

	"newsforge/internal/core"
	"newsforge/internal/logger"
)

const (
	nytBaseURL    = "https://api.nytimes.com/svc"
	nytSourceName = "The New York Times"
	maxFacetTags  = 10
)

// NYTSearchResponse is the Article Search API envelope.
type NYTSearchResponse struct {
	Status   string        `json:"status"`
	Response NYTSearchDocs `json:"response"`
}

// NYTSearchDocs holds the Article Search result documents.
type NYTSearchDocs struct {
	Docs []NYTSearchArticle `json:"docs"`
}

// NYTSearchArticle is one Article Search document.
type NYTSearchArticle struct {
	URI            string          `json:"uri"`
	WebURL         string          `json:"web_url"`
	Snippet        string          `json:"snippet"`
	Abstract       string          `json:"abstract"`
	LeadParagraph  string          `json:"lead_paragraph"`
	PubDate        string          `json:"pub_date"`
	SectionName    string          `json:"section_name"`
	SubsectionName string          `json:"subsection_name"`
	TypeOfMaterial string          `json:"type_of_material"`
	WordCount      int             `json:"word_count"`
	Headline       NYTHeadline     `json:"headline"`
	Byline         NYTByline       `json:"byline"`
	Keywords       []NYTKeyword    `json:"keywords"`
	Multimedia     []NYTMultimedia `json:"multimedia"`
}

// NYTHeadline carries the headline variants.
type NYTHeadline struct {
	Main string `json:"main"`
}

// NYTByline carries the author credit.
type NYTByline struct {
	Original string `json:"original"`
}

// NYTKeyword is a subject/person/org keyword on a search document.
type NYTKeyword struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NYTMultimedia is one media rendition. Article Search returns URLs
// relative to nytimes.com; Top Stories returns absolute URLs.
type NYTMultimedia struct {
	Type      string `json:"type"`
	Format    string `json:"format"`
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Caption   string `json:"caption"`
	Credit    string `json:"credit"`
	Copyright string `json:"copyright"`
}

// NYTTopStoriesResponse is the Top Stories / Newswire envelope.
type NYTTopStoriesResponse struct {
	Status  string        `json:"status"`
	Results []NYTTopStory `json:"results"`
}

// NYTTopStory is one Top Stories or Newswire item.
type NYTTopStory struct {
	URI           string          `json:"uri"`
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	Abstract      string          `json:"abstract"`
	PublishedDate string          `json:"published_date"`
	Section       string          `json:"section"`
	Subsection    string          `json:"subsection"`
	Byline        string          `json:"byline"`
	ItemType      string          `json:"item_type"`
	DesFacet      []string        `json:"des_facet"`
	OrgFacet      []string        `json:"org_facet"`
	Multimedia    []NYTMultimedia `json:"multimedia"`
}

// NYTClient fetches from the New York Times developer APIs.
type NYTClient struct {
	apiKey string
	http   *httpClient
}

// NewNYTClient creates a client for api.nytimes.com.
func NewNYTClient(apiKey string) *NYTClient {
	return &NYTClient{apiKey: apiKey, http: newHTTPClient()}
}

// Quota returns the provider's last reported rate-limit budget.
func (c *NYTClient) Quota() Quota {
	return c.http.Quota()
}

// TopStories fetches one Top Stories section feed.
func (c *NYTClient) TopStories(ctx context.Context, section string) ([]core.SourceItem, error) {
	if section == "" {
		section = "home"
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)

	var resp NYTTopStoriesResponse
	u := buildURL(fmt.Sprintf("%s/topstories/v2/%s.json", nytBaseURL, section), params)
	if err := c.http.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("nyt top stories %q: %w", section, err)
	}

	items := NormalizeNYTTopStoriesResponse(resp)
	logger.Info("NYT top stories fetch complete", "section", section, "items", len(items))
	return items, nil
}

// Search queries the Article Search API.
func (c *NYTClient) Search(ctx context.Context, query string) ([]core.SourceItem, error) {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	if query != "" {
		params.Set("q", query)
	}
	params.Set("sort", "newest")

	var resp NYTSearchResponse
	u := buildURL(nytBaseURL+"/search/v2/articlesearch.json", params)
	if err := c.http.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("nyt article search: %w", err)
	}

	items := NormalizeNYTSearchResponse(resp)
	logger.Info("NYT search fetch complete", "items", len(items))
	return items, nil
}

// NormalizeNYTSearchResponse converts an Article Search response.
func NormalizeNYTSearchResponse(resp NYTSearchResponse) []core.SourceItem {
	if !strings.EqualFold(resp.Status, "OK") {
		logger.Warn("NYT returned non-OK status", "status", resp.Status)
		return nil
	}

	items := make([]core.SourceItem, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		items = append(items, NormalizeNYTSearchArticle(doc))
	}
	return items
}

// NormalizeNYTSearchArticle maps one Article Search document. Only
// subject-type keywords become tags.
func NormalizeNYTSearchArticle(doc NYTSearchArticle) core.SourceItem {
	abstract := doc.Abstract
	if abstract == "" {
		abstract = doc.LeadParagraph
	}
	if abstract == "" {
		abstract = doc.Snippet
	}

	var tags []string
	for _, kw := range doc.Keywords {
		if kw.Name == "subject" {
			tags = append(tags, kw.Value)
		}
	}

	item := core.SourceItem{
		Provider:   core.ProviderNYT,
		ProviderID: doc.URI,
		URL:        doc.WebURL,
		Title:      doc.Headline.Main,
		Abstract:   abstract,
		Section:    doc.SectionName,
		Subsection: doc.SubsectionName,
		Byline:     doc.Byline.Original,
		Tags:       tags,
		Type:       doc.TypeOfMaterial,
		WordCount:  doc.WordCount,
		Image:      extractNYTSearchImage(doc.Multimedia),
		SourceName: nytSourceName,
	}

	if t, err := dateparse.ParseAny(doc.PubDate); err == nil {
		item.PublishedAt = t.UTC()
	}

	return item
}

// NormalizeNYTTopStoriesResponse converts a Top Stories or Newswire
// response.
func NormalizeNYTTopStoriesResponse(resp NYTTopStoriesResponse) []core.SourceItem {
	if !strings.EqualFold(resp.Status, "OK") {
		logger.Warn("NYT returned non-OK status", "status", resp.Status)
		return nil
	}

	items := make([]core.SourceItem, 0, len(resp.Results))
	for _, story := range resp.Results {
		items = append(items, NormalizeNYTTopStory(story))
	}
	return items
}

// NormalizeNYTTopStory maps one Top Stories item. Descriptor and
// organization facets become tags, capped at ten.
func NormalizeNYTTopStory(story NYTTopStory) core.SourceItem {
	tags := append([]string{}, story.DesFacet...)
	tags = append(tags, story.OrgFacet...)
	if len(tags) > maxFacetTags {
		tags = tags[:maxFacetTags]
	}

	item := core.SourceItem{
		Provider:   core.ProviderNYT,
		ProviderID: story.URI,
		URL:        story.URL,
		Title:      story.Title,
		Abstract:   story.Abstract,
		Section:    story.Section,
		Subsection: story.Subsection,
		Byline:     story.Byline,
		Tags:       tags,
		Type:       story.ItemType,
		Image:      extractNYTTopStoryImage(story.Multimedia),
		SourceName: nytSourceName,
	}

	if t, err := dateparse.ParseAny(story.PublishedDate); err == nil {
		item.PublishedAt = t.UTC()
	}

	return item
}

// extractNYTSearchImage picks the largest image rendition and upgrades the
// relative URL Article Search returns.
func extractNYTSearchImage(media []NYTMultimedia) *core.ImageInfo {
	var best *NYTMultimedia
	bestArea := -1
	for i := range media {
		m := &media[i]
		if m.Type != "image" {
			continue
		}
		area := m.Width * m.Height
		if area > bestArea {
			best = m
			bestArea = area
		}
	}
	if best == nil {
		return nil
	}

	u := best.URL
	if !strings.HasPrefix(u, "http") {
		u = "https://www.nytimes.com/" + strings.TrimPrefix(u, "/")
	}

	return &core.ImageInfo{URL: u, Caption: best.Caption, Credit: best.Credit}
}

// extractNYTTopStoryImage prefers the Super Jumbo rendition, then the first.
func extractNYTTopStoryImage(media []NYTMultimedia) *core.ImageInfo {
	if len(media) == 0 {
		return nil
	}

	chosen := media[0]
	for _, m := range media {
		if m.Format == "Super Jumbo" {
			chosen = m
			break
		}
	}

	if chosen.URL == "" {
		return nil
	}
	return &core.ImageInfo{URL: chosen.URL, Caption: chosen.Caption, Credit: chosen.Copyright}
}
