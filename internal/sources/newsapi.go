package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"newsforge/internal/core"
	"newsforge/internal/logger"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPIResponse is the envelope both /top-headlines and /everything return.
type NewsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
	Articles     []NewsAPIArticle `json:"articles"`
}

// NewsAPIArticle is one article as NewsAPI reports it.
type NewsAPIArticle struct {
	Source      NewsAPISource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	URLToImage  string        `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     string        `json:"content"`
}

// NewsAPISource identifies the publication within NewsAPI.
type NewsAPISource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewsAPIQuery carries the request parameters for a NewsAPI fetch.
type NewsAPIQuery struct {
	Country  string
	Category string
	Query    string
	Language string
	PageSize int
	MaxPages int
}

// truncationMarker is the free-tier suffix NewsAPI appends to content,
// e.g. "[+1234 chars]".
var truncationMarker = regexp.MustCompile(`\s*\[\+\d+\s+chars\]?$`)

// NewsAPIClient fetches articles from newsapi.org.
type NewsAPIClient struct {
	apiKey string
	http   *httpClient
}

// NewNewsAPIClient creates a client; the key is sent via the X-Api-Key
// query parameter on every request.
func NewNewsAPIClient(apiKey string) *NewsAPIClient {
	return &NewsAPIClient{apiKey: apiKey, http: newHTTPClient()}
}

// Quota returns the provider's last reported rate-limit budget.
func (c *NewsAPIClient) Quota() Quota {
	return c.http.Quota()
}

// TopHeadlines pages through /top-headlines for the query, stopping on an
// empty or short page, and returns normalized items.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, q NewsAPIQuery) ([]core.SourceItem, error) {
	return c.fetch(ctx, "/top-headlines", q)
}

// Everything pages through /everything for the query.
func (c *NewsAPIClient) Everything(ctx context.Context, q NewsAPIQuery) ([]core.SourceItem, error) {
	return c.fetch(ctx, "/everything", q)
}

func (c *NewsAPIClient) fetch(ctx context.Context, endpoint string, q NewsAPIQuery) ([]core.SourceItem, error) {
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	maxPages := q.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	var items []core.SourceItem
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("apiKey", c.apiKey)
		params.Set("pageSize", strconv.Itoa(pageSize))
		params.Set("page", strconv.Itoa(page))
		if q.Country != "" {
			params.Set("country", q.Country)
		}
		if q.Category != "" {
			params.Set("category", q.Category)
		}
		if q.Query != "" {
			params.Set("q", q.Query)
		}
		if q.Language != "" {
			params.Set("language", q.Language)
		}

		var resp NewsAPIResponse
		if err := c.http.getJSON(ctx, buildURL(newsAPIBaseURL+endpoint, params), &resp); err != nil {
			return items, fmt.Errorf("newsapi %s page %d: %w", endpoint, page, err)
		}

		if resp.Status != "ok" {
			return items, fmt.Errorf("newsapi returned status %q: %s", resp.Status, resp.Message)
		}

		if len(resp.Articles) == 0 {
			break
		}

		items = append(items, NormalizeNewsAPIResponse(resp)...)

		if len(resp.Articles) < pageSize {
			break
		}
		if page < maxPages {
			if err := sleepPage(ctx); err != nil {
				return items, err
			}
		}
	}

	logger.Info("NewsAPI fetch complete", "endpoint", endpoint, "items", len(items))
	return items, nil
}

// NormalizeNewsAPIResponse converts a full response into source items.
// Non-ok statuses yield nothing.
func NormalizeNewsAPIResponse(resp NewsAPIResponse) []core.SourceItem {
	if resp.Status != "ok" {
		logger.Warn("NewsAPI returned non-ok status", "status", resp.Status)
		return nil
	}

	items := make([]core.SourceItem, 0, len(resp.Articles))
	for _, article := range resp.Articles {
		items = append(items, NormalizeNewsAPIArticle(article))
	}
	return items
}

// NormalizeNewsAPIArticle maps one NewsAPI article onto the neutral shape.
// The article URL doubles as the provider ID since NewsAPI has no stable
// identifier of its own.
func NormalizeNewsAPIArticle(article NewsAPIArticle) core.SourceItem {
	content := sanitizeNewsAPIContent(article.Content)

	abstract := article.Description
	if abstract == "" {
		abstract = content
	}

	item := core.SourceItem{
		Provider:   core.ProviderNewsAPI,
		ProviderID: article.URL,
		URL:        article.URL,
		Title:      article.Title,
		Abstract:   abstract,
		BodyText:   content,
		Section:    article.Source.Name,
		Byline:     article.Author,
		Tags:       buildNewsAPITags(article),
		SourceName: "NewsAPI",
	}

	if article.URLToImage != "" {
		item.Image = &core.ImageInfo{URL: article.URLToImage}
	}

	if t, err := dateparse.ParseAny(article.PublishedAt); err == nil {
		item.PublishedAt = t.UTC()
	}

	return item
}

// sanitizeNewsAPIContent strips the free-tier truncation marker.
func sanitizeNewsAPIContent(content string) string {
	return strings.TrimSpace(truncationMarker.ReplaceAllString(content, ""))
}

// buildNewsAPITags derives tags from source and author metadata, deduplicated
// in first-seen order.
func buildNewsAPITags(article NewsAPIArticle) []string {
	raw := []string{article.Source.Name, article.Source.ID, article.Author}

	var tags []string
	seen := make(map[string]bool)
	for _, tag := range raw {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
