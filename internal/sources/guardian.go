package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"newsforge/internal/core"
	"newsforge/internal/logger"
)

const guardianBaseURL = "https://content.guardianapis.com"

// GuardianResponse is the Content API envelope.
type GuardianResponse struct {
	Response GuardianResponseBody `json:"response"`
}

// GuardianResponseBody carries results plus pagination metadata.
type GuardianResponseBody struct {
	Status      string            `json:"status"`
	Total       int               `json:"total"`
	PageSize    int               `json:"pageSize"`
	CurrentPage int               `json:"currentPage"`
	Pages       int               `json:"pages"`
	Results     []GuardianArticle `json:"results"`
}

// GuardianArticle is one content item from the Guardian Content API.
type GuardianArticle struct {
	ID                 string            `json:"id"`
	Type               string            `json:"type"`
	SectionID          string            `json:"sectionId"`
	SectionName        string            `json:"sectionName"`
	WebPublicationDate string            `json:"webPublicationDate"`
	WebTitle           string            `json:"webTitle"`
	WebURL             string            `json:"webUrl"`
	Fields             *GuardianFields   `json:"fields"`
	Tags               []GuardianTag     `json:"tags"`
	Elements           []GuardianElement `json:"elements"`
}

// GuardianFields are the optional show-fields expansions.
type GuardianFields struct {
	Headline   string `json:"headline"`
	Standfirst string `json:"standfirst"`
	TrailText  string `json:"trailText"`
	Byline     string `json:"byline"`
	Body       string `json:"body"`
	BodyText   string `json:"bodyText"`
	WordCount  string `json:"wordcount"`
	Thumbnail  string `json:"thumbnail"`
}

// GuardianTag is a tag attached to a content item.
type GuardianTag struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	WebTitle string `json:"webTitle"`
}

// GuardianElement is an embedded media element.
type GuardianElement struct {
	ID       string          `json:"id"`
	Relation string          `json:"relation"`
	Type     string          `json:"type"`
	Assets   []GuardianAsset `json:"assets"`
}

// GuardianAsset is one rendition of a media element.
type GuardianAsset struct {
	Type     string                `json:"type"`
	File     string                `json:"file"`
	TypeData *GuardianAssetDetails `json:"typeData"`
}

// GuardianAssetDetails carries caption and credit for an asset.
type GuardianAssetDetails struct {
	Caption string `json:"caption"`
	Credit  string `json:"credit"`
}

// GuardianQuery carries request parameters for a Guardian search.
type GuardianQuery struct {
	Section  string
	Query    string
	PageSize int
	MaxPages int
}

// GuardianClient fetches content from the Guardian Content API.
type GuardianClient struct {
	apiKey string
	http   *httpClient
}

// NewGuardianClient creates a client for content.guardianapis.com.
func NewGuardianClient(apiKey string) *GuardianClient {
	return &GuardianClient{apiKey: apiKey, http: newHTTPClient()}
}

// Quota returns the provider's last reported rate-limit budget.
func (c *GuardianClient) Quota() Quota {
	return c.http.Quota()
}

// Search pages through /search with field, tag, and element expansions and
// returns normalized items.
func (c *GuardianClient) Search(ctx context.Context, q GuardianQuery) ([]core.SourceItem, error) {
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = 50
	}
	maxPages := q.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	var items []core.SourceItem
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("api-key", c.apiKey)
		params.Set("show-fields", "headline,standfirst,trailText,byline,body,bodyText,wordcount,thumbnail")
		params.Set("show-tags", "keyword")
		params.Set("show-elements", "image")
		params.Set("page-size", strconv.Itoa(pageSize))
		params.Set("page", strconv.Itoa(page))
		params.Set("order-by", "newest")
		if q.Section != "" {
			params.Set("section", q.Section)
		}
		if q.Query != "" {
			params.Set("q", q.Query)
		}

		var resp GuardianResponse
		if err := c.http.getJSON(ctx, buildURL(guardianBaseURL+"/search", params), &resp); err != nil {
			return items, fmt.Errorf("guardian search page %d: %w", page, err)
		}

		if !strings.EqualFold(resp.Response.Status, "ok") {
			return items, fmt.Errorf("guardian returned status %q", resp.Response.Status)
		}

		if len(resp.Response.Results) == 0 {
			break
		}

		items = append(items, NormalizeGuardianResponse(resp)...)

		if resp.Response.Pages > 0 && page >= resp.Response.Pages {
			break
		}
		if page < maxPages {
			if err := sleepPage(ctx); err != nil {
				return items, err
			}
		}
	}

	logger.Info("Guardian fetch complete", "items", len(items))
	return items, nil
}

// NormalizeGuardianResponse converts a full response into source items.
func NormalizeGuardianResponse(resp GuardianResponse) []core.SourceItem {
	if !strings.EqualFold(resp.Response.Status, "ok") {
		logger.Warn("Guardian returned non-ok status", "status", resp.Response.Status)
		return nil
	}

	items := make([]core.SourceItem, 0, len(resp.Response.Results))
	for _, article := range resp.Response.Results {
		items = append(items, NormalizeGuardianArticle(article))
	}
	return items
}

// NormalizeGuardianArticle maps one Guardian content item onto the neutral
// shape. The expanded headline beats webTitle, trailText beats standfirst,
// and only keyword-type tags survive.
func NormalizeGuardianArticle(article GuardianArticle) core.SourceItem {
	item := core.SourceItem{
		Provider:   core.ProviderGuardian,
		ProviderID: article.ID,
		URL:        article.WebURL,
		Title:      article.WebTitle,
		Section:    article.SectionName,
		Type:       article.Type,
		SourceName: "The Guardian",
	}

	for _, tag := range article.Tags {
		if tag.Type == "keyword" {
			item.Tags = append(item.Tags, tag.WebTitle)
		}
	}

	if f := article.Fields; f != nil {
		if f.Headline != "" {
			item.Title = f.Headline
		}
		if f.TrailText != "" {
			item.Abstract = f.TrailText
		} else {
			item.Abstract = f.Standfirst
		}
		item.Byline = f.Byline

		item.BodyText = f.BodyText
		if item.BodyText == "" && f.Body != "" {
			item.BodyText = htmlToText(f.Body)
		}

		if f.WordCount != "" {
			if n, err := strconv.Atoi(f.WordCount); err == nil {
				item.WordCount = n
			}
		}
	}

	item.Image = extractGuardianImage(article)

	if t, err := dateparse.ParseAny(article.WebPublicationDate); err == nil {
		item.PublishedAt = t.UTC()
	}

	return item
}

// extractGuardianImage prefers the thumbnail field, then the first asset of
// the first image element.
func extractGuardianImage(article GuardianArticle) *core.ImageInfo {
	if article.Fields != nil && article.Fields.Thumbnail != "" {
		return &core.ImageInfo{URL: article.Fields.Thumbnail}
	}

	for _, element := range article.Elements {
		if element.Type != "image" || len(element.Assets) == 0 {
			continue
		}
		asset := element.Assets[0]
		if asset.File == "" {
			continue
		}
		info := &core.ImageInfo{URL: asset.File}
		if asset.TypeData != nil {
			info.Caption = asset.TypeData.Caption
			info.Credit = asset.TypeData.Credit
		}
		return info
	}

	return nil
}

// htmlToText reduces body HTML to plain text with paragraph breaks.
func htmlToText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(paragraphs, "\n\n")
}
