package core

import "time"

// Provider identifies which news API a source item came from.
type Provider string

const (
	ProviderNewsAPI  Provider = "newsapi"
	ProviderGuardian Provider = "guardian"
	ProviderNYT      Provider = "nyt"
)

// Genre is the closed set of editorial categories. Classification always
// resolves to one of these; GenreOther is the catch-all.
type Genre string

const (
	GenreTechnology    Genre = "technology"
	GenreBusiness      Genre = "business"
	GenreScience       Genre = "science"
	GenreHealth        Genre = "health"
	GenreSports        Genre = "sports"
	GenreEntertainment Genre = "entertainment"
	GenreCulture       Genre = "culture"
	GenreLifestyle     Genre = "lifestyle"
	GenrePolitics      Genre = "politics"
	GenreOther         Genre = "other"
)

// Genres lists every valid genre, catch-all last.
var Genres = []Genre{
	GenreTechnology,
	GenreBusiness,
	GenreScience,
	GenreHealth,
	GenreSports,
	GenreEntertainment,
	GenreCulture,
	GenreLifestyle,
	GenrePolitics,
	GenreOther,
}

// ValidGenre reports whether g is a member of the closed genre set.
func ValidGenre(g Genre) bool {
	for _, v := range Genres {
		if g == v {
			return true
		}
	}
	return false
}

// ImageInfo describes the lead image attached to a source item.
type ImageInfo struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Credit  string `json:"credit,omitempty"`
}

// SourceItem is the provider-neutral shape every news provider response is
// normalized into before scoring and deduplication. Optional fields stay
// zero-valued when the provider did not supply them.
type SourceItem struct {
	Provider    Provider   `json:"provider"`     // originating provider
	ProviderID  string     `json:"provider_id"`  // provider-native identifier
	URL         string     `json:"url"`          // canonical article URL
	Title       string     `json:"title"`        // headline
	Abstract    string     `json:"abstract"`     // short description or standfirst
	BodyText    string     `json:"body_text"`    // plain-text body when available
	PublishedAt time.Time  `json:"published_at"` // publication timestamp, UTC
	Section     string     `json:"section"`      // provider section name
	Subsection  string     `json:"subsection"`   // provider subsection name
	Byline      string     `json:"byline"`       // author credit line
	Tags        []string   `json:"tags"`         // provider keywords/facets
	Type        string     `json:"type"`         // material type (article, liveblog, ...)
	WordCount   int        `json:"word_count"`   // body word count when reported
	Image       *ImageInfo `json:"image"`        // lead image, nil when absent
	SourceName  string     `json:"source_name"`  // human-readable publication name
}

// TopicStatus tracks a topic through the production state machine.
type TopicStatus string

const (
	TopicNew       TopicStatus = "NEW"
	TopicOutlined  TopicStatus = "OUTLINED"
	TopicDrafted   TopicStatus = "DRAFTED"
	TopicVerified  TopicStatus = "VERIFIED"
	TopicPublished TopicStatus = "PUBLISHED"

	// Reserved for editorial review flows that run outside the automated
	// pipeline; no stage in this codebase transitions into them.
	TopicQueued   TopicStatus = "QUEUED"
	TopicRejected TopicStatus = "REJECTED"
)

// OutlineSection is one planned section of an article.
type OutlineSection struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// TopicOutline is the structured writing plan produced before drafting.
// Summary always carries exactly three bullets of at most 50 characters.
type TopicOutline struct {
	Sections []OutlineSection `json:"sections"`
	Summary  []string         `json:"summary"`
}

// Topic is a deduplicated, scored candidate for article production.
type Topic struct {
	ID           string        `json:"id"`
	CanonicalKey string        `json:"canonical_key"`
	Title        string        `json:"title"`
	Abstract     string        `json:"abstract"`
	URL          string        `json:"url"`
	SourceName   string        `json:"source_name"`
	PublishedAt  time.Time     `json:"published_at"`
	Genre        Genre         `json:"genre"`
	Score        float64       `json:"score"`
	Status       TopicStatus   `json:"status"`
	Outline      *TopicOutline `json:"outline,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ArticleStatus is the lifecycle of a produced article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "DRAFT"
	ArticlePublished ArticleStatus = "PUBLISHED"
)

// ArticleSource is a citation back to the originating news item.
type ArticleSource struct {
	Name string    `json:"name"`
	URL  string    `json:"url"`
	Date time.Time `json:"date"`
}

// Article is the produced content artifact for a topic.
type Article struct {
	ID          string          `json:"id"`
	TopicID     string          `json:"topic_id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Summary     []string        `json:"summary"`
	Body        string          `json:"body"`
	Genre       Genre           `json:"genre"`
	Tags        []string        `json:"tags"`
	Status      ArticleStatus   `json:"status"`
	Sources     []ArticleSource `json:"sources"`
	PublishedAt time.Time       `json:"published_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IssueSeverity distinguishes blocking problems from advisories.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// VerificationIssue is a single finding from the verify stage.
type VerificationIssue struct {
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// VerificationResult aggregates verification findings for one article.
type VerificationResult struct {
	Issues      []VerificationIssue `json:"issues"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

// Valid reports whether the article may advance. Only error-severity
// issues block; warnings are advisory.
func (r VerificationResult) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}
