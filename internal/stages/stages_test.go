package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"newsforge/internal/core"
	"newsforge/internal/llm"
)

// fakeTransformer returns canned responses keyed by a prompt substring,
// or a single fixed response, or an error.
type fakeTransformer struct {
	response string
	err      error
	byPrompt map[string]string
	calls    int
	prompts  []string
}

func (f *fakeTransformer) Generate(_ context.Context, _ llm.Tier, prompt string, _ llm.Options) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	for needle, resp := range f.byPrompt {
		if strings.Contains(prompt, needle) {
			return resp, nil
		}
	}
	return f.response, nil
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	topics   map[string]*core.Topic
	articles map[string]*core.Article // keyed by topic ID
	listErr  error
}

func newFakeStore(topics ...core.Topic) *fakeStore {
	s := &fakeStore{
		topics:   make(map[string]*core.Topic),
		articles: make(map[string]*core.Article),
	}
	for i := range topics {
		t := topics[i]
		s.topics[t.ID] = &t
	}
	return s
}

func (s *fakeStore) ListTopicsByStatus(status core.TopicStatus, limit int) ([]core.Topic, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.Topic
	for _, t := range s.topics {
		if t.Status == status {
			out = append(out, *t)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) GetTopic(id string) (*core.Topic, error) {
	t, ok := s.topics[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *fakeStore) UpdateTopicStatus(id string, status core.TopicStatus) error {
	t, ok := s.topics[id]
	if !ok {
		return fmt.Errorf("topic %s not found", id)
	}
	t.Status = status
	return nil
}

func (s *fakeStore) UpdateTopicGenre(id string, genre core.Genre) error {
	t, ok := s.topics[id]
	if !ok {
		return fmt.Errorf("topic %s not found", id)
	}
	t.Genre = genre
	return nil
}

func (s *fakeStore) UpdateTopicScore(id string, score float64) error {
	t, ok := s.topics[id]
	if !ok {
		return fmt.Errorf("topic %s not found", id)
	}
	t.Score = score
	return nil
}

func (s *fakeStore) SaveTopicOutline(id string, outline *core.TopicOutline) error {
	t, ok := s.topics[id]
	if !ok {
		return fmt.Errorf("topic %s not found", id)
	}
	t.Outline = outline
	return nil
}

func (s *fakeStore) GetArticleByTopic(topicID string) (*core.Article, error) {
	a, ok := s.articles[topicID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (s *fakeStore) SaveArticle(article core.Article) error {
	s.articles[article.TopicID] = &article
	return nil
}

func (s *fakeStore) UpdateArticleBody(id, body string) error {
	for _, a := range s.articles {
		if a.ID == id {
			a.Body = body
			return nil
		}
	}
	return fmt.Errorf("article %s not found", id)
}

func (s *fakeStore) UpdateArticleStatus(id string, status core.ArticleStatus) error {
	for _, a := range s.articles {
		if a.ID == id {
			a.Status = status
			if status == core.ArticlePublished {
				a.PublishedAt = time.Now().UTC()
			}
			return nil
		}
	}
	return fmt.Errorf("article %s not found", id)
}

func testTopic(id string, status core.TopicStatus) core.Topic {
	return core.Topic{
		ID:          id,
		Title:       "Quantum Chip Breakthrough",
		Abstract:    "Researchers announce a new error-corrected quantum chip.",
		URL:         "https://example.com/quantum-chip",
		SourceName:  "Example Wire",
		PublishedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Genre:       core.GenreTechnology,
		Score:       0.8,
		Status:      status,
	}
}

func TestOutlineHappyPath(t *testing.T) {
	ai := &fakeTransformer{
		response: `{"genre": "science", "sections": [{"title": "Overview", "points": ["a", "b"]}], "summary": ["One", "Two", "Three"]}`,
	}
	store := newFakeStore(testTopic("t1", core.TopicNew))
	runner := NewRunner(ai, store)

	n, err := runner.Outline(context.Background(), 5)
	if err != nil {
		t.Fatalf("Outline() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Outline() = %d, want 1", n)
	}

	topic := store.topics["t1"]
	if topic.Status != core.TopicOutlined {
		t.Errorf("status = %s, want OUTLINED", topic.Status)
	}
	if topic.Genre != core.GenreScience {
		t.Errorf("genre = %s, want science", topic.Genre)
	}
	if topic.Outline == nil || len(topic.Outline.Sections) != 1 {
		t.Fatalf("outline not saved: %+v", topic.Outline)
	}
	if got := topic.Outline.Summary; len(got) != 3 || got[0] != "One" {
		t.Errorf("summary = %v", got)
	}
}

func TestOutlineInvalidJSONFallsBack(t *testing.T) {
	ai := &fakeTransformer{response: "I cannot produce an outline right now."}
	store := newFakeStore(testTopic("t1", core.TopicNew))
	runner := NewRunner(ai, store)

	if _, err := runner.Outline(context.Background(), 5); err != nil {
		t.Fatalf("Outline() error: %v", err)
	}

	topic := store.topics["t1"]
	if topic.Status != core.TopicOutlined {
		t.Fatalf("status = %s, want OUTLINED despite bad response", topic.Status)
	}
	if topic.Outline == nil || len(topic.Outline.Sections) != 3 {
		t.Fatalf("expected fallback outline, got %+v", topic.Outline)
	}
	if len(topic.Outline.Summary) != 3 {
		t.Errorf("fallback summary bullets = %d, want 3", len(topic.Outline.Summary))
	}
	if topic.Genre != core.GenreTechnology {
		t.Errorf("genre changed to %s on fallback", topic.Genre)
	}
}

func TestOutlineAIFailureFallsBack(t *testing.T) {
	ai := &fakeTransformer{err: errors.New("model unavailable")}
	store := newFakeStore(testTopic("t1", core.TopicNew))
	runner := NewRunner(ai, store)

	if _, err := runner.Outline(context.Background(), 5); err != nil {
		t.Fatalf("Outline() error: %v", err)
	}
	if store.topics["t1"].Outline == nil {
		t.Fatal("expected fallback outline on AI failure")
	}
}

func TestNormalizeSummary(t *testing.T) {
	topic := testTopic("t1", core.TopicNew)

	got := normalizeSummary([]string{"only two", "bullets"}, topic)
	if len(got) != 3 {
		t.Fatalf("wrong bullet count normalized to %d bullets", len(got))
	}
	if got[0] != "Key development: "+topic.Title {
		t.Errorf("fallback bullet = %q", got[0])
	}

	long := strings.Repeat("x", 80)
	got = normalizeSummary([]string{long, "ok", "fine"}, topic)
	if n := len([]rune(got[0])); n > 50 {
		t.Errorf("bullet length = %d, want <= 50", n)
	}
	if !strings.HasSuffix(got[0], "...") {
		t.Errorf("long bullet not ellipsized: %q", got[0])
	}
}

func TestCapBulletSentenceBoundary(t *testing.T) {
	in := "Short claim here. And then a much longer trailing clause that overflows"
	got := capBullet(in)
	if got != "Short claim here." {
		t.Errorf("capBullet() = %q, want sentence cut", got)
	}
}

func TestDraftComposesArticle(t *testing.T) {
	topic := testTopic("t1", core.TopicOutlined)
	topic.Outline = fallbackOutline(topic)
	ai := &fakeTransformer{response: "## Overview\n\nProse goes here."}
	store := newFakeStore(topic)
	runner := NewRunner(ai, store)

	n, err := runner.Draft(context.Background(), 5)
	if err != nil {
		t.Fatalf("Draft() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Draft() = %d, want 1", n)
	}

	article := store.articles["t1"]
	if article == nil {
		t.Fatal("article not saved")
	}
	if article.Status != core.ArticleDraft {
		t.Errorf("status = %s, want DRAFT", article.Status)
	}
	if !strings.HasPrefix(article.Body, "# "+topic.Title) {
		t.Errorf("body missing title heading:\n%s", article.Body)
	}
	if !strings.Contains(article.Body, ":::source") {
		t.Error("body missing citation block")
	}
	if !strings.Contains(article.Body, topic.URL) {
		t.Error("citation block missing source URL")
	}
	if store.topics["t1"].Status != core.TopicDrafted {
		t.Errorf("topic status = %s, want DRAFTED", store.topics["t1"].Status)
	}
	if len(article.Sources) != 1 || article.Sources[0].URL != topic.URL {
		t.Errorf("sources = %+v", article.Sources)
	}
}

func TestDraftAIFailureUsesSkeleton(t *testing.T) {
	topic := testTopic("t1", core.TopicOutlined)
	topic.Outline = fallbackOutline(topic)
	ai := &fakeTransformer{err: errors.New("quota exhausted")}
	store := newFakeStore(topic)
	runner := NewRunner(ai, store)

	if _, err := runner.Draft(context.Background(), 5); err != nil {
		t.Fatalf("Draft() error: %v", err)
	}

	article := store.articles["t1"]
	if article == nil {
		t.Fatal("article not saved on AI failure")
	}
	if !strings.Contains(article.Body, "## Overview") {
		t.Errorf("skeleton body missing outline section:\n%s", article.Body)
	}
	if !strings.Contains(article.Body, ":::source") {
		t.Error("skeleton body missing citation block")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quantum Chip Breakthrough", "quantum-chip-breakthrough"},
		{"Hello, World! 2026", "hello-world-2026"},
		{"  spaced   out  ", "spaced-out"},
		{strings.Repeat("word ", 20), "word-word-word-word-word-word-word-word-word-word"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Slugify(strings.Repeat("word ", 20)); len(got) > slugMaxLen {
		t.Errorf("slug length = %d, want <= %d", len(got), slugMaxLen)
	}
}

func TestPolishKeepsCitationBlock(t *testing.T) {
	topic := testTopic("t1", core.TopicDrafted)
	store := newFakeStore(topic)
	store.articles["t1"] = &core.Article{
		ID:      "a1",
		TopicID: "t1",
		Body:    "# Title\n\nBody text.\n\n:::source\n**Source**: [x](https://example.com) — Example Wire (2026-08-20)\n:::",
	}
	// The model "improves" the body but drops attribution.
	ai := &fakeTransformer{response: "# Title\n\nMuch better body text."}
	runner := NewRunner(ai, store)

	if _, err := runner.Polish(context.Background(), 5); err != nil {
		t.Fatalf("Polish() error: %v", err)
	}
	if !strings.Contains(store.articles["t1"].Body, ":::source") {
		t.Error("polish dropped the citation block")
	}
}

func TestLocalPolish(t *testing.T) {
	in := "line one   \n\n\n\nline two\t\n"
	want := "line one\n\nline two"
	if got := LocalPolish(in); got != want {
		t.Errorf("LocalPolish() = %q, want %q", got, want)
	}
}

func TestVerifyMissingCitationBlocksPublish(t *testing.T) {
	topic := testTopic("t1", core.TopicDrafted)
	store := newFakeStore(topic)
	store.articles["t1"] = &core.Article{
		ID:      "a1",
		TopicID: "t1",
		Status:  core.ArticleDraft,
		Body:    "# Title\n\nBody with no attribution at all.",
	}
	ai := &fakeTransformer{response: `{"issues": [], "suggestions": []}`}
	runner := NewRunner(ai, store)

	n, err := runner.Verify(context.Background(), 5)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if n != 0 {
		t.Fatalf("Verify() = %d, want 0", n)
	}
	if store.topics["t1"].Status != core.TopicDrafted {
		t.Errorf("topic status = %s, want DRAFTED", store.topics["t1"].Status)
	}
	if store.articles["t1"].Status != core.ArticleDraft {
		t.Errorf("article status = %s, want DRAFT", store.articles["t1"].Status)
	}
}

func TestVerifyAdvancesValidArticle(t *testing.T) {
	topic := testTopic("t1", core.TopicDrafted)
	store := newFakeStore(topic)
	store.articles["t1"] = &core.Article{
		ID:      "a1",
		TopicID: "t1",
		Status:  core.ArticleDraft,
		Body:    "# Title\n\nBody.\n\n:::source\n**Source**: [x](" + topic.URL + ") — Example Wire (2026-08-20)\n:::",
	}
	ai := &fakeTransformer{response: `{"issues": ["slightly speculative tone"], "suggestions": ["attribute the forecast"]}`}
	runner := NewRunner(ai, store)

	n, err := runner.Verify(context.Background(), 5)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Verify() = %d, want 1", n)
	}
	if store.topics["t1"].Status != core.TopicVerified {
		t.Errorf("topic status = %s, want VERIFIED", store.topics["t1"].Status)
	}
}

func TestVerifyArticleURLWarning(t *testing.T) {
	topic := testTopic("t1", core.TopicDrafted)
	ai := &fakeTransformer{response: `{"issues": [], "suggestions": []}`}
	runner := NewRunner(ai, newFakeStore())

	body := "# Title\n\nBody.\n\n:::source\n**Source**: [x](https://other.example) — Example Wire\n:::"
	result := runner.VerifyArticle(context.Background(), topic, body)
	if !result.Valid() {
		t.Fatal("URL warning should not invalidate the article")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Severity == core.SeverityWarning && strings.Contains(issue.Message, "URL") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected URL warning, got %+v", result.Issues)
	}
}

func TestVerifyAIFailureScansAbsolutistPhrases(t *testing.T) {
	topic := testTopic("t1", core.TopicDrafted)
	ai := &fakeTransformer{err: errors.New("model unavailable")}
	runner := NewRunner(ai, newFakeStore())

	body := "# Title\n\nThis will definitely succeed, guaranteed.\n\n:::source\n[x](" + topic.URL + ")\n:::"
	result := runner.VerifyArticle(context.Background(), topic, body)
	if !result.Valid() {
		t.Fatal("absolutist warnings should not invalidate the article")
	}
	if len(result.Issues) != 2 {
		t.Fatalf("issues = %d, want 2 (definitely, guaranteed): %+v", len(result.Issues), result.Issues)
	}
	if len(result.Suggestions) != 2 {
		t.Errorf("suggestions = %d, want 2", len(result.Suggestions))
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	topic := testTopic("t1", core.TopicVerified)
	store := newFakeStore(topic)
	already := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	store.articles["t1"] = &core.Article{
		ID:          "a1",
		TopicID:     "t1",
		Status:      core.ArticlePublished,
		PublishedAt: already,
	}
	runner := NewRunner(&fakeTransformer{}, store)

	n, err := runner.Publish(context.Background(), 5)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Publish() = %d, want 1", n)
	}
	if !store.articles["t1"].PublishedAt.Equal(already) {
		t.Error("republish changed published_at")
	}
	if store.topics["t1"].Status != core.TopicPublished {
		t.Errorf("topic status = %s, want PUBLISHED", store.topics["t1"].Status)
	}
}

func TestPublishAdvancesDraft(t *testing.T) {
	topic := testTopic("t1", core.TopicVerified)
	store := newFakeStore(topic)
	store.articles["t1"] = &core.Article{ID: "a1", TopicID: "t1", Status: core.ArticleDraft}
	runner := NewRunner(&fakeTransformer{}, store)

	if _, err := runner.Publish(context.Background(), 5); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	a := store.articles["t1"]
	if a.Status != core.ArticlePublished {
		t.Errorf("article status = %s, want PUBLISHED", a.Status)
	}
	if a.PublishedAt.IsZero() {
		t.Error("published_at not stamped")
	}
}

func TestPublishMakesNoAICalls(t *testing.T) {
	topic := testTopic("t1", core.TopicVerified)
	store := newFakeStore(topic)
	store.articles["t1"] = &core.Article{ID: "a1", TopicID: "t1", Status: core.ArticleDraft}
	ai := &fakeTransformer{}
	runner := NewRunner(ai, store)

	if _, err := runner.Publish(context.Background(), 5); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if ai.calls != 0 {
		t.Errorf("publish made %d AI calls, want 0", ai.calls)
	}
}

func TestRescoreBlendsScores(t *testing.T) {
	topic := testTopic("t1", core.TopicNew)
	topic.Score = 0.6
	store := newFakeStore(topic)
	ai := &fakeTransformer{
		response: `[{"title": "Quantum Chip Breakthrough", "score": 90, "reason": "major advance"}]`,
	}
	runner := NewRunner(ai, store)

	if err := runner.Rescore(context.Background(), []core.Topic{topic}); err != nil {
		t.Fatalf("Rescore() error: %v", err)
	}
	want := (0.6 + 0.9) / 2
	if got := store.topics["t1"].Score; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestRescoreFailureKeepsHeuristic(t *testing.T) {
	topic := testTopic("t1", core.TopicNew)
	topic.Score = 0.6
	store := newFakeStore(topic)
	ai := &fakeTransformer{err: errors.New("model unavailable")}
	runner := NewRunner(ai, store)

	if err := runner.Rescore(context.Background(), []core.Topic{topic}); err != nil {
		t.Fatalf("Rescore() error: %v", err)
	}
	if got := store.topics["t1"].Score; got != 0.6 {
		t.Errorf("score = %v, want heuristic 0.6 preserved", got)
	}
}

func TestBlendScoreClamps(t *testing.T) {
	if got := BlendScore(0.5, 150); got != 0.75 {
		t.Errorf("BlendScore(0.5, 150) = %v, want 0.75", got)
	}
	if got := BlendScore(0.5, -10); got != 0.25 {
		t.Errorf("BlendScore(0.5, -10) = %v, want 0.25", got)
	}
}
