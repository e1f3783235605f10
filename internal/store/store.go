// Package store persists source items, topics, and articles in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newsforge/internal/core"
)

// Store wraps the SQLite database holding pipeline state.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path and ensures the
// schema exists.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS source_items (
		provider TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		payload TEXT NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		fetched_at TIMESTAMP NOT NULL,
		PRIMARY KEY (provider, provider_id)
	);

	CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		canonical_key TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		abstract TEXT,
		url TEXT NOT NULL,
		source_name TEXT,
		published_at TIMESTAMP,
		genre TEXT NOT NULL,
		score REAL NOT NULL,
		status TEXT NOT NULL,
		outline TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		summary TEXT NOT NULL,
		body TEXT NOT NULL,
		genre TEXT NOT NULL,
		tags TEXT,
		status TEXT NOT NULL,
		sources TEXT NOT NULL,
		published_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_topics_status_score ON topics(status, score DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSourceItems inserts items for audit, skipping rows already present.
// Returns the number of newly inserted rows.
func (s *Store) SaveSourceItems(items []core.SourceItem) (int, error) {
	inserted := 0
	now := time.Now().UTC()

	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return inserted, fmt.Errorf("failed to marshal source item: %w", err)
		}

		res, err := s.db.Exec(
			`INSERT OR IGNORE INTO source_items (provider, provider_id, url, title, payload, processed, fetched_at)
			 VALUES (?, ?, ?, ?, ?, 0, ?)`,
			string(item.Provider), item.ProviderID, item.URL, item.Title, string(payload), now,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert source item: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	return inserted, nil
}

// ListUnprocessedSourceItems returns up to limit raw items not yet turned
// into topics. A non-positive limit returns all of them.
func (s *Store) ListUnprocessedSourceItems(limit int) ([]core.SourceItem, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM source_items WHERE processed = 0 ORDER BY fetched_at LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query source items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []core.SourceItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan source item: %w", err)
		}

		var item core.SourceItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkSourceProcessed flags a raw item as consumed by ranking.
func (s *Store) MarkSourceProcessed(provider core.Provider, providerID string) error {
	_, err := s.db.Exec(
		`UPDATE source_items SET processed = 1 WHERE provider = ? AND provider_id = ?`,
		string(provider), providerID)
	if err != nil {
		return fmt.Errorf("failed to mark source processed: %w", err)
	}
	return nil
}

// TopicExists reports whether a topic with the canonical key is already
// stored.
func (s *Store) TopicExists(canonicalKey string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM topics WHERE canonical_key = ?`, canonicalKey).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check topic existence: %w", err)
	}
	return true, nil
}

// SaveTopic inserts or replaces a topic row.
func (s *Store) SaveTopic(topic core.Topic) error {
	outline, err := marshalNullable(topic.Outline)
	if err != nil {
		return fmt.Errorf("failed to marshal outline: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO topics
		 (id, canonical_key, title, abstract, url, source_name, published_at, genre, score, status, outline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		topic.ID, topic.CanonicalKey, topic.Title, topic.Abstract, topic.URL, topic.SourceName,
		topic.PublishedAt, string(topic.Genre), topic.Score, string(topic.Status), outline,
		topic.CreatedAt, topic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save topic: %w", err)
	}
	return nil
}

// GetTopic returns a topic by ID, or (nil, nil) when absent.
func (s *Store) GetTopic(id string) (*core.Topic, error) {
	row := s.db.QueryRow(
		`SELECT id, canonical_key, title, abstract, url, source_name, published_at, genre, score, status, outline, created_at, updated_at
		 FROM topics WHERE id = ?`, id)
	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return topic, err
}

// ListTopicsByStatus returns up to limit topics with the status, highest
// score first. A non-positive limit returns all of them.
func (s *Store) ListTopicsByStatus(status core.TopicStatus, limit int) ([]core.Topic, error) {
	rows, err := s.db.Query(
		`SELECT id, canonical_key, title, abstract, url, source_name, published_at, genre, score, status, outline, created_at, updated_at
		 FROM topics WHERE status = ? ORDER BY score DESC, created_at LIMIT ?`,
		string(status), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var topics []core.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *topic)
	}
	return topics, rows.Err()
}

// UpdateTopicStatus advances a topic to status.
func (s *Store) UpdateTopicStatus(id string, status core.TopicStatus) error {
	_, err := s.db.Exec(
		`UPDATE topics SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update topic status: %w", err)
	}
	return nil
}

// UpdateTopicGenre overrides the heuristic genre with a validated one.
func (s *Store) UpdateTopicGenre(id string, genre core.Genre) error {
	_, err := s.db.Exec(
		`UPDATE topics SET genre = ?, updated_at = ? WHERE id = ?`,
		string(genre), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update topic genre: %w", err)
	}
	return nil
}

// UpdateTopicScore stores a re-scored value.
func (s *Store) UpdateTopicScore(id string, score float64) error {
	_, err := s.db.Exec(
		`UPDATE topics SET score = ?, updated_at = ? WHERE id = ?`,
		score, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update topic score: %w", err)
	}
	return nil
}

// SaveTopicOutline stores the outline on a topic.
func (s *Store) SaveTopicOutline(id string, outline *core.TopicOutline) error {
	data, err := marshalNullable(outline)
	if err != nil {
		return fmt.Errorf("failed to marshal outline: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE topics SET outline = ?, updated_at = ? WHERE id = ?`,
		data, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to save outline: %w", err)
	}
	return nil
}

// GetArticleByTopic returns the article produced for a topic, or (nil, nil)
// when none exists.
func (s *Store) GetArticleByTopic(topicID string) (*core.Article, error) {
	row := s.db.QueryRow(
		`SELECT id, topic_id, slug, title, description, summary, body, genre, tags, status, sources, published_at, created_at, updated_at
		 FROM articles WHERE topic_id = ?`, topicID)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return article, err
}

// SaveArticle inserts or replaces an article row.
func (s *Store) SaveArticle(article core.Article) error {
	summary, err := json.Marshal(article.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	srcs, err := json.Marshal(article.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO articles
		 (id, topic_id, slug, title, description, summary, body, genre, tags, status, sources, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID, article.TopicID, article.Slug, article.Title, article.Description,
		string(summary), article.Body, string(article.Genre), string(tags), string(article.Status),
		string(srcs), article.PublishedAt, article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}
	return nil
}

// UpdateArticleBody replaces the article body (polish stage).
func (s *Store) UpdateArticleBody(id, body string) error {
	_, err := s.db.Exec(
		`UPDATE articles SET body = ?, updated_at = ? WHERE id = ?`,
		body, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update article body: %w", err)
	}
	return nil
}

// UpdateArticleStatus advances an article, stamping published_at when it
// goes live.
func (s *Store) UpdateArticleStatus(id string, status core.ArticleStatus) error {
	now := time.Now().UTC()
	var err error
	if status == core.ArticlePublished {
		_, err = s.db.Exec(
			`UPDATE articles SET status = ?, published_at = ?, updated_at = ? WHERE id = ?`,
			string(status), now, now, id)
	} else {
		_, err = s.db.Exec(
			`UPDATE articles SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update article status: %w", err)
	}
	return nil
}

// DeleteStaleDrafts removes DRAFT articles created before cutoff and
// returns how many were deleted.
func (s *Store) DeleteStaleDrafts(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM articles WHERE status = ? AND created_at < ?`,
		string(core.ArticleDraft), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes stored row counts.
type Stats struct {
	SourceItems    int
	PendingSources int
	Topics         int
	Articles       int
	PublishedCount int
}

// GetStats returns row counts for reporting.
func (s *Store) GetStats() (Stats, error) {
	var stats Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM source_items`, &stats.SourceItems},
		{`SELECT COUNT(*) FROM source_items WHERE processed = 0`, &stats.PendingSources},
		{`SELECT COUNT(*) FROM topics`, &stats.Topics},
		{`SELECT COUNT(*) FROM articles`, &stats.Articles},
		{`SELECT COUNT(*) FROM articles WHERE status = 'PUBLISHED'`, &stats.PublishedCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return stats, fmt.Errorf("failed to collect stats: %w", err)
		}
	}
	return stats, nil
}

// sqlLimit maps a non-positive limit to SQLite's unlimited sentinel.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*core.Topic, error) {
	var topic core.Topic
	var genre, status string
	var abstract, sourceName, outline sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(&topic.ID, &topic.CanonicalKey, &topic.Title, &abstract, &topic.URL,
		&sourceName, &publishedAt, &genre, &topic.Score, &status, &outline,
		&topic.CreatedAt, &topic.UpdatedAt)
	if err != nil {
		return nil, err
	}

	topic.Abstract = abstract.String
	topic.SourceName = sourceName.String
	if publishedAt.Valid {
		topic.PublishedAt = publishedAt.Time
	}
	topic.Genre = core.Genre(genre)
	topic.Status = core.TopicStatus(status)

	if outline.Valid && outline.String != "" {
		var o core.TopicOutline
		if err := json.Unmarshal([]byte(outline.String), &o); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outline: %w", err)
		}
		topic.Outline = &o
	}

	return &topic, nil
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var article core.Article
	var genre, status, summary, srcs string
	var description, tags sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(&article.ID, &article.TopicID, &article.Slug, &article.Title, &description,
		&summary, &article.Body, &genre, &tags, &status, &srcs, &publishedAt,
		&article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return nil, err
	}

	article.Description = description.String
	article.Genre = core.Genre(genre)
	article.Status = core.ArticleStatus(status)
	if publishedAt.Valid {
		article.PublishedAt = publishedAt.Time
	}

	if err := json.Unmarshal([]byte(summary), &article.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &article.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(srcs), &article.Sources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
	}

	return &article, nil
}

func marshalNullable(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	switch t := v.(type) {
	case *core.TopicOutline:
		if t == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
