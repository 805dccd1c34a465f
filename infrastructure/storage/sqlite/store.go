// ABOUTME: SQLite article store that reconciles parsed feeds against stored articles
// ABOUTME: Reports new, updated and retention-deleted articles for downstream sync

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"digests-refresher/core/delta"
	"digests-refresher/core/domain"
	"digests-refresher/infrastructure/sqlbuilder"
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/utils/clock"
)

// DefaultRetention keeps articles that dropped out of their feed for a month
const DefaultRetention = 30 * 24 * time.Hour

var articleColumns = []string{
	"feed_url", "article_id", "title", "link", "summary", "content",
	"author", "published", "updated", "checksum", "fetched_at",
}

var (
	selectByFeedQuery = sqlbuilder.New().
				Select(articleColumns...).
				From("articles").
				Where("feed_url", "=", nil).
				OrderBy("fetched_at", true).
				MustBuild()
	selectRecentByFeedQuery = sqlbuilder.New().
				Select(articleColumns...).
				From("articles").
				Where("feed_url", "=", nil).
				OrderBy("fetched_at", true).
				Limit(nil).
				MustBuild()
	upsertQuery = sqlbuilder.New().
			InsertOrReplace("articles").
			Values(articleColumns, make([]interface{}, len(articleColumns))).
			MustBuild()
	deleteQuery = sqlbuilder.New().
			Delete("articles").
			Where("feed_url", "=", nil).
			Where("article_id", "=", nil).
			MustBuild()
)

// Options configures the store
type Options struct {
	// Retention is how long an article missing from its feed is kept; zero uses DefaultRetention
	Retention time.Duration

	// Clock stamps fetch times; nil means the real clock
	Clock clock.Clock
}

// Store implements the Storage interface using SQLite
type Store struct {
	db        *sql.DB
	retention time.Duration
	clock     clock.Clock
}

// NewStore opens (or creates) the article database at path
func NewStore(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, errors.New("storage path cannot be empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	s := &Store{db: db, retention: opts.Retention, clock: opts.Clock}
	if s.retention <= 0 {
		s.retention = DefaultRetention
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS articles (
			feed_url TEXT NOT NULL,
			article_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			published INTEGER,
			updated INTEGER,
			checksum TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (feed_url, article_id)
		);
		CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(feed_url, fetched_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Update stores the parsed feed's articles and reports which ones changed.
// Articles absent from the feed are deleted once they are older than the retention window.
func (s *Store) Update(ctx context.Context, feed *domain.Feed, parsed *domain.ParsedFeed) (*domain.ArticleChanges, error) {
	if feed == nil || parsed == nil {
		return nil, errors.New("feed and parsed feed are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.articles(ctx, tx, selectByFeedQuery, feed.URL)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]domain.Article, len(existing))
	for _, a := range existing {
		stored[a.ArticleID] = a
	}

	now := s.clock.Now().UTC()
	changes := &domain.ArticleChanges{FeedURL: feed.URL}
	seen := make(map[string]struct{}, len(parsed.Items))

	for _, item := range parsed.Items {
		if !item.IsValid() {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		article := articleFromItem(feed.URL, item, now)
		prev, ok := stored[item.ID]
		switch {
		case !ok:
			changes.New = append(changes.New, article)
		case prev.Checksum != article.Checksum:
			changes.Updated = append(changes.Updated, article)
		}

		// Unchanged articles are rewritten too so fetched_at tracks when they were last seen
		if err := s.upsert(ctx, tx, article); err != nil {
			return nil, err
		}
	}

	cutoff := now.Add(-s.retention)
	for _, a := range existing {
		if _, ok := seen[a.ArticleID]; ok {
			continue
		}
		if a.FetchedAt.After(cutoff) {
			continue
		}
		if _, err := tx.ExecContext(ctx, deleteQuery, feed.URL, a.ArticleID); err != nil {
			return nil, fmt.Errorf("failed to delete article: %w", err)
		}
		changes.Deleted = append(changes.Deleted, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return changes, nil
}

// Articles returns the stored articles of a feed, most recently fetched first
func (s *Store) Articles(ctx context.Context, feedURL string) ([]domain.Article, error) {
	return s.articles(ctx, s.db, selectByFeedQuery, feedURL)
}

// RecentArticles returns at most limit articles of a feed, most recently fetched first.
// A limit below 1 returns every article.
func (s *Store) RecentArticles(ctx context.Context, feedURL string, limit int) ([]domain.Article, error) {
	if limit < 1 {
		return s.Articles(ctx, feedURL)
	}
	return s.articles(ctx, s.db, selectRecentByFeedQuery, feedURL, limit)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *Store) articles(ctx context.Context, q querier, query string, args ...interface{}) ([]domain.Article, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		var published, updated sql.NullInt64
		var fetchedAt int64
		if err := rows.Scan(&a.FeedURL, &a.ArticleID, &a.Title, &a.Link, &a.Summary, &a.Content,
			&a.Author, &published, &updated, &a.Checksum, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		a.Published = fromNullUnix(published)
		a.Updated = fromNullUnix(updated)
		a.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, a domain.Article) error {
	_, err := tx.ExecContext(ctx, upsertQuery,
		a.FeedURL, a.ArticleID, a.Title, a.Link, a.Summary, a.Content, a.Author,
		toNullUnix(a.Published), toNullUnix(a.Updated), a.Checksum, a.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store article: %w", err)
	}
	return nil
}

func articleFromItem(feedURL string, item domain.ParsedItem, fetchedAt time.Time) domain.Article {
	a := domain.Article{
		FeedURL:   feedURL,
		ArticleID: item.ID,
		Title:     item.Title,
		Link:      item.Link,
		Summary:   item.Summary,
		Content:   item.Content,
		Author:    item.Author,
		Published: item.Published,
		Updated:   item.Updated,
		FetchedAt: fetchedAt,
	}
	a.Checksum = checksum(a)
	return a
}

// checksum fingerprints the fields a reader would notice changing
func checksum(a domain.Article) string {
	var b strings.Builder
	for _, field := range []string{a.Title, a.Link, a.Summary, a.Content, a.Author} {
		b.WriteString(field)
		b.WriteByte(0)
	}
	if a.Updated != nil {
		b.WriteString(a.Updated.UTC().Format(time.RFC3339))
	}
	return delta.Hash([]byte(b.String()))
}

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
