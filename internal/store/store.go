// Package store implements the persistence boundary on SQLite: four source
// tables with natural-key dedup, plus the pooled digests table.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aibrief/internal/core"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed repository.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "aibrief.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	articleTable := `
	CREATE TABLE IF NOT EXISTS %s (
		guid TEXT PRIMARY KEY,
		title TEXT,
		description TEXT,
		url TEXT,
		published_at DATETIME,
		category TEXT,
		created_at DATETIME
	);`

	xPostsTable := `
	CREATE TABLE IF NOT EXISTS x_posts (
		guid TEXT PRIMARY KEY,
		title TEXT,
		description TEXT,
		url TEXT,
		published_at DATETIME,
		category TEXT,
		author TEXT,
		markdown TEXT,
		created_at DATETIME
	);`

	digestsTable := `
	CREATE TABLE IF NOT EXISTS digests (
		id TEXT PRIMARY KEY,
		article_type TEXT,
		article_id TEXT,
		title TEXT,
		summary TEXT,
		url TEXT,
		published_at DATETIME,
		created_at DATETIME,
		sent_at DATETIME,
		UNIQUE(article_type, article_id)
	);`

	tables := []string{
		fmt.Sprintf(articleTable, "youtube_videos"),
		fmt.Sprintf(articleTable, "openai_articles"),
		fmt.Sprintf(articleTable, "anthropic_articles"),
		xPostsTable,
		digestsTable,
	}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func tableFor(t core.ArticleType) (string, error) {
	switch t {
	case core.TypeYouTube:
		return "youtube_videos", nil
	case core.TypeOpenAI:
		return "openai_articles", nil
	case core.TypeAnthropic:
		return "anthropic_articles", nil
	case core.TypeX:
		return "x_posts", nil
	default:
		return "", fmt.Errorf("unknown article type %q", t)
	}
}

// BulkInsertArticles inserts articles into their source tables, silently
// skipping rows whose guid already exists. Returns how many rows were new.
func (s *Store) BulkInsertArticles(articles []core.Article) (int, error) {
	inserted := 0
	now := time.Now().UTC()

	for _, a := range articles {
		table, err := tableFor(a.Source)
		if err != nil {
			return inserted, err
		}

		var res sql.Result
		if a.Source == core.TypeX {
			res, err = s.db.Exec(`
			INSERT OR IGNORE INTO x_posts
			(guid, title, description, url, published_at, category, author, markdown, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, '', ?)`,
				a.GUID, a.Title, a.Description, a.URL, a.PublishedAt, a.Category, a.Author, now)
		} else {
			res, err = s.db.Exec(fmt.Sprintf(`
			INSERT OR IGNORE INTO %s
			(guid, title, description, url, published_at, category, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, table),
				a.GUID, a.Title, a.Description, a.URL, a.PublishedAt, a.Category, now)
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to insert article %s: %w", a.GUID, err)
		}

		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

// ArticlesWithoutDigest returns source rows across all four tables that have
// no digest yet, up to limit (0 means no limit). For X posts the extracted
// markdown body, when present, takes precedence over the feed description.
func (s *Store) ArticlesWithoutDigest(limit int) ([]core.PendingArticle, error) {
	var pending []core.PendingArticle

	for _, t := range core.ArticleTypes {
		table, err := tableFor(t)
		if err != nil {
			return nil, err
		}

		content := "description"
		if t == core.TypeX {
			content = "CASE WHEN markdown != '' THEN markdown ELSE description END"
		}

		query := fmt.Sprintf(`
		SELECT guid, title, %s, url, published_at
		FROM %s
		WHERE guid NOT IN (SELECT article_id FROM digests WHERE article_type = ?)
		ORDER BY published_at`, content, table)

		rows, err := s.db.Query(query, string(t))
		if err != nil {
			return nil, fmt.Errorf("failed to select pending articles from %s: %w", table, err)
		}

		for rows.Next() {
			p := core.PendingArticle{Type: t}
			if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.URL, &p.PublishedAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan pending article: %w", err)
			}
			pending = append(pending, p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to iterate pending articles: %w", err)
		}
		rows.Close()
	}

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	return pending, nil
}

// CreateDigest persists a digest keyed by (article_type, article_id). A
// second digest for the same article is ignored, keeping at most one per
// source row.
func (s *Store) CreateDigest(d core.Digest) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
	INSERT OR IGNORE INTO digests
	(id, article_type, article_id, title, summary, url, published_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, string(d.ArticleType), d.ArticleID, d.Title, d.Summary, d.URL, d.PublishedAt, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create digest for %s/%s: %w", d.ArticleType, d.ArticleID, err)
	}

	return nil
}

// RecentDigests returns digests created within the last N hours.
func (s *Store) RecentDigests(hours int) ([]core.Digest, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	rows, err := s.db.Query(`
	SELECT id, article_type, article_id, title, summary, url, published_at, created_at, sent_at
	FROM digests
	WHERE created_at > ?
	ORDER BY created_at DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select recent digests: %w", err)
	}
	defer rows.Close()

	var digests []core.Digest
	for rows.Next() {
		var d core.Digest
		var articleType string
		var sentAt sql.NullTime
		if err := rows.Scan(&d.ID, &articleType, &d.ArticleID, &d.Title, &d.Summary,
			&d.URL, &d.PublishedAt, &d.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		d.ArticleType = core.ArticleType(articleType)
		if sentAt.Valid {
			t := sentAt.Time
			d.SentAt = &t
		}
		digests = append(digests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate digests: %w", err)
	}

	return digests, nil
}

// XPostsWithoutMarkdown returns X posts lacking an extracted body, up to
// limit (0 means no limit).
func (s *Store) XPostsWithoutMarkdown(limit int) ([]core.Article, error) {
	query := `
	SELECT guid, title, description, url, published_at, category, author
	FROM x_posts
	WHERE markdown IS NULL OR markdown = ''
	ORDER BY published_at`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to select x posts without markdown: %w", err)
	}
	defer rows.Close()

	var posts []core.Article
	for rows.Next() {
		a := core.Article{Source: core.TypeX}
		if err := rows.Scan(&a.GUID, &a.Title, &a.Description, &a.URL,
			&a.PublishedAt, &a.Category, &a.Author); err != nil {
			return nil, fmt.Errorf("failed to scan x post: %w", err)
		}
		posts = append(posts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate x posts: %w", err)
	}

	return posts, nil
}

// UpdateXPostMarkdown stores the extracted body for a post by its guid.
func (s *Store) UpdateXPostMarkdown(guid, markdown string) error {
	res, err := s.db.Exec(`UPDATE x_posts SET markdown = ? WHERE guid = ?`, markdown, guid)
	if err != nil {
		return fmt.Errorf("failed to update markdown for %s: %w", guid, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no x post with guid %s", guid)
	}
	return nil
}

// MarkDigestsSent records the send time on the given digests after the email
// went out.
func (s *Store) MarkDigestsSent(ids []string, sentAt time.Time) error {
	for _, id := range ids {
		if _, err := s.db.Exec(`UPDATE digests SET sent_at = ? WHERE id = ?`, sentAt.UTC(), id); err != nil {
			return fmt.Errorf("failed to mark digest %s sent: %w", id, err)
		}
	}
	return nil
}
