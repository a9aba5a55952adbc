package core

import "time"

// ArticleType discriminates which source table an article (and its digest)
// belongs to.
type ArticleType string

const (
	TypeYouTube   ArticleType = "youtube"   // video descriptions and transcripts
	TypeOpenAI    ArticleType = "openai"    // OpenAI blog/news feed
	TypeAnthropic ArticleType = "anthropic" // Anthropic blog/news feed
	TypeX         ArticleType = "x"         // X.com posts via per-account RSS bridges
)

// ArticleTypes lists every source table in a stable order.
var ArticleTypes = []ArticleType{TypeYouTube, TypeOpenAI, TypeAnthropic, TypeX}

// Article is the canonical ingestion unit produced by a scraper run.
type Article struct {
	Title       string      `json:"title"`        // Entry title
	Description string      `json:"description"`  // Free text, may contain HTML
	URL         string      `json:"url"`          // Entry link
	GUID        string      `json:"guid"`         // Stable external identifier, unique per source table
	PublishedAt time.Time   `json:"published_at"` // Publication time, UTC
	Category    string      `json:"category"`     // First feed tag, empty if none
	Author      string      `json:"author"`       // Account handle, social posts only
	Source      ArticleType `json:"source"`       // Which source table this belongs to
}

// Digest is a generated title+summary derived from exactly one source article.
type Digest struct {
	ID          string      `json:"id"`
	ArticleType ArticleType `json:"article_type"` // Discriminated FK, table half
	ArticleID   string      `json:"article_id"`   // Discriminated FK, row half (source-table GUID)
	Title       string      `json:"title"`
	Summary     string      `json:"summary"` // 1-3 sentences
	URL         string      `json:"url"`
	PublishedAt time.Time   `json:"published_at"`
	CreatedAt   time.Time   `json:"created_at"`
	SentAt      *time.Time  `json:"sent_at,omitempty"` // Set once included in a sent email
}

// PendingArticle is the read model for enrichment: a source row that does not
// yet have a digest, flattened across the four source tables.
type PendingArticle struct {
	Type        ArticleType `json:"type"`
	ID          string      `json:"id"` // GUID in its source table
	Title       string      `json:"title"`
	Content     string      `json:"content"` // Description or extracted markdown body
	URL         string      `json:"url"`
	PublishedAt time.Time   `json:"published_at"`
}

// RankedArticle is the ephemeral output of a curation run. It is never
// persisted.
type RankedArticle struct {
	DigestID       string  `json:"digest_id"`
	Rank           int     `json:"rank"`            // 1-based, dense within a run
	RelevanceScore float64 `json:"relevance_score"` // 0-10
	Reasoning      string  `json:"reasoning"`
}

// RankedArticleDetail joins a RankedArticle with its digest fields for
// rendering.
type RankedArticleDetail struct {
	DigestID       string      `json:"digest_id"`
	Rank           int         `json:"rank"`
	RelevanceScore float64     `json:"relevance_score"`
	Reasoning      string      `json:"reasoning,omitempty"`
	Title          string      `json:"title"`
	Summary        string      `json:"summary"`
	URL            string      `json:"url"`
	ArticleType    ArticleType `json:"article_type"`
}

// EmailIntroduction is the generated opener of a digest email.
type EmailIntroduction struct {
	Greeting     string `json:"greeting"`     // Personalized greeting with the user's name and date
	Introduction string `json:"introduction"` // 2-3 sentence overview of the ranked articles
}

// EmailDigestResponse is the fully composed digest email document.
type EmailDigestResponse struct {
	Introduction EmailIntroduction     `json:"introduction"`
	Articles     []RankedArticleDetail `json:"articles"`     // Ascending by Rank, truncated to TopN
	TotalRanked  int                   `json:"total_ranked"` // Candidates before truncation
	TopN         int                   `json:"top_n"`
}

// BatchResult summarizes a worker run. Per-item failures are counted here
// instead of aborting the batch.
type BatchResult struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// UserProfile describes who the digest is curated for.
type UserProfile struct {
	Name       string `json:"name"`
	Background string `json:"background"` // Interest statement fed to the curation prompt
}
