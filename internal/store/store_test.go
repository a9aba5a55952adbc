package store

import (
	"testing"
	"time"

	"aibrief/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleArticle(source core.ArticleType, guid string) core.Article {
	return core.Article{
		Title:       "title " + guid,
		Description: "description " + guid,
		URL:         "https://example.com/" + guid,
		GUID:        guid,
		PublishedAt: time.Now().UTC().Add(-time.Hour),
		Source:      source,
	}
}

func TestBulkInsertArticlesIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	articles := []core.Article{
		sampleArticle(core.TypeYouTube, "yt-1"),
		sampleArticle(core.TypeOpenAI, "oa-1"),
	}

	inserted, err := s.BulkInsertArticles(articles)
	if err != nil {
		t.Fatalf("BulkInsertArticles() returned error: %v", err)
	}
	if inserted != 2 {
		t.Errorf("first insert: got %d new rows, want 2", inserted)
	}

	inserted, err = s.BulkInsertArticles(articles)
	if err != nil {
		t.Fatalf("BulkInsertArticles() second run returned error: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second insert: got %d new rows, want 0", inserted)
	}
}

func TestBulkInsertArticlesRejectsUnknownSource(t *testing.T) {
	s := newTestStore(t)

	_, err := s.BulkInsertArticles([]core.Article{sampleArticle(core.ArticleType("reddit"), "r-1")})
	if err == nil {
		t.Fatal("expected error for unknown article source")
	}
}

func TestArticlesWithoutDigestExcludesDigested(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.BulkInsertArticles([]core.Article{
		sampleArticle(core.TypeYouTube, "yt-1"),
		sampleArticle(core.TypeYouTube, "yt-2"),
	}); err != nil {
		t.Fatalf("BulkInsertArticles() returned error: %v", err)
	}

	if err := s.CreateDigest(core.Digest{
		ArticleType: core.TypeYouTube,
		ArticleID:   "yt-1",
		Title:       "digest title",
		Summary:     "digest summary",
	}); err != nil {
		t.Fatalf("CreateDigest() returned error: %v", err)
	}

	pending, err := s.ArticlesWithoutDigest(0)
	if err != nil {
		t.Fatalf("ArticlesWithoutDigest() returned error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending article, got %d", len(pending))
	}
	if pending[0].ID != "yt-2" || pending[0].Type != core.TypeYouTube {
		t.Errorf("unexpected pending article: %+v", pending[0])
	}
}

func TestArticlesWithoutDigestPrefersExtractedMarkdown(t *testing.T) {
	s := newTestStore(t)

	post := sampleArticle(core.TypeX, "x-1")
	post.Author = "alice"
	if _, err := s.BulkInsertArticles([]core.Article{post}); err != nil {
		t.Fatalf("BulkInsertArticles() returned error: %v", err)
	}

	pending, err := s.ArticlesWithoutDigest(0)
	if err != nil {
		t.Fatalf("ArticlesWithoutDigest() returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].Content != "description x-1" {
		t.Fatalf("expected the feed description before extraction, got %+v", pending)
	}

	if err := s.UpdateXPostMarkdown("x-1", "# extracted body"); err != nil {
		t.Fatalf("UpdateXPostMarkdown() returned error: %v", err)
	}

	pending, err = s.ArticlesWithoutDigest(0)
	if err != nil {
		t.Fatalf("ArticlesWithoutDigest() returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].Content != "# extracted body" {
		t.Errorf("expected the extracted markdown to take precedence, got %+v", pending)
	}
}

func TestArticlesWithoutDigestHonorsLimit(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.BulkInsertArticles([]core.Article{
		sampleArticle(core.TypeOpenAI, "oa-1"),
		sampleArticle(core.TypeOpenAI, "oa-2"),
		sampleArticle(core.TypeOpenAI, "oa-3"),
	}); err != nil {
		t.Fatalf("BulkInsertArticles() returned error: %v", err)
	}

	pending, err := s.ArticlesWithoutDigest(2)
	if err != nil {
		t.Fatalf("ArticlesWithoutDigest() returned error: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending articles with limit 2, got %d", len(pending))
	}
}

func TestCreateDigestOnePerArticle(t *testing.T) {
	s := newTestStore(t)

	first := core.Digest{ArticleType: core.TypeAnthropic, ArticleID: "an-1", Title: "first", Summary: "s"}
	second := core.Digest{ArticleType: core.TypeAnthropic, ArticleID: "an-1", Title: "second", Summary: "s"}

	if err := s.CreateDigest(first); err != nil {
		t.Fatalf("CreateDigest() returned error: %v", err)
	}
	if err := s.CreateDigest(second); err != nil {
		t.Fatalf("CreateDigest() duplicate returned error: %v", err)
	}

	digests, err := s.RecentDigests(24)
	if err != nil {
		t.Fatalf("RecentDigests() returned error: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected 1 digest per article, got %d", len(digests))
	}
	if digests[0].Title != "first" {
		t.Errorf("expected the first digest to survive, got %q", digests[0].Title)
	}
	if digests[0].ID == "" {
		t.Error("expected a generated digest id")
	}
	if digests[0].SentAt != nil {
		t.Error("fresh digest should not have a sent time")
	}
}

func TestRecentDigestsWindow(t *testing.T) {
	s := newTestStore(t)

	old := core.Digest{
		ArticleType: core.TypeOpenAI, ArticleID: "oa-old",
		Title: "old", Summary: "s",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	fresh := core.Digest{
		ArticleType: core.TypeOpenAI, ArticleID: "oa-fresh",
		Title: "fresh", Summary: "s",
	}
	if err := s.CreateDigest(old); err != nil {
		t.Fatalf("CreateDigest() returned error: %v", err)
	}
	if err := s.CreateDigest(fresh); err != nil {
		t.Fatalf("CreateDigest() returned error: %v", err)
	}

	digests, err := s.RecentDigests(24)
	if err != nil {
		t.Fatalf("RecentDigests() returned error: %v", err)
	}
	if len(digests) != 1 || digests[0].Title != "fresh" {
		t.Errorf("expected only the fresh digest, got %+v", digests)
	}
}

func TestXPostMarkdownLifecycle(t *testing.T) {
	s := newTestStore(t)

	post := sampleArticle(core.TypeX, "x-1")
	post.Author = "bob"
	if _, err := s.BulkInsertArticles([]core.Article{post}); err != nil {
		t.Fatalf("BulkInsertArticles() returned error: %v", err)
	}

	posts, err := s.XPostsWithoutMarkdown(0)
	if err != nil {
		t.Fatalf("XPostsWithoutMarkdown() returned error: %v", err)
	}
	if len(posts) != 1 || posts[0].GUID != "x-1" || posts[0].Author != "bob" {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	if err := s.UpdateXPostMarkdown("x-1", "# body"); err != nil {
		t.Fatalf("UpdateXPostMarkdown() returned error: %v", err)
	}

	posts, err = s.XPostsWithoutMarkdown(0)
	if err != nil {
		t.Fatalf("XPostsWithoutMarkdown() returned error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no posts after extraction, got %d", len(posts))
	}
}

func TestUpdateXPostMarkdownUnknownGUID(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdateXPostMarkdown("missing", "# body"); err == nil {
		t.Fatal("expected error for unknown guid")
	}
}

func TestMarkDigestsSent(t *testing.T) {
	s := newTestStore(t)

	d := core.Digest{ArticleType: core.TypeX, ArticleID: "x-1", Title: "t", Summary: "s"}
	if err := s.CreateDigest(d); err != nil {
		t.Fatalf("CreateDigest() returned error: %v", err)
	}

	digests, err := s.RecentDigests(24)
	if err != nil {
		t.Fatalf("RecentDigests() returned error: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(digests))
	}

	sentAt := time.Now().UTC()
	if err := s.MarkDigestsSent([]string{digests[0].ID}, sentAt); err != nil {
		t.Fatalf("MarkDigestsSent() returned error: %v", err)
	}

	digests, err = s.RecentDigests(24)
	if err != nil {
		t.Fatalf("RecentDigests() returned error: %v", err)
	}
	if digests[0].SentAt == nil {
		t.Fatal("expected sent time to be recorded")
	}
}
