// Package digest enriches ingested articles with generated title+summary
// digests, one generation-service call per article.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"aibrief/internal/core"
	"aibrief/internal/llm"
	"aibrief/internal/retry"
)

const systemPrompt = `You are an expert AI news analyst specializing in summarizing technical articles, research papers, video content, and social media posts about artificial intelligence.

Your role is to create concise, informative digests that help readers quickly understand the key points and significance of AI-related content.

Guidelines:
- Create a compelling title (5-10 words) that captures the essence of the content
- Write a 2-3 sentence summary that highlights the main points and why they matter
- Focus on actionable insights and implications
- Use clear, accessible language while maintaining technical accuracy
- Avoid marketing fluff - focus on substance
- For social media posts, extract the key information and context

Always respond with valid JSON in this exact format:
{
  "title": "Your title here",
  "summary": "Your summary here"
}`

// Output is the parsed generation result for one article.
type Output struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Repository is the slice of the persistence boundary the worker consumes.
type Repository interface {
	ArticlesWithoutDigest(limit int) ([]core.PendingArticle, error)
	CreateDigest(d core.Digest) error
}

// Config holds the worker's pacing and retry knobs.
type Config struct {
	RequestDelay    time.Duration // Pause between successive service calls on the normal path
	RateLimitWait   time.Duration // Fixed wait before retrying a rate-limited call
	MaxAttempts     int           // Attempt ceiling per article for rate-limited calls
	ContentMaxChars int           // Character budget for the content sent per prompt
	Temperature     float32
}

// Worker turns articles without digests into persisted digests. Selection is
// "articles without digest", so re-running after a partial batch resumes
// where the previous run stopped.
type Worker struct {
	gen    llm.Generator
	repo   Repository
	cfg    Config
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewWorker wires the enrichment worker.
func NewWorker(gen llm.Generator, repo Repository, cfg Config, logger *slog.Logger) *Worker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.ContentMaxChars <= 0 {
		cfg.ContentMaxChars = 8000
	}
	return &Worker{gen: gen, repo: repo, cfg: cfg, logger: logger, sleep: time.Sleep}
}

// Run processes up to limit pending articles (0 means all). One article's
// failure never aborts the batch; the result counts it instead.
func (w *Worker) Run(ctx context.Context, limit int) (core.BatchResult, error) {
	articles, err := w.repo.ArticlesWithoutDigest(limit)
	if err != nil {
		return core.BatchResult{}, fmt.Errorf("failed to select pending articles: %w", err)
	}

	result := core.BatchResult{Total: len(articles)}
	w.logger.Info("starting digest processing", "total", result.Total)

	policy := retry.Policy{
		MaxAttempts: w.cfg.MaxAttempts,
		Delay:       retry.Fixed(w.cfg.RateLimitWait),
		Retryable:   llm.IsRateLimit,
		Logger:      w.logger,
	}

	for idx, article := range articles {
		w.logger.Info("processing article",
			"index", idx+1, "total", result.Total,
			"type", string(article.Type), "id", article.ID)

		if err := w.enrichOne(ctx, policy, article); err != nil {
			result.Failed++
			w.logger.Error("failed to create digest",
				"type", string(article.Type), "id", article.ID, "error", err.Error())
		} else {
			result.Processed++
		}

		// Pace every successive call, success or not, to stay under the
		// service's request-rate ceiling.
		if idx < result.Total-1 {
			w.sleep(w.cfg.RequestDelay)
		}
	}

	w.logger.Info("digest processing complete",
		"total", result.Total, "processed", result.Processed, "failed", result.Failed)

	return result, nil
}

func (w *Worker) enrichOne(ctx context.Context, policy retry.Policy, article core.PendingArticle) error {
	prompt := fmt.Sprintf("%s\n\nCreate a digest for this %s:\nTitle: %s\nContent: %s",
		systemPrompt, article.Type, article.Title, truncate(article.Content, w.cfg.ContentMaxChars))

	var raw string
	err := policy.Do(ctx, func() error {
		var genErr error
		raw, genErr = w.gen.Generate(ctx, prompt, w.cfg.Temperature)
		return genErr
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	// A malformed response is permanent for this item; only rate limits are
	// retried, and that already happened above.
	var out Output
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &out); err != nil {
		return fmt.Errorf("malformed digest response: %w", err)
	}
	if out.Title == "" || out.Summary == "" {
		return fmt.Errorf("digest response missing title or summary")
	}

	return w.repo.CreateDigest(core.Digest{
		ArticleType: article.Type,
		ArticleID:   article.ID,
		Title:       out.Title,
		Summary:     out.Summary,
		URL:         article.URL,
		PublishedAt: article.PublishedAt,
	})
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
