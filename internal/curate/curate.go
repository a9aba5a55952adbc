// Package curate ranks recent digests against a user profile with a single
// generation-service call.
package curate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aibrief/internal/core"
	"aibrief/internal/llm"
	"aibrief/internal/retry"
)

const rankPromptTemplate = `You are an expert AI news curator. Rank the following digests by relevance to this reader.

Reader: %s
Background: %s

Rank up to the %d most relevant digests. For every digest you rank, judge how directly it serves the reader's stated interests.

Digests:
%s

Respond with valid JSON only: an array of objects in this exact format, ordered by rank (1 = most relevant):
[
  {"digest_id": "...", "rank": 1, "relevance_score": 8.5, "reasoning": "..."}
]
Ranks must be consecutive integers starting at 1. relevance_score is between 0 and 10.`

// Repository is the slice of the persistence boundary the curator consumes.
type Repository interface {
	RecentDigests(hours int) ([]core.Digest, error)
}

// Config holds the curator's retry knobs.
type Config struct {
	MaxAttempts int           // Attempt ceiling for the ranking call
	BackoffBase time.Duration // Linear backoff base: base, 2*base, ...
	TopN        int           // How many digests the service is asked to rank
	Temperature float32
}

// Curator produces a relevance ranking of digests for one user profile.
type Curator struct {
	gen     llm.Generator
	repo    Repository
	profile core.UserProfile
	cfg     Config
	logger  *slog.Logger
}

// NewCurator wires the curation worker.
func NewCurator(gen llm.Generator, repo Repository, profile core.UserProfile, cfg Config, logger *slog.Logger) *Curator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	return &Curator{gen: gen, repo: repo, profile: profile, cfg: cfg, logger: logger}
}

// RankDigests sends the whole candidate set in one call and returns the
// ranking the service chose. Rate limits are retried with linear backoff;
// exhausting the attempts is a terminal error, never a partial result.
func (c *Curator) RankDigests(ctx context.Context, digests []core.Digest) ([]core.RankedArticle, error) {
	if len(digests) == 0 {
		return nil, nil
	}

	prompt := c.buildPrompt(digests)

	policy := retry.Policy{
		MaxAttempts: c.cfg.MaxAttempts,
		Delay:       retry.Linear(c.cfg.BackoffBase),
		Retryable:   llm.IsRateLimit,
		Logger:      c.logger,
	}

	var raw string
	err := policy.Do(ctx, func() error {
		var genErr error
		raw, genErr = c.gen.Generate(ctx, prompt, c.cfg.Temperature)
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("ranking call failed: %w", err)
	}

	var ranked []core.RankedArticle
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &ranked); err != nil {
		return nil, fmt.Errorf("malformed ranking response: %w", err)
	}

	if err := ValidateRanks(ranked); err != nil {
		return nil, fmt.Errorf("invalid ranking: %w", err)
	}

	return ranked, nil
}

// Report ranks the digests of the lookback window and logs the top of the
// list. A terminal ranking failure degrades to zero ranked instead of an
// error; this caller only reports.
func (c *Curator) Report(ctx context.Context, hours int) (core.BatchResult, []core.RankedArticle, error) {
	digests, err := c.repo.RecentDigests(hours)
	if err != nil {
		return core.BatchResult{}, nil, fmt.Errorf("failed to load recent digests: %w", err)
	}

	result := core.BatchResult{Total: len(digests)}
	if result.Total == 0 {
		c.logger.Warn("no digests found in lookback window", "hours", hours)
		return result, nil, nil
	}

	c.logger.Info("curating digests",
		"total", result.Total, "hours", hours, "profile", c.profile.Name)

	ranked, err := c.RankDigests(ctx, digests)
	if err != nil {
		c.logger.Error("failed to rank digests", "error", err.Error())
		return result, nil, nil
	}

	result.Processed = len(ranked)

	byID := make(map[string]core.Digest, len(digests))
	for _, d := range digests {
		byID[d.ID] = d
	}
	for _, r := range ranked {
		if r.Rank > c.cfg.TopN {
			break
		}
		d := byID[r.DigestID]
		c.logger.Info("ranked digest",
			"rank", r.Rank,
			"score", fmt.Sprintf("%.1f", r.RelevanceScore),
			"title", d.Title,
			"type", string(d.ArticleType),
			"reasoning", r.Reasoning)
	}

	return result, ranked, nil
}

func (c *Curator) buildPrompt(digests []core.Digest) string {
	var b strings.Builder
	for _, d := range digests {
		fmt.Fprintf(&b, "- id: %s\n  type: %s\n  title: %s\n  summary: %s\n",
			d.ID, d.ArticleType, d.Title, d.Summary)
	}
	return fmt.Sprintf(rankPromptTemplate, c.profile.Name, c.profile.Background, c.cfg.TopN, b.String())
}

// ValidateRanks checks that ranks form a dense 1..N sequence. The service's
// ordering is trusted, but a gapped or duplicated sequence is a data-quality
// defect that must not reach the email composer.
func ValidateRanks(ranked []core.RankedArticle) error {
	seen := make(map[int]bool, len(ranked))
	for _, r := range ranked {
		if r.Rank < 1 || r.Rank > len(ranked) {
			return fmt.Errorf("rank %d out of range 1..%d", r.Rank, len(ranked))
		}
		if seen[r.Rank] {
			return fmt.Errorf("duplicate rank %d", r.Rank)
		}
		seen[r.Rank] = true
	}
	return nil
}
