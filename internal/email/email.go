// Package email composes the personalized digest email from ranked articles.
package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"aibrief/internal/core"
	"aibrief/internal/llm"
	"aibrief/internal/retry"
)

const introPromptTemplate = `You are an expert email writer specializing in creating engaging, personalized AI news digests.

Write a warm, professional introduction for a daily AI news digest email that:
- Greets the user by name
- Includes the current date
- Provides a brief, engaging overview of what's coming in the ranked articles below
- The articles may include blog posts, research papers, YouTube videos, and X.com posts
- Highlights the most interesting or important themes

Keep the introduction to 2-3 sentences, friendly and professional.

Always respond with valid JSON in this exact format:
{
  "greeting": "Hey [Name], here is your daily digest of AI news for [Date].",
  "introduction": "Your 2-3 sentence introduction here"
}

Create an email introduction for %s for %s.

Top ranked articles:
%s`

const dateLayout = "January 2, 2006"

// Config holds the composer's retry knobs, matching the curation discipline.
type Config struct {
	MaxAttempts int
	BackoffBase time.Duration
	Temperature float32
}

// Composer builds EmailDigestResponse documents.
type Composer struct {
	gen     llm.Generator
	profile core.UserProfile
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewComposer wires the email composer.
func NewComposer(gen llm.Generator, profile core.UserProfile, cfg Config, logger *slog.Logger) *Composer {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Composer{gen: gen, profile: profile, cfg: cfg, logger: logger, now: time.Now}
}

// canonicalGreeting is the salutation every digest email must open with.
func (c *Composer) canonicalGreeting() string {
	return fmt.Sprintf("Hey %s, here is your daily digest of AI news for %s.",
		c.profile.Name, c.now().Format(dateLayout))
}

// GenerateIntroduction asks the generation service for a personalized opener.
// With no ranked articles it returns a static fallback without calling the
// service. A greeting that does not open with the expected salutation is
// overwritten with the canonical form.
func (c *Composer) GenerateIntroduction(ctx context.Context, articles []core.RankedArticleDetail) (core.EmailIntroduction, error) {
	if len(articles) == 0 {
		return core.EmailIntroduction{
			Greeting:     c.canonicalGreeting(),
			Introduction: "No articles were ranked today.",
		}, nil
	}

	var lines strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&lines, "%d. %s (Score: %.1f/10)\n", i+1, a.Title, a.RelevanceScore)
	}

	prompt := fmt.Sprintf(introPromptTemplate,
		c.profile.Name, c.now().Format(dateLayout), lines.String())

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
		return core.EmailIntroduction{}, fmt.Errorf("introduction call failed: %w", err)
	}

	var intro core.EmailIntroduction
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &intro); err != nil {
		return core.EmailIntroduction{}, fmt.Errorf("malformed introduction response: %w", err)
	}

	if !strings.HasPrefix(intro.Greeting, "Hey "+c.profile.Name) {
		intro.Greeting = c.canonicalGreeting()
	}

	return intro, nil
}

// Compose assembles the final email document: articles sorted by ascending
// rank, truncated to topN, with totalRanked recording the candidate count
// before truncation.
func (c *Composer) Compose(ctx context.Context, articles []core.RankedArticleDetail, topN int) (core.EmailDigestResponse, error) {
	sorted := make([]core.RankedArticleDetail, len(articles))
	copy(sorted, articles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	totalRanked := len(sorted)
	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}

	intro, err := c.GenerateIntroduction(ctx, sorted)
	if err != nil {
		return core.EmailDigestResponse{}, err
	}

	return core.EmailDigestResponse{
		Introduction: intro,
		Articles:     sorted,
		TotalRanked:  totalRanked,
		TopN:         topN,
	}, nil
}

// BuildDetails joins ranking output with the digest rows it refers to.
// Rankings pointing at unknown digest IDs are dropped.
func BuildDetails(ranked []core.RankedArticle, digests []core.Digest) []core.RankedArticleDetail {
	byID := make(map[string]core.Digest, len(digests))
	for _, d := range digests {
		byID[d.ID] = d
	}

	details := make([]core.RankedArticleDetail, 0, len(ranked))
	for _, r := range ranked {
		d, ok := byID[r.DigestID]
		if !ok {
			continue
		}
		details = append(details, core.RankedArticleDetail{
			DigestID:       r.DigestID,
			Rank:           r.Rank,
			RelevanceScore: r.RelevanceScore,
			Reasoning:      r.Reasoning,
			Title:          d.Title,
			Summary:        d.Summary,
			URL:            d.URL,
			ArticleType:    d.ArticleType,
		})
	}

	return details
}

// ToMarkdown renders the composed email as plain markdown: greeting, intro,
// then one section per article separated by rule lines.
func ToMarkdown(r core.EmailDigestResponse) string {
	var b strings.Builder

	b.WriteString(r.Introduction.Greeting + "\n\n")
	b.WriteString(r.Introduction.Introduction + "\n\n")
	b.WriteString("---\n\n")

	for _, a := range r.Articles {
		fmt.Fprintf(&b, "## %s\n\n", a.Title)
		b.WriteString(a.Summary + "\n\n")
		fmt.Fprintf(&b, "[Read more →](%s)\n\n", a.URL)
		b.WriteString("---\n\n")
	}

	return b.String()
}

// Subject derives the email subject from the greeting's date.
func Subject(r core.EmailDigestResponse) string {
	greeting := r.Introduction.Greeting
	if idx := strings.LastIndex(greeting, "for "); idx >= 0 {
		date := strings.TrimSuffix(greeting[idx+len("for "):], ".")
		return "Daily AI News Digest - " + date
	}
	return "Daily AI News Digest"
}
