// Package scrape normalizes heterogeneous syndication feeds into canonical
// Article records.
package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"aibrief/internal/core"

	"github.com/mmcdole/gofeed"
)

// Endpoint is a single feed URL with its source identity. Author is attached
// to every entry the endpoint produces, so authorship is known at fetch time
// instead of being reconstructed from URL text later.
type Endpoint struct {
	URL    string
	Author string // Account handle for social feeds, empty otherwise
}

// Scraper is the capability every source-specific scraper implements.
type Scraper interface {
	Fetch(ctx context.Context, hours int) ([]core.Article, error)
}

// Fetcher parses feeds with a bounded timeout and a fixed client identity.
// It holds the generic parse/dedup/time-filter logic shared by all scrapers.
type Fetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

// NewFetcher creates a Fetcher with the given HTTP timeout and User-Agent.
func NewFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *Fetcher {
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		fp.UserAgent = userAgent
	}
	return &Fetcher{parser: fp, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Collect fetches every endpoint independently and returns the entries
// published within the last `hours` hours, deduplicated by guid within this
// invocation. A failing endpoint is logged and skipped; it never aborts the
// others. Cross-run dedup belongs to the persistence layer's uniqueness
// constraint. Output order is not guaranteed.
func (f *Fetcher) Collect(ctx context.Context, source core.ArticleType, endpoints []Endpoint, hours int) []core.Article {
	cutoff := f.now().Add(-time.Duration(hours) * time.Hour)

	var articles []core.Article
	seen := make(map[string]struct{})

	for _, ep := range endpoints {
		feed, err := f.parser.ParseURLWithContext(ep.URL, ctx)
		if err != nil {
			f.logger.Warn("feed fetch failed, skipping endpoint",
				"source", string(source), "url", ep.URL, "error", err.Error())
			continue
		}

		for _, item := range feed.Items {
			published := item.PublishedParsed
			if published == nil {
				published = item.UpdatedParsed
			}
			if published == nil {
				// Cannot satisfy the time filter without a timestamp.
				continue
			}

			ts := published.UTC()
			if ts.Before(cutoff) {
				continue
			}

			guid := item.GUID
			if guid == "" {
				guid = item.Link
			}
			if _, dup := seen[guid]; dup {
				continue
			}
			seen[guid] = struct{}{}

			category := ""
			if len(item.Categories) > 0 {
				category = item.Categories[0]
			}

			articles = append(articles, core.Article{
				Title:       item.Title,
				Description: item.Description,
				URL:         item.Link,
				GUID:        guid,
				PublishedAt: ts,
				Category:    category,
				Author:      ep.Author,
				Source:      source,
			})
		}
	}

	return articles
}

// YouTubeScraper pulls recent uploads from a set of channel feeds.
type YouTubeScraper struct {
	fetcher   *Fetcher
	endpoints []Endpoint
}

// NewYouTubeScraper builds a scraper over YouTube channel IDs.
func NewYouTubeScraper(fetcher *Fetcher, channelIDs []string) *YouTubeScraper {
	endpoints := make([]Endpoint, 0, len(channelIDs))
	for _, id := range channelIDs {
		endpoints = append(endpoints, Endpoint{
			URL: "https://www.youtube.com/feeds/videos.xml?channel_id=" + id,
		})
	}
	return &YouTubeScraper{fetcher: fetcher, endpoints: endpoints}
}

// Fetch returns videos published within the lookback window.
func (s *YouTubeScraper) Fetch(ctx context.Context, hours int) ([]core.Article, error) {
	return s.fetcher.Collect(ctx, core.TypeYouTube, s.endpoints, hours), nil
}

// FeedScraper is a generic RSS/Atom scraper for blog sources.
type FeedScraper struct {
	fetcher   *Fetcher
	source    core.ArticleType
	endpoints []Endpoint
}

// NewFeedScraper builds a scraper over plain feed URLs for the given source.
func NewFeedScraper(fetcher *Fetcher, source core.ArticleType, feedURLs []string) *FeedScraper {
	endpoints := make([]Endpoint, 0, len(feedURLs))
	for _, u := range feedURLs {
		endpoints = append(endpoints, Endpoint{URL: u})
	}
	return &FeedScraper{fetcher: fetcher, source: source, endpoints: endpoints}
}

// Fetch returns articles published within the lookback window.
func (s *FeedScraper) Fetch(ctx context.Context, hours int) ([]core.Article, error) {
	return s.fetcher.Collect(ctx, s.source, s.endpoints, hours), nil
}

// XScraper pulls posts from per-account RSS bridges. Each endpoint carries its
// account handle so every entry gets a certain author.
type XScraper struct {
	fetcher   *Fetcher
	endpoints []Endpoint
}

// NewXScraper builds a scraper over a handle -> feed URL map.
func NewXScraper(fetcher *Fetcher, accounts map[string]string) *XScraper {
	handles := make([]string, 0, len(accounts))
	for handle := range accounts {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	endpoints := make([]Endpoint, 0, len(handles))
	for _, handle := range handles {
		endpoints = append(endpoints, Endpoint{URL: accounts[handle], Author: handle})
	}
	return &XScraper{fetcher: fetcher, endpoints: endpoints}
}

// Fetch returns posts published within the lookback window.
func (s *XScraper) Fetch(ctx context.Context, hours int) ([]core.Article, error) {
	return s.fetcher.Collect(ctx, core.TypeX, s.endpoints, hours), nil
}
