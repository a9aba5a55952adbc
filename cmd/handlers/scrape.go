package handlers

import (
	"fmt"

	"aibrief/internal/config"
	"aibrief/internal/core"
	"aibrief/internal/logger"
	"aibrief/internal/scrape"
	"aibrief/internal/store"

	"github.com/spf13/cobra"
)

// NewScrapeCmd creates the scrape command: fetch every configured feed and
// persist the new articles.
func NewScrapeCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch feeds and persist new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			log := logger.Get()

			if hours <= 0 {
				hours = cfg.Feeds.LookbackHours
			}

			st, err := store.NewStore(cfg.App.DataDir)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			fetcher := scrape.NewFetcher(cfg.Feeds.FeedTimeout(), cfg.Feeds.UserAgent, log)
			scrapers := []scrape.Scraper{
				scrape.NewYouTubeScraper(fetcher, cfg.Feeds.YouTubeChannels),
				scrape.NewFeedScraper(fetcher, core.TypeOpenAI, cfg.Feeds.OpenAIFeeds),
				scrape.NewFeedScraper(fetcher, core.TypeAnthropic, cfg.Feeds.AnthropicFeeds),
				scrape.NewXScraper(fetcher, cfg.Feeds.XAccounts),
			}

			ctx := cmd.Context()
			totalFetched, totalInserted := 0, 0
			for _, s := range scrapers {
				articles, err := s.Fetch(ctx, hours)
				if err != nil {
					return fmt.Errorf("scrape failed: %w", err)
				}
				if len(articles) == 0 {
					continue
				}

				inserted, err := st.BulkInsertArticles(articles)
				if err != nil {
					return fmt.Errorf("failed to persist articles: %w", err)
				}

				log.Info("scraped source",
					"source", string(articles[0].Source),
					"fetched", len(articles), "inserted", inserted)
				totalFetched += len(articles)
				totalInserted += inserted
			}

			fmt.Printf("Fetched %d articles, %d new\n", totalFetched, totalInserted)
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "lookback window in hours (default from config)")

	return cmd
}
