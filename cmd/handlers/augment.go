package handlers

import (
	"fmt"
	"strconv"

	"aibrief/internal/config"
	"aibrief/internal/extract"
	"aibrief/internal/logger"
	"aibrief/internal/store"

	"github.com/spf13/cobra"
)

// NewAugmentCmd creates the augment command: fetch the page behind each X
// post lacking a body and store its markdown rendition.
func NewAugmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "augment [limit]",
		Short: "Extract markdown bodies for X posts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			log := logger.Get()

			limit := 0
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("limit must be a positive integer, got %q", args[0])
				}
				limit = n
			}

			st, err := store.NewStore(cfg.App.DataDir)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			posts, err := st.XPostsWithoutMarkdown(limit)
			if err != nil {
				return fmt.Errorf("failed to select posts: %w", err)
			}
			if len(posts) == 0 {
				fmt.Println("No X posts waiting for extraction")
				return nil
			}

			extractor := extract.NewExtractor(cfg.Feeds.FeedTimeout(), cfg.Feeds.UserAgent, log)

			processed, failed := 0, 0
			for idx, post := range posts {
				log.Info("extracting post body",
					"index", idx+1, "total", len(posts), "guid", post.GUID)

				md := extractor.Markdown(cmd.Context(), post.URL)
				if md == "" {
					failed++
					log.Warn("no content extracted", "guid", post.GUID, "url", post.URL)
					continue
				}

				if err := st.UpdateXPostMarkdown(post.GUID, md); err != nil {
					failed++
					log.Error("failed to store extracted body", "guid", post.GUID, "error", err.Error())
					continue
				}
				processed++
			}

			fmt.Printf("Total: %d, Processed: %d, Failed: %d\n", len(posts), processed, failed)
			return nil
		},
	}
}
