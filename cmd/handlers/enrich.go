package handlers

import (
	"fmt"
	"strconv"

	"aibrief/internal/config"
	"aibrief/internal/digest"
	"aibrief/internal/llm"
	"aibrief/internal/logger"
	"aibrief/internal/store"

	"github.com/spf13/cobra"
)

// NewEnrichCmd creates the enrich command: generate a digest for every
// article that does not have one yet. The optional positional limit caps how
// many articles one run touches, which matters under strict service quotas.
func NewEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich [limit]",
		Short: "Generate digests for articles lacking one",
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
			if limit == 0 {
				log.Warn("no limit specified; free-tier API keys may hit rate limits")
			}

			st, err := store.NewStore(cfg.App.DataDir)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			gen, err := llm.NewClient(cfg.AI.Gemini.Model)
			if err != nil {
				return err
			}

			worker := digest.NewWorker(gen, st, digest.Config{
				RequestDelay:    cfg.Workers.RequestDelayDuration(),
				RateLimitWait:   cfg.Workers.RateLimitWaitDuration(),
				MaxAttempts:     cfg.Workers.MaxAttempts,
				ContentMaxChars: cfg.Workers.ContentMaxChars,
				Temperature:     cfg.AI.Gemini.Temperature,
			}, log)

			result, err := worker.Run(cmd.Context(), limit)
			if err != nil {
				return err
			}

			fmt.Printf("Total: %d, Processed: %d, Failed: %d\n",
				result.Total, result.Processed, result.Failed)
			return nil
		},
	}
}
