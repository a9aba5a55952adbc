package handlers

import (
	"fmt"

	"aibrief/internal/config"
	"aibrief/internal/curate"
	"aibrief/internal/llm"
	"aibrief/internal/logger"
	"aibrief/internal/store"

	"github.com/spf13/cobra"
)

// NewCurateCmd creates the curate command: rank recent digests against the
// configured profile and print a report. A terminal ranking failure degrades
// to zero ranked; this command only reports.
func NewCurateCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Print a relevance-ranked curation report",
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

			gen, err := llm.NewClient(cfg.AI.Gemini.Model)
			if err != nil {
				return err
			}

			curator := curate.NewCurator(gen, st, cfg.Profile.UserProfile(), curate.Config{
				MaxAttempts: cfg.Workers.MaxAttempts,
				BackoffBase: cfg.Workers.CurateBackoffDuration(),
				TopN:        cfg.Workers.TopN,
				Temperature: cfg.AI.Gemini.Temperature,
			}, log)

			result, ranked, err := curator.Report(cmd.Context(), hours)
			if err != nil {
				return err
			}

			fmt.Printf("Total digests: %d, Ranked: %d\n", result.Total, len(ranked))
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "lookback window in hours (default from config)")

	return cmd
}
