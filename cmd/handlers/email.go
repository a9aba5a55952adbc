package handlers

import (
	"fmt"
	"time"

	"aibrief/internal/config"
	"aibrief/internal/curate"
	"aibrief/internal/email"
	"aibrief/internal/llm"
	"aibrief/internal/logger"
	"aibrief/internal/store"

	"github.com/spf13/cobra"
)

// NewEmailCmd creates the email command: rank recent digests, compose the
// personalized email, and send it. Unlike curate, this path cannot proceed
// without a ranking, so a terminal ranking failure is a hard error.
func NewEmailCmd() *cobra.Command {
	var (
		hours  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Compose and send the digest email",
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

			digests, err := st.RecentDigests(hours)
			if err != nil {
				return fmt.Errorf("failed to load recent digests: %w", err)
			}
			if len(digests) == 0 {
				return fmt.Errorf("no digests available from the last %d hours", hours)
			}

			gen, err := llm.NewClient(cfg.AI.Gemini.Model)
			if err != nil {
				return err
			}

			profile := cfg.Profile.UserProfile()
			curator := curate.NewCurator(gen, st, profile, curate.Config{
				MaxAttempts: cfg.Workers.MaxAttempts,
				BackoffBase: cfg.Workers.CurateBackoffDuration(),
				TopN:        cfg.Workers.TopN,
				Temperature: cfg.AI.Gemini.Temperature,
			}, log)

			ranked, err := curator.RankDigests(cmd.Context(), digests)
			if err != nil {
				return fmt.Errorf("cannot compose email without a ranking: %w", err)
			}
			if len(ranked) == 0 {
				return fmt.Errorf("ranking returned no articles")
			}

			composer := email.NewComposer(gen, profile, email.Config{
				MaxAttempts: cfg.Workers.MaxAttempts,
				BackoffBase: cfg.Workers.CurateBackoffDuration(),
				Temperature: cfg.AI.Gemini.Temperature,
			}, log)

			details := email.BuildDetails(ranked, digests)
			response, err := composer.Compose(cmd.Context(), details, cfg.Workers.TopN)
			if err != nil {
				return fmt.Errorf("failed to compose email: %w", err)
			}

			bodyText := email.ToMarkdown(response)
			bodyHTML := email.RenderHTML(response)
			subject := email.Subject(response)

			if dryRun {
				fmt.Println(bodyText)
				return nil
			}

			sender := &email.SMTPSender{
				Host:     cfg.Email.SMTP.Host,
				Port:     cfg.Email.SMTP.Port,
				Username: cfg.Email.SMTP.Username,
				Password: cfg.Email.SMTP.Password,
				From:     cfg.Email.From,
				FromName: cfg.Email.FromName,
				To:       cfg.Email.To,
			}
			if err := sender.Send(subject, bodyText, bodyHTML); err != nil {
				return err
			}

			sentIDs := make([]string, 0, len(response.Articles))
			for _, a := range response.Articles {
				sentIDs = append(sentIDs, a.DigestID)
			}
			if err := st.MarkDigestsSent(sentIDs, time.Now()); err != nil {
				log.Error("email sent but marking digests failed", "error", err.Error())
			}

			fmt.Printf("Sent %q with %d articles (of %d ranked)\n",
				subject, len(response.Articles), response.TotalRanked)
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "lookback window in hours (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the email body instead of sending")

	return cmd
}
