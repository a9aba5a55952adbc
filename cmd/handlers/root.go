// Package handlers wires the CLI surface: one thin cobra command per
// pipeline stage.
package handlers

import (
	"fmt"
	"os"

	"aibrief/internal/config"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all pipeline subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aibrief",
		Short: "Personalized AI news digests from feeds to inbox",
		Long: `aibrief - AI News Digest Pipeline

Aggregates AI news (YouTube channels, blog feeds, X.com posts), summarizes
each item into a digest, ranks digests against your profile, and assembles
a personalized email.

Stages (run in order, typically from a scheduler):
  aibrief scrape           Fetch feeds and persist new articles
  aibrief augment [limit]  Extract markdown bodies for X posts
  aibrief enrich [limit]   Generate digests for articles lacking one
  aibrief curate           Print a relevance-ranked curation report
  aibrief email            Compose and send the digest email`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .aibrief.yaml)")

	rootCmd.AddCommand(NewScrapeCmd())
	rootCmd.AddCommand(NewAugmentCmd())
	rootCmd.AddCommand(NewEnrichCmd())
	rootCmd.AddCommand(NewCurateCmd())
	rootCmd.AddCommand(NewEmailCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
