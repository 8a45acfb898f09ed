// Package main provides the job_radar CLI: scrape job boards, score the
// results and browse them.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "job_radar",
	Short: "Job board aggregator with LLM fit scoring",
	Long: "job_radar scrapes web3 job boards, normalizes and deduplicates the listings into " +
		"PostgreSQL, and scores each new listing against a candidate profile with an LLM judge.",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if _, err := observability.InitLog(cfg.LogLevel); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
