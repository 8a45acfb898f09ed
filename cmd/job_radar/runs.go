package main

import (
	"os"

	"github.com/jonathan/job-radar/internal/observability"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent scrape runs",
	RunE:  runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListScrapeRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintScrapeRuns(runs)
	return nil
}
