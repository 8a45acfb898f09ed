package main

import (
	"fmt"
	"os"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/observability"
	"github.com/jonathan/job-radar/internal/scrape"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the configured job boards",
	Long: "Runs every configured source adapter in order and upserts the listings. " +
		"A failing source is recorded as a failed run and does not stop the others.",
	RunE: runScrape,
}

var (
	scrapeSource string
	scrapeDryRun bool
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeSource, "source", "s", "", "Scrape only this source")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "Keep results in memory instead of the database")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var sink scrape.Sink
	if scrapeDryRun {
		sink = db.NewMemoryStore()
	} else {
		database, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		sink = database
	}

	log := zap.S().Named("scrape")
	orchestrator := newOrchestrator(cfg, sink, func(e scrape.ProgressEvent) {
		if e.Err != nil {
			log.Warnw("source finished with error", "source", e.Source, "error", e.Err)
		}
	})
	printer := observability.NewPrinter(os.Stdout)

	if scrapeSource != "" {
		result, err := orchestrator.RunOne(ctx, scrapeSource)
		if err != nil {
			return err
		}
		printer.PrintRunResults(map[string]types.RunResult{scrapeSource: result})
		return nil
	}

	results, err := orchestrator.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	printer.PrintRunResults(results)
	return ctx.Err()
}
