package main

import (
	"os"

	"github.com/jonathan/job-radar/internal/observability"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score unscored jobs with the LLM judge",
	Long:  "Reads up to --limit jobs without a score, asks the judge for a fit assessment of each, and stores the scores. Requires GEMINI_API_KEY.",
	RunE:  runScore,
}

var scoreLimit int

func init() {
	scoreCmd.Flags().IntVarP(&scoreLimit, "limit", "n", 0, "Maximum jobs to score (default JOB_RADAR_SCORE_LIMIT)")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	limit := scoreLimit
	if limit <= 0 {
		limit = cfg.Judge.BatchLimit
	}

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	pipeline, err := newScoringPipeline(cfg, database)
	if err != nil {
		return err
	}

	report, err := pipeline.ScoreBatch(ctx, limit)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintScoreSummary(report.Scored, report.Attempted, report.Model)
	return nil
}
