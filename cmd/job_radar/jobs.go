package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/observability"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored jobs with their scores",
	RunE:  runJobs,
}

var jobsActionCmd = &cobra.Command{
	Use:   "mark <job-id> <saved|applied|hidden|none>",
	Short: "Set or clear the action on a job",
	Args:  cobra.ExactArgs(2),
	RunE:  runJobsMark,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job with its score breakdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

type jobsFlags struct {
	source    string
	minScore  int
	category  string
	location  string
	seniority string
	search    string
	action    string
	sortBy    string
	limit     int
	offset    int
}

var jobsOpts jobsFlags

func init() {
	f := jobsCmd.Flags()
	f.StringVar(&jobsOpts.source, "source", "", "Only jobs from this source")
	f.IntVar(&jobsOpts.minScore, "min-score", -1, "Only scored jobs with at least this overall score")
	f.StringVar(&jobsOpts.category, "category", "", "Category (case-insensitive)")
	f.StringVar(&jobsOpts.location, "location", "", "Location substring")
	f.StringVar(&jobsOpts.seniority, "seniority", "", "Seniority (case-insensitive)")
	f.StringVarP(&jobsOpts.search, "search", "q", "", "Search title, company and description")
	f.StringVar(&jobsOpts.action, "action", "", "saved, applied, hidden or none")
	f.StringVar(&jobsOpts.sortBy, "sort", db.SortByScore, "score, date or company")
	f.IntVarP(&jobsOpts.limit, "limit", "n", db.DefaultListLimit, "Page size (max 100)")
	f.IntVar(&jobsOpts.offset, "offset", 0, "Rows to skip")

	jobsCmd.AddCommand(jobsActionCmd, jobsShowCmd)
	rootCmd.AddCommand(jobsCmd)
}

// filter converts the flags to a store filter.
func (f jobsFlags) filter() (db.JobFilter, error) {
	switch f.sortBy {
	case db.SortByScore, db.SortByDate, db.SortByCompany:
	default:
		return db.JobFilter{}, fmt.Errorf("invalid --sort %q: want score, date or company", f.sortBy)
	}
	if f.action != "" && f.action != db.ActionNone && !types.IsValidAction(f.action) {
		return db.JobFilter{}, fmt.Errorf("invalid --action %q", f.action)
	}

	filter := db.JobFilter{
		Source:    f.source,
		Category:  f.category,
		Location:  f.location,
		Seniority: f.seniority,
		Search:    f.search,
		Action:    f.action,
		SortBy:    f.sortBy,
		Limit:     f.limit,
		Offset:    f.offset,
	}
	if f.minScore >= 0 {
		minScore := f.minScore
		filter.MinScore = &minScore
	}
	return filter, nil
}

func runJobs(cmd *cobra.Command, _ []string) error {
	filter, err := jobsOpts.filter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	jobs, total, err := database.ListJobs(ctx, filter)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintJobs(jobs, total)
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	job, err := database.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s: %w", jobID, db.ErrJobNotFound)
	}
	observability.NewPrinter(os.Stdout).PrintJob(*job)
	return nil
}

func runJobsMark(cmd *cobra.Command, args []string) error {
	jobID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", args[0], err)
	}
	action := args[1]
	if action != db.ActionNone && !types.IsValidAction(action) {
		return fmt.Errorf("invalid action %q", action)
	}

	ctx := cmd.Context()
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if action == db.ActionNone {
		err = database.ClearJobAction(ctx, jobID)
	} else {
		err = database.SetJobAction(ctx, jobID, action)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Job %s marked %s\n", jobID, action)
	return nil
}
