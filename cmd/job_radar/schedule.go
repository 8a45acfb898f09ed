package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/jonathan/job-radar/internal/scheduler"
	"github.com/jonathan/job-radar/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scrape and score cycles on a cron schedule",
	Long: "Runs scrape-then-score cycles on JOB_RADAR_CRON and serves /health and /metrics on " +
		"JOB_RADAR_OPS_ADDRESS until interrupted. With REDIS_URL set, a Redis lock keeps " +
		"several instances from running overlapping cycles.",
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	orchestrator := newOrchestrator(cfg, database, nil)
	if err := orchestrator.Validate(); err != nil {
		return err
	}
	pipeline, err := newScoringPipeline(cfg, database)
	if err != nil {
		return err
	}

	var locker scheduler.Locker
	if cfg.RedisURL != "" {
		client, err := scheduler.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		locker = scheduler.NewRedisLocker(client)
	} else {
		zap.S().Named("scheduler").Info("REDIS_URL not set, cycle lock is process-local")
	}

	sched := scheduler.New(scheduler.Options{
		Spec:       cfg.Schedule.Cron,
		Scraper:    orchestrator,
		Scorer:     pipeline,
		ScoreLimit: cfg.Schedule.ScoreLimit,
		Locker:     locker,
		LockKey:    cfg.Schedule.LockKey,
		LockTTL:    cfg.Schedule.LockTTL,
		RunOnStart: cfg.Schedule.RunOnStart,
	})
	ops := server.New(cfg.Schedule.OpsAddress, database)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return ops.Run(gctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
