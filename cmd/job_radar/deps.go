package main

import (
	"context"
	"fmt"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/fetch"
	"github.com/jonathan/job-radar/internal/llm"
	"github.com/jonathan/job-radar/internal/retry"
	"github.com/jonathan/job-radar/internal/scoring"
	"github.com/jonathan/job-radar/internal/scrape"
	"github.com/jonathan/job-radar/internal/sources"
	"go.uber.org/zap"
)

// openDatabase connects to the configured database.
func openDatabase(ctx context.Context, c *config.Config) (*db.DB, error) {
	if err := c.RequireDatabase(); err != nil {
		return nil, err
	}
	database, err := db.Connect(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

// sourceDeps builds the transports shared by every adapter.
func sourceDeps(c *config.Config) sources.Deps {
	httpOpts := fetch.DefaultOptions()
	httpOpts.Timeout = c.HTTP.Timeout
	if c.HTTP.UserAgent != "" {
		httpOpts.UserAgent = c.HTTP.UserAgent
	}

	return sources.Deps{
		HTTP:     fetch.NewClient(httpOpts),
		Launcher: &fetch.ChromeLauncher{ExecPath: c.Browser.ExecPath},
		Config:   c,
		Logger:   zap.S().Named("sources"),
	}
}

func newOrchestrator(c *config.Config, sink scrape.Sink, onProgress scrape.ProgressCallback) *scrape.Orchestrator {
	return scrape.New(scrape.Options{
		Sources:    c.Sources,
		Sink:       sink,
		Deps:       sourceDeps(c),
		OnProgress: onProgress,
	})
}

// llmConfig applies the configured model override to the default models.
func llmConfig(c *config.Config) (*llm.Config, llm.ModelTier, error) {
	tier, err := llm.ParseTier(c.Judge.Tier)
	if err != nil {
		return nil, "", err
	}
	llmCfg := llm.DefaultConfig()
	if c.Judge.Model != "" {
		llmCfg = llmCfg.WithModel(tier, c.Judge.Model)
	}
	return llmCfg, tier, nil
}

func newScoringPipeline(c *config.Config, store scoring.Store) (*scoring.Pipeline, error) {
	llmCfg, tier, err := llmConfig(c)
	if err != nil {
		return nil, err
	}
	profile, err := scoring.LoadProfile(c.Judge.ProfilePath)
	if err != nil {
		return nil, err
	}
	return scoring.NewPipeline(scoring.Options{
		Store:     store,
		APIKey:    c.Judge.APIKey,
		LLMConfig: llmCfg,
		Tier:      tier,
		Profile:   profile,
		Policy:    retry.Policy{Attempts: c.Judge.Attempts, BaseDelay: c.Judge.BaseDelay},
	}), nil
}
