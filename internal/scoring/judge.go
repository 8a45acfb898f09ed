// Package scoring rates stored jobs against a candidate profile with an LLM
// judge and persists the results.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/job-radar/internal/llm"
	"github.com/jonathan/job-radar/internal/prompts"
	"github.com/jonathan/job-radar/internal/schemas"
)

const promptFile = "scoring.json"

// Verdict is the judge's raw assessment. Values are not yet rounded.
type Verdict struct {
	OverallScore    float64 `json:"overall_score"`
	RelevanceScore  float64 `json:"relevance_score"`
	ExperienceMatch float64 `json:"experience_match"`
	DomainMatch     float64 `json:"domain_match"`
	SeniorityFit    float64 `json:"seniority_fit"`
	Reasoning       string  `json:"reasoning"`
}

// Judge assesses one job description.
type Judge interface {
	Judge(ctx context.Context, description string) (*Verdict, error)
	// Model names the model behind the verdicts, stored with each score.
	Model() string
}

// LLMJudge asks a language model for a Verdict using the scoring rubric.
type LLMJudge struct {
	client llm.Client
	tier   llm.ModelTier
	system string
}

// NewLLMJudge builds a judge for profile. An empty profile uses the default
// candidate profile.
func NewLLMJudge(client llm.Client, tier llm.ModelTier, profile string) (*LLMJudge, error) {
	if strings.TrimSpace(profile) == "" {
		var err error
		profile, err = prompts.Get(promptFile, "default-profile")
		if err != nil {
			return nil, err
		}
	}

	system, err := prompts.Render(promptFile, "system", map[string]string{
		"Profile":  strings.TrimSpace(profile),
		"Contract": llm.JobScoreContract().Instructions(),
	})
	if err != nil {
		return nil, err
	}

	return &LLMJudge{client: client, tier: tier, system: system}, nil
}

// Judge sends the description to the model. A response that is not valid
// JSON or lacks a numeric overall_score is an error.
func (j *LLMJudge) Judge(ctx context.Context, description string) (*Verdict, error) {
	prompt, err := prompts.Render(promptFile, "user", map[string]string{"Description": description})
	if err != nil {
		return nil, err
	}

	jsonResp, err := j.client.GenerateJSONWithSystem(ctx, j.system, prompt, j.tier)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	jsonResp = llm.CleanJSONBlock(jsonResp)
	if err := schemas.Validate(schemas.JobScore, jsonResp); err != nil {
		return nil, fmt.Errorf("invalid judge response: %w", err)
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(jsonResp), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w (content: %s)", err, jsonResp)
	}
	return &verdict, nil
}

// Model returns the model name for the judge's tier.
func (j *LLMJudge) Model() string {
	return j.client.GetModel(j.tier)
}

// LoadProfile reads a candidate profile from path. An empty path returns an
// empty profile, which selects the default.
func LoadProfile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read candidate profile: %w", err)
	}
	return string(data), nil
}
