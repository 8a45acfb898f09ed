package scoring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/job-radar/internal/llm"
	"github.com/jonathan/job-radar/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONWithSystemFunc func(ctx context.Context, system, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc               func(tier llm.ModelTier) string
	closed                     bool
}

func (m *MockLLMClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "", errors.New("not used")
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSONWithSystem(ctx, "", prompt, tier)
}

func (m *MockLLMClient) GenerateJSONWithSystem(ctx context.Context, system, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONWithSystemFunc != nil {
		return m.GenerateJSONWithSystemFunc(ctx, system, prompt, tier)
	}
	return `{"overall_score": 70, "relevance_score": 70, "experience_match": 70, "domain_match": 70, "seniority_fit": 70, "reasoning": "Mock reasoning"}`, nil
}

func (m *MockLLMClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	m.closed = true
	return nil
}

func TestLLMJudge_Success(t *testing.T) {
	var gotSystem, gotPrompt string
	var gotTier llm.ModelTier
	client := &MockLLMClient{
		GenerateJSONWithSystemFunc: func(_ context.Context, system, prompt string, tier llm.ModelTier) (string, error) {
			gotSystem, gotPrompt, gotTier = system, prompt, tier
			return "```json\n{\"overall_score\": 80.5, \"relevance_score\": 90, \"experience_match\": 75, \"domain_match\": 70, \"seniority_fit\": 85, \"reasoning\": \"Strong Go fit\"}\n```", nil
		},
	}

	judge, err := NewLLMJudge(client, llm.TierLite, "Staff Rust engineer, zk rollups.")
	require.NoError(t, err)

	verdict, err := judge.Judge(context.Background(), "Title: Protocol Engineer")
	require.NoError(t, err)
	assert.InDelta(t, 80.5, verdict.OverallScore, 0.001)
	assert.InDelta(t, 85, verdict.SeniorityFit, 0.001)
	assert.Equal(t, "Strong Go fit", verdict.Reasoning)

	assert.Equal(t, llm.TierLite, gotTier)
	assert.Contains(t, gotSystem, "Staff Rust engineer, zk rollups.")
	assert.Contains(t, gotSystem, "relevance_score * 0.35")
	assert.Contains(t, gotSystem, `"overall_score": integer 0-100 (required)`)
	assert.NotContains(t, gotSystem, "{{.")
	assert.Contains(t, gotPrompt, "Title: Protocol Engineer")
	assert.Equal(t, "mock-model", judge.Model())
}

func TestLLMJudge_DefaultProfile(t *testing.T) {
	var gotSystem string
	client := &MockLLMClient{
		GenerateJSONWithSystemFunc: func(_ context.Context, system, _ string, _ llm.ModelTier) (string, error) {
			gotSystem = system
			return `{"overall_score": 50}`, nil
		},
	}

	judge, err := NewLLMJudge(client, llm.TierStandard, "  ")
	require.NoError(t, err)
	_, err = judge.Judge(context.Background(), "Title: Engineer")
	require.NoError(t, err)
	assert.Contains(t, gotSystem, "Senior backend engineer")
}

func TestLLMJudge_RejectsMissingOverallScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing field", `{"relevance_score": 90, "reasoning": "no total"}`},
		{"string score", `{"overall_score": "high"}`},
		{"prose", "I am unable to evaluate this posting."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockLLMClient{
				GenerateJSONWithSystemFunc: func(context.Context, string, string, llm.ModelTier) (string, error) {
					return tt.response, nil
				},
			}
			judge, err := NewLLMJudge(client, llm.TierStandard, "")
			require.NoError(t, err)

			verdict, err := judge.Judge(context.Background(), "Title: Engineer")
			assert.Nil(t, verdict)
			var validationErr *schemas.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestLLMJudge_ProviderError(t *testing.T) {
	client := &MockLLMClient{
		GenerateJSONWithSystemFunc: func(context.Context, string, string, llm.ModelTier) (string, error) {
			return "", errors.New("API rate limit exceeded")
		},
	}
	judge, err := NewLLMJudge(client, llm.TierStandard, "")
	require.NoError(t, err)

	_, err = judge.Judge(context.Background(), "Title: Engineer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestLoadProfile(t *testing.T) {
	profile, err := LoadProfile("")
	require.NoError(t, err)
	assert.Empty(t, profile)

	path := filepath.Join(t.TempDir(), "profile.txt")
	require.NoError(t, os.WriteFile(path, []byte("Go engineer"), 0o600))
	profile, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Go engineer", profile)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
