package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoringPrompts(t *testing.T) {
	tests := []struct {
		key          string
		placeholders []string
	}{
		{key: "system", placeholders: []string{"{{.Profile}}", "{{.Contract}}"}},
		{key: "user", placeholders: []string{"{{.Description}}"}},
		{key: "default-profile"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			template, err := Get("scoring.json", tt.key)
			require.NoError(t, err)
			assert.NotEmpty(t, strings.TrimSpace(template))

			found := placeholderPattern.FindAllString(template, -1)
			assert.ElementsMatch(t, tt.placeholders, found)
		})
	}
}

func TestScoringSystemPrompt_Weights(t *testing.T) {
	system, err := Get("scoring.json", "system")
	require.NoError(t, err)
	assert.Contains(t, system, "relevance_score * 0.35")
	assert.Contains(t, system, "seniority_fit * 0.15")
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("ranking.json", "system")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt file ranking.json not found")

	_, err = Get("scoring.json", "rubric")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `prompt key "rubric" not found`)
}

func TestRender_System(t *testing.T) {
	system, err := Render("scoring.json", "system", map[string]string{
		"Profile":  "Staff Go engineer, DeFi infra, remote EU.",
		"Contract": "Return ONLY valid JSON.",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "Staff Go engineer, DeFi infra, remote EU.")
	assert.Contains(t, system, "Return ONLY valid JSON.")
	assert.NotContains(t, system, "{{.")
}

func TestRender_MissingValue(t *testing.T) {
	_, err := Render("scoring.json", "system", map[string]string{"Profile": "Go engineer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value for {{.Contract}}")
}

func TestRender_ValueIsNotExpanded(t *testing.T) {
	description := "Title: Template Engineer\nWrite {{.Profile}} style templates."

	prompt, err := Render("scoring.json", "user", map[string]string{
		"Description": description,
		"Profile":     "unused",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, description)
	assert.NotContains(t, prompt, "unused")
}
