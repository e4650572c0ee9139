package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	settings, err := New("")
	require.NoError(t, err)

	assert.Equal(t, 10, settings.Retrieval.RetrievalCount)
	assert.True(t, settings.Retrieval.ApplyStd)
	assert.InDelta(t, 0.5, settings.Retrieval.StdCoef, 1e-9)
	assert.Equal(t, 5, settings.Retrieval.ResponseCount)
	assert.Equal(t, 3, settings.Pipeline.MaxSegments)
	assert.Equal(t, StrategyIdentity, settings.Pipeline.Reranker)
	assert.Equal(t, StrategyDeterministic, settings.Pipeline.Planner)
	assert.Equal(t, DefaultModel, settings.Models.PlannerModel)
}

func TestNewLegacyStrategyFlags(t *testing.T) {
	t.Setenv("USE_LLM_PLANNER", "yes")
	t.Setenv("USE_LLM_RERANK", "1")
	t.Setenv("LLM_PLANNER_MODEL", "planner-x")

	settings, err := New("")
	require.NoError(t, err)
	assert.Equal(t, StrategyLLM, settings.Pipeline.Planner)
	assert.Equal(t, StrategyLLM, settings.Pipeline.Reranker)
	assert.Equal(t, "planner-x", settings.Models.PlannerModel)
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	t.Setenv("TOOLPILOT_RETRIEVAL_COUNT", "not-a-number")

	_, err := New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOOLPILOT_RETRIEVAL_COUNT")
}

func TestNewWithInvalidBool(t *testing.T) {
	t.Setenv("TOOLPILOT_APPLY_STD", "maybe")

	_, err := New("")
	require.Error(t, err)
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("TOOLPILOT_RERANKER", "magic")

	_, err := New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reranker")
}

func TestNewJSONCFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolpilot.jsonc")
	content := `{
		// comments and trailing commas are allowed
		"retrieval": {"retrieval_count": 20, "apply_std": false, "std_coef": 1.0, "response_count": 3, "compression": "lz4",},
		"pipeline": {"segmenter": "deterministic", "reranker": "bm25", "planner": "deterministic", "max_segments": 2},
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 20, settings.Retrieval.RetrievalCount)
	assert.False(t, settings.Retrieval.ApplyStd)
	assert.Equal(t, "lz4", settings.Retrieval.Compression)
	assert.Equal(t, StrategyBM25, settings.Pipeline.Reranker)
	assert.Equal(t, 2, settings.Pipeline.MaxSegments)
	// Untouched sections keep their defaults.
	assert.Equal(t, EmbedderHashing, settings.Models.Embedder)
}

func TestNewYAMLFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolpilot.yaml")
	content := "retrieval:\n  retrieval_count: 7\n  response_count: 2\n  std_coef: 0.5\n  compression: none\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TOOLPILOT_RESPONSE_COUNT", "4")

	settings, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 7, settings.Retrieval.RetrievalCount)
	assert.Equal(t, 4, settings.Retrieval.ResponseCount)
	assert.Equal(t, "none", settings.Retrieval.Compression)
}

func TestNewUnsupportedFileExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolpilot.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := New(path)
	require.Error(t, err)
}

func TestMustNewPanics(t *testing.T) {
	t.Setenv("TOOLPILOT_MAX_SEGMENTS", "0")
	assert.Panics(t, func() { MustNew("") })
}

func TestAPIKeyFor(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	key, err := APIKeyFor("openai")
	require.NoError(t, err)
	assert.Equal(t, "test-key", key)

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = APIKeyFor("claude")
	assert.Error(t, err)

	_, err = APIKeyFor("unknown")
	assert.Error(t, err)
}
