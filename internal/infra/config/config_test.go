package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"GENERATOR_BACKEND",
		"NUMBER_OF_RESULTS",
		"MAX_TOKENS",
		"TEMPERATURE",
		"TOP_P",
		"MAX_HISTORY_TURNS",
		"SEARCH_MODE",
		"ENABLE_METADATA_FILTERING",
		"ENABLE_CITATIONS",
		"STATUS_EMIT_INTERVAL",
		"COLLECTION_IDS",
		"DEFAULT_COLLECTION",
	}
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.GeneratorBackend)
	assert.Equal(t, 5, cfg.NumberOfResults)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, float32(0.7), cfg.Temperature)
	assert.Equal(t, float32(0.9), cfg.TopP)
	assert.Equal(t, 10, cfg.MaxHistoryTurns)
	assert.Equal(t, "HYBRID", cfg.SearchMode)
	assert.False(t, cfg.EnableMetadataFiltering)
	assert.True(t, cfg.EnableCitations)
	assert.Equal(t, 2*time.Second, cfg.StatusEmitInterval)
	require.Len(t, cfg.Collections, 1)
	assert.Equal(t, "default", cfg.Collections[0].ID)
	assert.Equal(t, "default", cfg.DefaultCollection)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("NUMBER_OF_RESULTS", "8")
	t.Setenv("TEMPERATURE", "0.2")
	t.Setenv("SEARCH_MODE", "semantic")
	t.Setenv("ENABLE_METADATA_FILTERING", "true")
	t.Setenv("STATUS_EMIT_INTERVAL", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.NumberOfResults)
	assert.Equal(t, float32(0.2), cfg.Temperature)
	assert.Equal(t, "SEMANTIC", cfg.SearchMode)
	assert.True(t, cfg.EnableMetadataFiltering)
	assert.Equal(t, 500*time.Millisecond, cfg.StatusEmitInterval)
}

func TestLoad_FilterModelFallsBackToGeneratorModel(t *testing.T) {
	_ = os.Unsetenv("FILTER_MODEL")
	t.Setenv("GENERATOR_MODEL", "gpt-oss20b-cpu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-oss20b-cpu", cfg.FilterModel)
}

func TestLoad_OpenAIBackendRequiresKey(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "openai")
	_ = os.Unsetenv("OPENAI_API_KEY")
	_ = os.Unsetenv("OPENAI_API_KEY_FILE")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "vertex")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATOR_BACKEND")
}

func TestLoad_UnknownSearchModeRejected(t *testing.T) {
	t.Setenv("SEARCH_MODE", "keyword")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_MODE")
}

func TestParseCollections(t *testing.T) {
	tests := []struct {
		name      string
		ids       string
		names     string
		expected  []Collection
		expectErr bool
	}{
		{
			name:     "single id without names",
			ids:      "default",
			names:    "",
			expected: []Collection{{ID: "default", Name: "default"}},
		},
		{
			name:  "ids zipped with names",
			ids:   "docs;tickets",
			names: "Documentation;Support Tickets",
			expected: []Collection{
				{ID: "docs", Name: "Documentation"},
				{ID: "tickets", Name: "Support Tickets"},
			},
		},
		{
			name:  "missing names fall back to id",
			ids:   "docs;tickets",
			names: "Documentation",
			expected: []Collection{
				{ID: "docs", Name: "Documentation"},
				{ID: "tickets", Name: "tickets"},
			},
		},
		{
			name:  "whitespace and empty segments ignored",
			ids:   " docs ; ;tickets",
			names: "",
			expected: []Collection{
				{ID: "docs", Name: "docs"},
				{ID: "tickets", Name: "tickets"},
			},
		},
		{
			name:      "duplicate ids rejected",
			ids:       "docs;docs",
			expectErr: true,
		},
		{
			name:      "empty list rejected",
			ids:       " ; ",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCollections(tt.ids, tt.names)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoad_DefaultCollectionMustExist(t *testing.T) {
	t.Setenv("COLLECTION_IDS", "docs;tickets")
	t.Setenv("DEFAULT_COLLECTION", "archive")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_COLLECTION")
}

func TestGetSecret_FileIndirection(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/secret"
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))

	_ = os.Unsetenv("TEST_SECRET")
	t.Setenv("TEST_SECRET_FILE", path)

	assert.Equal(t, "s3cret", getSecret("TEST_SECRET", "TEST_SECRET_FILE", "fallback"))
}

func TestGetSecret_DirectValueWins(t *testing.T) {
	t.Setenv("TEST_SECRET", "direct")
	t.Setenv("TEST_SECRET_FILE", "/nonexistent")

	assert.Equal(t, "direct", getSecret("TEST_SECRET", "TEST_SECRET_FILE", "fallback"))
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float32
		expected float32
	}{
		{
			name:     "valid value",
			envValue: "1.5",
			fallback: 0.7,
			expected: 1.5,
		},
		{
			name:     "invalid value uses fallback",
			envValue: "invalid",
			fallback: 0.7,
			expected: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_FLOAT32", tt.envValue)

			result := getEnvFloat("TEST_FLOAT32", tt.fallback)
			assert.Equal(t, tt.expected, result)
		})
	}
}
