package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgemma/subtrans/internal/document"
	"github.com/subgemma/subtrans/internal/llm"
	"github.com/subgemma/subtrans/internal/style"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.LLM.Endpoint)
	assert.Equal(t, llm.KindOllama, cfg.LLM.Kind)
	assert.Equal(t, "translategemma", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.Translate.BatchSize)
	assert.Equal(t, "Traditional Chinese", cfg.Translate.TargetLanguage)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("LLM_KIND", "openai")
	t.Setenv("LLM_ENDPOINT", "http://localhost:8080/v1")
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("FILE_TYPE", "txt")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, llm.KindOpenAI, cfg.LLM.Kind)
	assert.Equal(t, 5, cfg.Translate.BatchSize)
	assert.Equal(t, "txt", cfg.Translate.FileType)
}

func TestRunConfiguration(t *testing.T) {
	cfg, err := NewFromEnv(func(c *Config) {
		c.Translate.InputRoot = t.TempDir()
		c.Translate.OutputRoot = t.TempDir()
	})
	require.NoError(t, err)

	run, err := cfg.RunConfiguration()
	require.NoError(t, err)
	assert.Equal(t, document.FormatSRT, run.FileType)
	assert.Equal(t, style.Subtitle, run.Style)
	assert.Equal(t, cfg.LLM.Model, run.Model)
}

func TestRunConfiguration_UnknownPreset(t *testing.T) {
	cfg, err := NewFromEnv(func(c *Config) {
		c.Translate.StylePreset = "nope"
	})
	require.NoError(t, err)

	_, err = cfg.RunConfiguration()
	require.Error(t, err)
}
