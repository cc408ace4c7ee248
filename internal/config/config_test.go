package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "AI_PROVIDER"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Termagatchi", cfg.Pet.Name)
	assert.Equal(t, 30*time.Second, cfg.Pet.AutosaveInterval.Std())
	assert.Equal(t, 60*time.Second, cfg.Pet.TickInterval.Std())
	assert.Equal(t, int64(64), cfg.Chat.MaxTokens)
	assert.Equal(t, 2, cfg.Chat.MaxAttempts)
	assert.Contains(t, cfg.Pet.SavePath, "save.json")
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
pet:
  name: Gizmo
  tick_interval: 30s
ai:
  provider: openai
openai:
  api_key: sk-test
  model: gpt-test
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Gizmo", cfg.Pet.Name)
	assert.Equal(t, 30*time.Second, cfg.Pet.TickInterval.Std())
	// Untouched sections keep defaults.
	assert.Equal(t, 30*time.Second, cfg.Pet.AutosaveInterval.Std())
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-test", cfg.OpenAI.Model)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("AI_PROVIDER", "claude")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
claude:
  api_key: file-key
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Claude.APIKey)
	assert.Equal(t, "claude", cfg.AI.Provider)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown provider", "ai:\n  provider: skynet\n"},
		{"zero tick interval", "pet:\n  tick_interval: 0s\n"},
		{"negative autosave", "pet:\n  autosave_interval: -5s\n"},
		{"malformed yaml", "pet: [not a map\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestBrainConfigMapping(t *testing.T) {
	cfg := &Config{
		Claude: ClaudeConfig{APIKey: "ck", Model: "cm"},
		Gemini: GeminiConfig{APIKey: "gk", Model: "gm"},
		OpenAI: OpenAIConfig{APIKey: "ok", Model: "om"},
		AI:     AIConfig{Provider: "gemini"},
		Chat: ChatConfig{
			MaxTokens:   128,
			Timeout:     Duration(3 * time.Second),
			MaxAttempts: 5,
			RateLimit:   7,
			RateWindow:  Duration(time.Minute),
		},
	}

	bc := cfg.BrainConfig()
	assert.Equal(t, "ck", bc.ClaudeAPIKey)
	assert.Equal(t, "gm", bc.GeminiModel)
	assert.Equal(t, "ok", bc.OpenAIAPIKey)
	assert.Equal(t, "gemini", bc.Provider)
	assert.Equal(t, int64(128), bc.MaxTokens)
	assert.Equal(t, 5, bc.MaxAttempts)
	assert.Equal(t, 7, bc.RateLimit)
}
