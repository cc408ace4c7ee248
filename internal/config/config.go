package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/moorebrett0/termagatchi/internal/brain"
)

// Duration wraps time.Duration so YAML can carry "30s" style values,
// which yaml.v3 will not decode into time.Duration directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std converts back to the standard duration type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Pet    PetConfig    `yaml:"pet"`
	AI     AIConfig     `yaml:"ai"`
	Claude ClaudeConfig `yaml:"claude"`
	Gemini GeminiConfig `yaml:"gemini"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Chat   ChatConfig   `yaml:"chat"`
}

type PetConfig struct {
	Name             string   `yaml:"name"`
	SavePath         string   `yaml:"save_path"`
	ItemsPath        string   `yaml:"items_path"` // empty = built-in catalog
	AutosaveInterval Duration `yaml:"autosave_interval"`
	TickInterval     Duration `yaml:"tick_interval"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "claude", "gemini", "openai", or "" (auto-detect)
}

type ClaudeConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type ChatConfig struct {
	MaxTokens   int64    `yaml:"max_tokens"`
	Timeout     Duration `yaml:"timeout"`
	MaxAttempts int      `yaml:"max_attempts"`
	// Sliding window rate limiter
	RateLimit  int      `yaml:"rate_limit"`
	RateWindow Duration `yaml:"rate_window"`
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Secrets live in .env or the environment.
	_ = godotenv.Load()

	// Load YAML config if it exists
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// File doesn't exist — use defaults + env vars
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Env vars override config file values
	if env := os.Getenv("ANTHROPIC_API_KEY"); env != "" {
		cfg.Claude.APIKey = env
	}
	if env := os.Getenv("GOOGLE_API_KEY"); env != "" {
		cfg.Gemini.APIKey = env
	}
	if env := os.Getenv("OPENAI_API_KEY"); env != "" {
		cfg.OpenAI.APIKey = env
	}
	if env := os.Getenv("AI_PROVIDER"); env != "" {
		cfg.AI.Provider = env
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		Pet: PetConfig{
			Name:             "Termagatchi",
			SavePath:         filepath.Join(home, ".termagatchi", "save.json"),
			AutosaveInterval: Duration(30 * time.Second),
			TickInterval:     Duration(60 * time.Second),
		},
		Claude: ClaudeConfig{
			Model: "claude-sonnet-4-5-20250929",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Chat: ChatConfig{
			MaxTokens:   64,
			Timeout:     Duration(4 * time.Second),
			MaxAttempts: 2,
			RateLimit:   10,
			RateWindow:  Duration(time.Minute),
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.AI.Provider {
	case "", "claude", "gemini", "openai":
	default:
		return fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
	if cfg.Pet.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if cfg.Pet.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave_interval must be positive")
	}
	return nil
}

// BrainConfig maps the loaded config onto the responder's config.
func (c *Config) BrainConfig() brain.Config {
	return brain.Config{
		ClaudeAPIKey: c.Claude.APIKey,
		ClaudeModel:  c.Claude.Model,
		GeminiAPIKey: c.Gemini.APIKey,
		GeminiModel:  c.Gemini.Model,
		OpenAIAPIKey: c.OpenAI.APIKey,
		OpenAIModel:  c.OpenAI.Model,
		Provider:     c.AI.Provider,
		MaxTokens:    c.Chat.MaxTokens,
		Timeout:      c.Chat.Timeout.Std(),
		MaxAttempts:  c.Chat.MaxAttempts,
		RateLimit:    c.Chat.RateLimit,
		RateWindow:   c.Chat.RateWindow.Std(),
	}
}
