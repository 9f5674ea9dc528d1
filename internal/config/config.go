package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoModels is returned by Validate when no fan-out models are configured.
var ErrNoModels = errors.New("config: at least one model is required")

// Provider names accepted for the chat backend and the embedding engine.
const (
	ProviderOllama = "ollama"
	ProviderGenAI  = "genai"
)

// Config holds settings loaded from ensemble.yml.
type Config struct {
	Listen         string          `yaml:"listen,omitempty"`
	Backend        BackendConfig   `yaml:"backend,omitempty"`
	Models         []string        `yaml:"models,omitempty"`
	AssistantModel string          `yaml:"assistantModel,omitempty"`
	MaxTokens      TokenLimits     `yaml:"maxTokens,omitempty"`
	Embedding      EmbeddingConfig `yaml:"embedding,omitempty"`
	Planner        PlannerConfig   `yaml:"planner,omitempty"`
	Critique       CritiqueConfig  `yaml:"critique,omitempty"`
	Search         SearchConfig    `yaml:"search,omitempty"`
	Log            LogConfig       `yaml:"log,omitempty"`
}

// BackendConfig selects the language-model backend.
type BackendConfig struct {
	Provider string        `yaml:"provider,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	APIKey   string        `yaml:"apiKey,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// TokenLimits bounds the output length of each kind of backend call.
type TokenLimits struct {
	Query    int `yaml:"query,omitempty"`
	Rewrite  int `yaml:"rewrite,omitempty"`
	Plan     int `yaml:"plan,omitempty"`
	Evaluate int `yaml:"evaluate,omitempty"`
	Improve  int `yaml:"improve,omitempty"`
}

// EmbeddingConfig selects the engine used to score responses.
type EmbeddingConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`
}

// PlannerConfig holds the keywords that mark a prompt as multi-part.
type PlannerConfig struct {
	Keywords []string `yaml:"keywords,omitempty"`
}

// CritiqueConfig holds the keywords that mark a critique as unfavourable.
type CritiqueConfig struct {
	Keywords []string `yaml:"keywords,omitempty"`

	// TolerateFailures turns evaluate/improve errors into a logged
	// pass-through of the unrevised response instead of failing the turn.
	TolerateFailures bool `yaml:"tolerateFailures,omitempty"`
}

// SearchConfig points at the instant-answer search API.
type SearchConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen: "127.0.0.1:7860",
		Backend: BackendConfig{
			Provider: ProviderOllama,
			Endpoint: "http://127.0.0.1:11434",
			Timeout:  120 * time.Second,
		},
		Models:         []string{"tinyllama", "phi3"},
		AssistantModel: "phi3",
		MaxTokens: TokenLimits{
			Query:    100,
			Rewrite:  100,
			Plan:     100,
			Evaluate: 80,
			Improve:  100,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOllama,
			Endpoint: "http://127.0.0.1:11434",
			Model:    "all-minilm",
		},
		Planner: PlannerConfig{
			Keywords: []string{"compare", "difference", "how to", "steps", "advantages", "benefits"},
		},
		Critique: CritiqueConfig{
			Keywords: []string{"improve", "incomplete", "partial", "unclear"},
		},
		Search: SearchConfig{Endpoint: "https://api.duckduckgo.com"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load attempts to read ensemble.yml or ensemble.yaml from the given
// directory. Values in the file are layered over Default; a missing file is
// not an error. Environment overrides are applied last.
func Load(dir string) (*Config, error) {
	cfg := Default()
	for _, name := range []string{"ensemble.yml", "ensemble.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		break
	}
	cfg.applyEnvOverrides()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("ENSEMBLE_LISTEN"); addr != "" {
		c.Listen = addr
	}
	if url := os.Getenv("ENSEMBLE_BACKEND_ENDPOINT"); url != "" {
		c.Backend.Endpoint = url
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.Backend.APIKey == "" {
			c.Backend.APIKey = key
		}
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return ErrNoModels
	}
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m == "" {
			return errors.New("config: model names must not be empty")
		}
		if seen[m] {
			return fmt.Errorf("config: model %q is listed twice", m)
		}
		seen[m] = true
	}
	if c.AssistantModel == "" {
		return errors.New("config: assistantModel is required")
	}
	if err := checkProvider("backend", c.Backend.Provider); err != nil {
		return err
	}
	if err := checkProvider("embedding", c.Embedding.Provider); err != nil {
		return err
	}
	limits := []struct {
		name string
		n    int
	}{
		{"query", c.MaxTokens.Query},
		{"rewrite", c.MaxTokens.Rewrite},
		{"plan", c.MaxTokens.Plan},
		{"evaluate", c.MaxTokens.Evaluate},
		{"improve", c.MaxTokens.Improve},
	}
	for _, l := range limits {
		if l.n <= 0 {
			return fmt.Errorf("config: maxTokens.%s must be positive, got %d", l.name, l.n)
		}
	}
	return nil
}

func checkProvider(field, provider string) error {
	switch provider {
	case ProviderOllama, ProviderGenAI:
		return nil
	default:
		return fmt.Errorf("config: unsupported %s provider %q (use %q or %q)", field, provider, ProviderOllama, ProviderGenAI)
	}
}
