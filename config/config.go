// Package config holds the explicit configuration struct the CLI builds once
// and passes into the orchestrator and providers. No ambient globals:
// precedence is defaults, then a YAML file, then environment variables.
package config

import (
	"time"

	"github.com/saphire-ai/saphire/llm/providers"
)

// Config is the complete configuration of a saphire process.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Backends BackendsConfig `yaml:"backends"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format: console or json.
	Format string `yaml:"format"`
}

// DatabaseConfig configures the transcript store.
type DatabaseConfig struct {
	// Path is the sqlite database file.
	Path string `yaml:"path"`
}

// DialogueConfig configures the orchestrator.
type DialogueConfig struct {
	// Language names the required response language inside prompts.
	Language string `yaml:"language"`
	// Rounds is the number of discussion rounds.
	Rounds int `yaml:"rounds"`
	// MinFinalWords is the word-count floor for synthesis responses.
	MinFinalWords int `yaml:"min_final_words"`
	// Order lists backend identifiers in turn order.
	Order []string `yaml:"order"`
}

// BackendsConfig carries per-backend provider configuration.
type BackendsConfig struct {
	OpenAI   providers.OpenAIConfig   `yaml:"openai"`
	Ollama   providers.OllamaConfig   `yaml:"ollama"`
	GigaChat providers.GigaChatConfig `yaml:"gigachat"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			Path: "saphire.db",
		},
		Dialogue: DialogueConfig{
			Language:      "Russian",
			Rounds:        3,
			MinFinalWords: 20,
			Order:         []string{"openai", "ollama", "gigachat"},
		},
		Backends: BackendsConfig{
			OpenAI: providers.OpenAIConfig{
				Model:   "gpt-4o-mini",
				Timeout: 60 * time.Second,
			},
			Ollama: providers.OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama2",
			},
			GigaChat: providers.GigaChatConfig{
				SkipTLSVerify: true,
			},
		},
	}
}
