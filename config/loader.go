package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration: defaults, overridden by the YAML file at
// path (skipped when path is empty), overridden by environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides credentials and endpoints from the environment. The
// variable names match what operators already export for these backends.
func applyEnv(cfg *Config) {
	setString(&cfg.Backends.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Backends.OpenAI.BaseURL, "OPENAI_API_URL")
	setString(&cfg.Backends.OpenAI.Model, "OPENAI_MODEL")
	setString(&cfg.Backends.OpenAI.Organization, "OPENAI_ORGANIZATION")

	setString(&cfg.Backends.Ollama.BaseURL, "OLLAMA_API_URL")
	setString(&cfg.Backends.Ollama.Model, "OLLAMA_MODEL")

	setString(&cfg.Backends.GigaChat.Credentials, "GIGACHAT_API_KEY")
	setString(&cfg.Backends.GigaChat.BaseURL, "GIGACHAT_API_URL")
	setString(&cfg.Backends.GigaChat.Model, "GIGACHAT_MODEL")
	setString(&cfg.Backends.GigaChat.Scope, "GIGACHAT_SCOPE")

	setString(&cfg.Database.Path, "SAPHIRE_DB_PATH")
	setString(&cfg.Log.Level, "SAPHIRE_LOG_LEVEL")
	setString(&cfg.Log.Format, "SAPHIRE_LOG_FORMAT")
	setInt(&cfg.Dialogue.Rounds, "SAPHIRE_ROUNDS")
	setString(&cfg.Dialogue.Language, "SAPHIRE_LANGUAGE")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Dialogue.Rounds <= 0 {
		return fmt.Errorf("dialogue rounds must be positive, got %d", c.Dialogue.Rounds)
	}
	if c.Dialogue.MinFinalWords <= 0 {
		return fmt.Errorf("min final words must be positive, got %d", c.Dialogue.MinFinalWords)
	}
	if len(c.Dialogue.Order) == 0 {
		return fmt.Errorf("dialogue order cannot be empty")
	}
	return nil
}
