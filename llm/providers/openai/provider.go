// Package openai implements the OpenAI provider on top of the shared
// OpenAI-compatible base client.
package openai

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/saphire-ai/saphire/llm/providers"
	"github.com/saphire-ai/saphire/llm/providers/openaicompat"
)

// Provider implements the OpenAI backend.
type Provider struct {
	*openaicompat.Provider
}

// New creates an OpenAI provider instance.
func New(cfg providers.OpenAIConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}

	p := &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "openai",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "gpt-4o-mini",
			Timeout:       cfg.Timeout,
		}, logger),
	}

	// Organization header support
	if cfg.Organization != "" {
		org := cfg.Organization
		p.SetBuildHeaders(func(req *http.Request, apiKey string) {
			req.Header.Set("Authorization", "Bearer "+apiKey)
			req.Header.Set("OpenAI-Organization", org)
			req.Header.Set("Content-Type", "application/json")
		})
	}

	return p
}
