package providers

import "time"

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string        `json:"api_key" yaml:"api_key"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Organization string        `json:"organization,omitempty" yaml:"organization,omitempty"`
	Model        string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GigaChatConfig configures the GigaChat provider.
// Credentials is the base64 authorization key used for the OAuth token
// exchange. SkipTLSVerify disables certificate verification for deployments
// behind the Sberbank CA.
type GigaChatConfig struct {
	Credentials   string        `json:"credentials" yaml:"credentials"`
	BaseURL       string        `json:"base_url" yaml:"base_url"`
	AuthURL       string        `json:"auth_url" yaml:"auth_url"`
	Scope         string        `json:"scope,omitempty" yaml:"scope,omitempty"`
	Model         string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	SkipTLSVerify bool          `json:"skip_tls_verify,omitempty" yaml:"skip_tls_verify,omitempty"`
}
