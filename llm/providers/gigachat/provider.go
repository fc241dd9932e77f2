// Package gigachat implements the Sber GigaChat provider. GigaChat differs
// from OpenAI-compatible APIs in two ways: authentication is a two-step OAuth
// exchange (Basic authorization key -> short-lived bearer token), and the
// gateway is commonly served behind the Sberbank CA, so certificate
// verification may need to be disabled.
package gigachat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saphire-ai/saphire/internal/tlsutil"
	"github.com/saphire-ai/saphire/llm"
	"github.com/saphire-ai/saphire/llm/providers"
)

const (
	defaultBaseURL = "https://gigachat.devices.sberbank.ru"
	defaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultScope   = "GIGACHAT_API_PERS"
)

// Provider implements the GigaChat backend.
type Provider struct {
	cfg    providers.GigaChatConfig
	client *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New creates a GigaChat provider instance.
func New(cfg providers.GigaChatConfig, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.Scope == "" {
		cfg.Scope = defaultScope
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := tlsutil.SecureHTTPClient(timeout)
	if cfg.SkipTLSVerify {
		client = tlsutil.InsecureHTTPClient(timeout)
	}

	return &Provider{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("provider", "gigachat")),
	}
}

func (p *Provider) Name() string { return "gigachat" }

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
}

// token returns a valid bearer token, exchanging the authorization key when
// the cached one is missing or about to expire.
func (p *Provider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Until(p.tokenExpiry) > 30*time.Second {
		return p.accessToken, nil
	}

	form := url.Values{"scope": {p.cfg.Scope}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Basic "+p.cfg.Credentials)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("RqUID", uuid.NewString())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &llm.Error{
			Code: llm.ErrProviderUnavailable, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return "", providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var oauth oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&oauth); err != nil {
		return "", fmt.Errorf("failed to decode oauth response: %w", err)
	}
	if oauth.AccessToken == "" {
		return "", &llm.Error{
			Code: llm.ErrUnauthorized, Message: "empty access token in oauth response",
			HTTPStatus: http.StatusUnauthorized, Provider: p.Name(),
		}
	}

	p.accessToken = oauth.AccessToken
	p.tokenExpiry = time.UnixMilli(oauth.ExpiresAt)
	p.logger.Debug("oauth token refreshed", zap.Time("expires_at", p.tokenExpiry))
	return p.accessToken, nil
}

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int         `json:"index"`
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// HealthCheck verifies credentials by performing the token exchange.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	if _, err := p.token(ctx); err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: time.Since(start)},
			fmt.Errorf("gigachat health check failed: %w", err)
	}
	return &llm.HealthStatus{Healthy: true, Latency: time.Since(start)}, nil
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}

	model := providers.ChooseModel(req, p.cfg.Model, "GigaChat")

	body := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, msg := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("/api/v1/chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", req.TraceID)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var giga chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&giga); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	p.logger.Debug("chat completion",
		zap.String("trace_id", req.TraceID),
		zap.String("model", model),
		zap.Duration("latency", time.Since(start)),
		zap.Int("total_tokens", giga.Usage.TotalTokens),
	)

	result := &llm.ChatResponse{
		Provider: p.Name(),
		Model:    giga.Model,
		Usage: llm.ChatUsage{
			PromptTokens:     giga.Usage.PromptTokens,
			CompletionTokens: giga.Usage.CompletionTokens,
			TotalTokens:      giga.Usage.TotalTokens,
		},
	}
	if giga.Created != 0 {
		result.CreatedAt = time.Unix(giga.Created, 0)
	}
	for _, c := range giga.Choices {
		result.Choices = append(result.Choices, llm.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
			Message:      llm.Message{Role: llm.Role(c.Message.Role), Content: c.Message.Content},
		})
	}
	return result, nil
}
