package llm

import (
	"context"
	"time"
)

// ErrorCode classifies adapter failures so callers can log and report them
// uniformly across backends.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "LLM_INVALID_REQUEST"      // malformed request or parameters
	ErrUnauthorized        ErrorCode = "LLM_UNAUTHORIZED"         // missing or expired credentials
	ErrForbidden           ErrorCode = "LLM_FORBIDDEN"            // permission or content-policy refusal
	ErrRateLimited         ErrorCode = "LLM_RATE_LIMITED"         // upstream rate limit
	ErrQuotaExceeded       ErrorCode = "LLM_QUOTA_EXCEEDED"       // quota or credit exhausted
	ErrModelOverloaded     ErrorCode = "LLM_MODEL_OVERLOADED"     // model overloaded
	ErrUpstreamTimeout     ErrorCode = "LLM_UPSTREAM_TIMEOUT"     // upstream timed out
	ErrUpstreamError       ErrorCode = "LLM_UPSTREAM_ERROR"       // upstream 5xx or network failure
	ErrProviderUnavailable ErrorCode = "LLM_PROVIDER_UNAVAILABLE" // provider unreachable
)

// Error is the uniform error type returned by every provider.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

type ChatRequest struct {
	TraceID     string        `json:"trace_id"`
	Model       string        `json:"model"`
	Messages    []Message     `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// Text returns the content of the first choice, or "" when the response
// carries no choices.
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// HealthStatus reports the outcome of a provider health probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the uniform adapter interface every backend implements.
// All transport and auth mechanics stay behind this boundary; the dialogue
// layer only sees a synchronous completion call.
type Provider interface {
	// Completion performs one synchronous chat request.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthCheck performs a lightweight reachability probe.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's stable identifier.
	Name() string
}
