package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saphire-ai/saphire/llm"
)

func TestNew_Defaults(t *testing.T) {
	p := New(Config{ProviderName: "test"}, nil)
	require.NotNil(t, p)
	assert.Equal(t, "/v1/chat/completions", p.Cfg.EndpointPath)
	assert.Equal(t, "/v1/models", p.Cfg.ModelsEndpoint)
	assert.Equal(t, "test", p.Name())
	assert.Equal(t, 60*time.Second, p.Client.Timeout)
	assert.NotNil(t, p.Logger)
}

func TestNew_CustomEndpoints(t *testing.T) {
	p := New(Config{
		ProviderName:   "custom",
		EndpointPath:   "/api/chat",
		ModelsEndpoint: "/api/models",
		Timeout:        10 * time.Second,
	}, zap.NewNop())
	assert.Equal(t, "/api/chat", p.Cfg.EndpointPath)
	assert.Equal(t, "/api/models", p.Cfg.ModelsEndpoint)
	assert.Equal(t, 10*time.Second, p.Client.Timeout)
}

func TestCompletion_Success(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"model":   "test-model",
			"created": 1756200000,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": "Ответ модели"},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer server.Close()

	p := New(Config{
		ProviderName: "test",
		APIKey:       "secret",
		BaseURL:      server.URL,
		DefaultModel: "test-model",
	}, zap.NewNop())

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		TraceID:  "trace-1",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "вопрос"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)

	assert.Equal(t, "Ответ модели", resp.Text())
	assert.Equal(t, "test", resp.Provider)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, time.Unix(1756200000, 0), resp.CreatedAt)
}

func TestCompletion_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "invalid key"}})
	}))
	defer server.Close()

	p := New(Config{ProviderName: "test", APIKey: "bad", BaseURL: server.URL}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "вопрос"}},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrUnauthorized, llmErr.Code)
	assert.Equal(t, "invalid key", llmErr.Message)
	assert.Equal(t, "test", llmErr.Provider)
}

func TestCompletion_NetworkError(t *testing.T) {
	p := New(Config{ProviderName: "test", BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "вопрос"}},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrUpstreamError, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := New(Config{ProviderName: "test", BaseURL: server.URL}, zap.NewNop())
	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Latency, time.Duration(0))
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := New(Config{ProviderName: "test", BaseURL: server.URL}, zap.NewNop())
	status, err := p.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
}

func TestSetBuildHeaders(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	p := New(Config{ProviderName: "test", APIKey: "k", BaseURL: server.URL}, zap.NewNop())
	p.SetBuildHeaders(func(req *http.Request, apiKey string) {
		req.Header.Set("X-Custom", "v-"+apiKey)
		req.Header.Set("Content-Type", "application/json")
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "вопрос"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "v-k", gotHeader)
}
