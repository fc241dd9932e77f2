package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saphire-ai/saphire/llm"
	"github.com/saphire-ai/saphire/llm/providers"
)

func TestNew_Defaults(t *testing.T) {
	p := New(providers.OllamaConfig{}, nil)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "http://localhost:11434", p.cfg.BaseURL)
	assert.Equal(t, "llama2", p.cfg.Model)
}

func TestCompletion_Success(t *testing.T) {
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{
			Model:           "llama2",
			Response:        "Ответ локальной модели",
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer server.Close()

	p := New(providers.OllamaConfig{BaseURL: server.URL}, zap.NewNop())
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		TraceID:  "trace-1",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "вопрос"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "llama2", gotReq.Model)
	assert.Equal(t, "вопрос", gotReq.Prompt)
	assert.False(t, gotReq.Stream)

	assert.Equal(t, "Ответ локальной модели", resp.Text())
	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
}

func TestCompletion_JoinsMessages(t *testing.T) {
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(generateResponse{Response: "ок", Done: true})
	}))
	defer server.Close()

	p := New(providers.OllamaConfig{BaseURL: server.URL}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "контекст"},
			{Role: llm.RoleUser, Content: "вопрос"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "контекст\n\nвопрос", gotReq.Prompt)
}

func TestCompletion_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "model not pulled"})
	}))
	defer server.Close()

	p := New(providers.OllamaConfig{BaseURL: server.URL}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "вопрос"}},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "ollama", llmErr.Provider)
	assert.Equal(t, "model not pulled", llmErr.Message)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	defer server.Close()

	p := New(providers.OllamaConfig{BaseURL: server.URL}, zap.NewNop())
	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
