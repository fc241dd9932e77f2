package dialogue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saphire-ai/saphire/internal/metrics"
	"github.com/saphire-ai/saphire/llm"
)

// Backend wraps an llm.Provider with the recoverable-error contract the
// orchestrator relies on: Generate never fails. A provider error is folded
// into a sentinel text that names the backend and the failure detail; the
// sentinel then fails validation downstream, so a broken backend surfaces as
// a rule violation instead of a crash.
type Backend struct {
	id       string
	provider llm.Provider
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewBackend wraps a provider under a stable identifier.
// Logger and collector may be nil.
func NewBackend(id string, provider llm.Provider, logger *zap.Logger, collector *metrics.Collector) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		id:       id,
		provider: provider,
		logger:   logger.With(zap.String("backend", id)),
		metrics:  collector,
	}
}

// ID returns the backend's stable identifier.
func (b *Backend) ID() string { return b.id }

// Generate performs one synchronous completion and returns the response
// text. Any failure is returned as sentinel text, never as an error.
func (b *Backend) Generate(ctx context.Context, prompt string) string {
	req := &llm.ChatRequest{
		TraceID:  uuid.NewString(),
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	}

	start := time.Now()
	resp, err := b.provider.Completion(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		b.metrics.RecordBackendRequest(b.id, "error", elapsed)
		b.logger.Warn("generate failed",
			zap.String("trace_id", req.TraceID),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return fmt.Sprintf("Error getting response from %s: %s", b.id, err)
	}

	b.metrics.RecordBackendRequest(b.id, "ok", elapsed)
	b.logger.Debug("generate completed",
		zap.String("trace_id", req.TraceID),
		zap.Duration("latency", elapsed),
	)
	return resp.Text()
}
