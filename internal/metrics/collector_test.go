package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("saphire_test", reg, zap.NewNop())

	c.RecordBackendRequest("openai", "ok", 250*time.Millisecond)
	c.RecordBackendRequest("openai", "error", time.Second)
	c.RecordValidationFailure("non_empty", "ollama")
	c.RecordEntriesAppended(10)
	c.RecordRun("task_solving", "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["saphire_test_backend_requests_total"])
	assert.True(t, names["saphire_test_backend_request_duration_seconds"])
	assert.True(t, names["saphire_test_validation_failures_total"])
	assert.True(t, names["saphire_test_transcript_entries_appended_total"])
	assert.True(t, names["saphire_test_runs_total"])
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	// A nil collector is a no-op so callers never need nil checks.
	c.RecordBackendRequest("openai", "ok", time.Second)
	c.RecordValidationFailure("non_empty", "ollama")
	c.RecordEntriesAppended(1)
	c.RecordRun("discussion", "aborted")
}

func TestCollector_NilRegisterer(t *testing.T) {
	c := NewCollector("saphire_test", nil, nil)
	require.NotNil(t, c)
	c.RecordEntriesAppended(1)
}
