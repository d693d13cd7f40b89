package metrics

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ecochef/internal/database"
	"ecochef/internal/shared"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{
		AgentName: "EcoChef",
		Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 900, Model: "gemini"},
		Latency:   2 * time.Second,
	}))
	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{
		AgentName: "EcoChef",
		Usage:     shared.TokenUsage{PromptTokens: 50, CompletionTokens: 10, Model: "gemini"},
	}))
	// cache hits carry no usage and are skipped
	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{AgentName: "EcoChef", CacheHit: true}))

	require.NoError(t, s.Record(ctx, ExecutionMetric{
		AgentName: "EcoChef", Model: "gemini", PromptTokens: 1, CompletionTokens: 1,
		Timestamp: time.Now().UTC().AddDate(0, 0, -40),
	}))

	usage, err := s.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 150, usage[0].TotalPrompt)
	assert.Equal(t, 910, usage[0].TotalCompletion)
	assert.Equal(t, 2, usage[0].TotalExecution)

	removed, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	c.ObserveGeneration(shared.AgentMeta{
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20, Model: "m"},
		Latency: time.Second,
	}, "success")
	c.ObserveGeneration(shared.AgentMeta{}, "failure")
	c.ObserveBusy()
	c.ObserveHTTP("POST", "/api/plans", 200, 50*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("failure")))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.tokens.WithLabelValues("m", "completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.busyRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/api/plans", "200")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "ecochef_generations_total")
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), make([]byte, 2048), 0644))

	h := GetSysHealth(dir, time.Now().Add(-time.Minute))
	assert.Equal(t, int64(2048), h.DataDiskBytes)
	assert.Equal(t, "2.0 KiB", h.DataDiskSize)
	assert.Greater(t, h.Goroutines, 0)
	assert.Equal(t, "1m0s", h.Uptime)

	missing := GetSysHealth(filepath.Join(dir, "nope"), time.Now())
	assert.Equal(t, "0 B", missing.DataDiskSize)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 MiB", formatBytes(3<<19))
	assert.Equal(t, "3.0 GiB", formatBytes(3<<30))
}
