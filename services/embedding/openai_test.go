package embedsvc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core"
	logsvc "github.com/trezcool/mentora/services/logger"
)

func init() {
	retryDelay = time.Millisecond
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *OpenAIEmbedder {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &core.Config{Env: "TEST", TestMode: true}
	conf.OpenAI = core.OpenAIConfig{
		ApiKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        timeout,
		MaxRetries:     2,
	}
	return NewOpenAIEmbedder(conf, logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf))
}

func writeEmbedding(w http.ResponseWriter, vec []float32) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"data": []map[string]interface{}{
			{"object": "embedding", "embedding": vec, "index": 0},
		},
		"model": "text-embedding-3-small",
		"usage": map[string]int{"prompt_tokens": 3, "total_tokens": 3},
	})
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error": {"message": "try later", "type": "server_error"}}`))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var body struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEmbedding(w, []float32{0.1, 0.2, 0.3})
	}, time.Second)

	vec, err := embedder.Embed(context.Background(), "Job Specialty: psychiatry")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"Job Specialty: psychiatry"}, body.Input)
	assert.Equal(t, "text-embedding-3-small", body.Model)
}

func TestOpenAIEmbedder_Retries(t *testing.T) {
	var calls int32
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeError(w, http.StatusTooManyRequests)
			return
		}
		writeEmbedding(w, []float32{1, 0})
	}, time.Second)

	vec, err := embedder.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedder_Failures(t *testing.T) {
	t.Run("server errors exhaust retries", func(t *testing.T) {
		var calls int32
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			writeError(w, http.StatusBadGateway)
		}, time.Second)

		_, err := embedder.Embed(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			writeError(w, http.StatusUnauthorized)
		}, time.Second)

		_, err := embedder.Embed(context.Background(), "text")
		assert.True(t, core.IsUpstream(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("empty data", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			writeEmbedding(w, []float32{})
		}, time.Second)

		_, err := embedder.Embed(context.Background(), "text")
		assert.True(t, core.IsUpstream(err))
	})

	t.Run("timeout", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			writeEmbedding(w, []float32{1})
		}, 20*time.Millisecond)
		embedder.maxRetries = 0

		_, err := embedder.Embed(context.Background(), "text")
		require.True(t, core.IsUpstream(err))
		upErr := err.(*core.UpstreamError)
		assert.True(t, upErr.Timeout)
	})
}
