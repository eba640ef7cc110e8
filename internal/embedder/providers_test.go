package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOllama(t *testing.T, dimension int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vectors := make([][]float32, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dimension)
			for j := range vec {
				vec[j] = float32(i+1) * float32(j+1)
			}
			vectors[i] = vec
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      req.Model,
			"embeddings": vectors,
		})
	}))
}

func TestOllamaProvider_GenerateEmbedding(t *testing.T) {
	srv := fakeOllama(t, 384)
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "all-minilm", 384, NewCache(10))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 384, emb.Dimension)
	assert.Len(t, emb.Vector, 384)
	assert.Equal(t, ProviderOllama, emb.Provider)

	var sum float64
	for _, x := range emb.Vector {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4, "vectors must be unit length")
}

func TestOllamaProvider_GenerateBatch(t *testing.T) {
	srv := fakeOllama(t, 384)
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "all-minilm", 384, nil)
	require.NoError(t, err)

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"one", "two", "three"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Embeddings, 3)
}

func TestOllamaProvider_DimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, 128)
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "all-minilm", 384, nil)
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrEncodingFailed)
}

func TestOllamaProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "missing", 384, nil)
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrEncodingFailed)
}

func TestOllamaProvider_EmptyText(t *testing.T) {
	p, err := NewOllamaProvider("http://localhost:11434", "", 384, nil)
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "  "})
	assert.ErrorIs(t, err, ErrEncodingFailed)
}

func TestOllamaProvider_CacheHit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		vec := make([]float32, 384)
		vec[0] = 1
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      "all-minilm",
			"embeddings": [][]float32{vec},
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "all-minilm", 384, NewCache(10))
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "same"})
	require.NoError(t, err)
	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "same"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second request should hit the cache")
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "", 384, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestOpenAIProvider_GenerateEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		vec := make([]float32, 384)
		for i := range vec {
			vec[i] = 0.5
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"embedding": vec, "index": 0},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", srv.URL, "", 384, nil)
	require.NoError(t, err)

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 384, emb.Dimension)
	assert.Equal(t, ProviderOpenAI, emb.Provider)
}

func TestOpenAIProvider_RejectsRowCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vec := make([]float32, 8)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"embedding": vec, "index": 0},
				{"embedding": vec, "index": 1},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", srv.URL, "", 8, nil)
	require.NoError(t, err)

	_, err = p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"only one"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncodingFailed)
}

func TestOpenAIProvider_OrdersRowsByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first := []float32{1, 0, 0, 0}
		second := []float32{0, 1, 0, 0}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"embedding": second, "index": 1},
				{"embedding": first, "index": 0},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", srv.URL, "", 4, nil)
	require.NoError(t, err)

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"alpha", "beta"}})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 2)
	assert.InDelta(t, 1.0, float64(resp.Embeddings[0].Vector[0]), 1e-6)
	assert.InDelta(t, 1.0, float64(resp.Embeddings[1].Vector[1]), 1e-6)
}

func TestOpenAIProvider_RejectsDuplicateIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vec := []float32{1, 0, 0, 0}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"embedding": vec, "index": 0},
				{"embedding": vec, "index": 0},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", srv.URL, "", 4, nil)
	require.NoError(t, err)

	_, err = p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"alpha", "beta"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncodingFailed)
}
