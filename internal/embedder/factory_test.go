package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/filesense/filesense/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MockProvider(t *testing.T) {
	emb, err := New(config.EmbeddingConfig{
		Provider:   "mock",
		Dimensions: 384,
		CacheSize:  100,
	})
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderMock, emb.Provider())
	assert.Equal(t, 384, emb.Dimension())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "faiss"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestMockProvider_Deterministic(t *testing.T) {
	m, err := NewMockProvider(384, nil)
	require.NoError(t, err)

	a, err := m.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "grocery list"})
	require.NoError(t, err)
	b, err := m.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "grocery list"})
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector)
}

func TestMockProvider_DistinctTexts(t *testing.T) {
	m, err := NewMockProvider(384, nil)
	require.NoError(t, err)

	a, err := m.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "alpha"})
	require.NoError(t, err)
	b, err := m.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "omega"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestMockProvider_UnitLength(t *testing.T) {
	m, err := NewMockProvider(384, nil)
	require.NoError(t, err)

	emb, err := m.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "measure me"})
	require.NoError(t, err)

	var sum float64
	for _, x := range emb.Vector {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockProvider_Batch(t *testing.T) {
	m, err := NewMockProvider(384, NewCache(10))
	require.NoError(t, err)

	resp, err := m.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"a", "b", "c"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)

	for _, emb := range resp.Embeddings {
		assert.Len(t, emb.Vector, 384)
	}
}

func TestMockProvider_RejectsEmptyText(t *testing.T) {
	m, err := NewMockProvider(384, nil)
	require.NoError(t, err)

	_, err = m.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: ""})
	assert.ErrorIs(t, err, ErrEncodingFailed)
}
