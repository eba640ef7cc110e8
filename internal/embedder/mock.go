package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// MockProvider generates deterministic embeddings without a model. It is
// used in tests and when no real provider is reachable.
//
// Vectors are seeded from a hash of the text, so identical text always
// maps to the identical unit vector and different texts almost always
// differ.
type MockProvider struct {
	dimension int
	cache     *Cache
}

// NewMockProvider creates a deterministic mock embedder
func NewMockProvider(dimension int, cache *Cache) (*MockProvider, error) {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &MockProvider{dimension: dimension, cache: cache}, nil
}

func (m *MockProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text)
	if m.cache != nil {
		if emb, ok := m.cache.Get(hash); ok {
			return emb, nil
		}
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(req.Text))
	seed := float64(h.Sum64() % 100000)

	vector := make([]float32, m.dimension)
	for i := range vector {
		vector[i] = float32(math.Sin(seed*float64(i+1))*0.1 + 0.01)
	}

	emb := &Embedding{
		Vector:    NormalizeVector(vector),
		Dimension: m.dimension,
		Provider:  ProviderMock,
		Model:     "mock",
		Hash:      hash,
	}

	if m.cache != nil {
		m.cache.Set(hash, emb)
	}

	return emb, nil
}

func (m *MockProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderMock,
		Model:      "mock",
	}, nil
}

func (m *MockProvider) Dimension() int {
	return m.dimension
}

func (m *MockProvider) Provider() string {
	return ProviderMock
}

func (m *MockProvider) Model() string {
	return "mock"
}

func (m *MockProvider) Close() error {
	return nil
}
