package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/filesense/filesense/internal/embedder"
	"github.com/filesense/filesense/internal/storage"
	"github.com/filesense/filesense/internal/vecindex"
	"github.com/filesense/filesense/pkg/types"
)

var (
	// ErrInvalidEmbeddingSize is returned when a raw query vector does not
	// match the configured embedding dimension.
	ErrInvalidEmbeddingSize = errors.New("query vector has wrong dimension")

	// ErrEmptyQuery is returned for blank search text.
	ErrEmptyQuery = errors.New("search query is empty")
)

// DefaultLimit is the result count used when the caller passes k <= 0.
const DefaultLimit = 10

// Engine joins the embedding provider, the vector index and the chunk
// store into the search operations the MCP tools expose.
type Engine struct {
	store    storage.Storage
	embedder embedder.Embedder
	index    *vecindex.Service
	logger   *zap.Logger
}

// NewEngine creates a query engine over the given components.
func NewEngine(store storage.Storage, emb embedder.Embedder, index *vecindex.Service, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		embedder: emb,
		index:    index,
		logger:   logger,
	}
}

// SearchByText embeds the query, runs vector and keyword search, and
// merges the two result sets. Results matching both criteria rank
// first (ordered by vector similarity), then vector-only matches, then
// keyword-only matches.
func (e *Engine) SearchByText(ctx context.Context, query string, k int) ([]*types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultLimit
	}

	emb, err := e.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vectorMatches, err := e.index.Search(ctx, emb.Vector, k)
	if err != nil {
		return nil, err
	}

	keywordMatches, err := e.store.SearchText(ctx, query, k)
	if err != nil {
		e.logger.Debug("keyword search failed, falling back to vector results",
			zap.Error(err))
		keywordMatches = nil
	}

	return e.assembleResults(ctx, vectorMatches, keywordMatches, k)
}

// SearchByVector searches with a caller-supplied embedding, skipping
// the encode step. The vector length must match the configured
// embedding dimension.
func (e *Engine) SearchByVector(ctx context.Context, vec []float32, k int) ([]*types.SearchResult, error) {
	if want := e.embedder.Dimension(); len(vec) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidEmbeddingSize, len(vec), want)
	}
	if k <= 0 {
		k = DefaultLimit
	}

	matches, err := e.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	return e.assembleResults(ctx, matches, nil, k)
}

// Context returns the chunk and its ordinal neighbors within the same
// file, up to window chunks on each side. Neighbors missing at file
// boundaries are simply absent.
func (e *Engine) Context(ctx context.Context, chunkID int64, window int) ([]*types.Chunk, error) {
	if window < 0 {
		return nil, fmt.Errorf("window must be non-negative, got %d", window)
	}

	rows, err := e.store.GetAdjacentChunks(ctx, chunkID, window)
	if err != nil {
		return nil, err
	}

	chunks := make([]*types.Chunk, len(rows))
	for i, row := range rows {
		chunks[i] = row.ToTypesChunk()
	}
	return chunks, nil
}

// BuildIndex forces a rebuild of the vector index and reports on the
// result.
func (e *Engine) BuildIndex(ctx context.Context) (*vecindex.Stats, error) {
	return e.index.Build(ctx)
}

// IndexStats reports on the current index snapshot without building.
func (e *Engine) IndexStats() vecindex.Stats {
	return e.index.Stats()
}

// Encode embeds a single text and returns the resulting vector.
func (e *Engine) Encode(ctx context.Context, text string) (*embedder.Embedding, error) {
	return e.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
}

// candidate carries the merge state for one chunk across the two result
// sets.
type candidate struct {
	chunkID    int64
	similarity float64
	distance   float64
	bm25       float64
	source     types.MatchSource
}

// assembleResults merges vector and keyword hits, loads chunk and file
// metadata, and produces ranked results.
func (e *Engine) assembleResults(ctx context.Context, vectorMatches []vecindex.Match, keywordMatches []storage.TextResult, k int) ([]*types.SearchResult, error) {
	byID := make(map[int64]*candidate, len(vectorMatches)+len(keywordMatches))

	for _, m := range vectorMatches {
		byID[m.ChunkID] = &candidate{
			chunkID:    m.ChunkID,
			similarity: m.Similarity,
			distance:   m.Distance,
			source:     types.MatchVector,
		}
	}
	for _, m := range keywordMatches {
		if c, ok := byID[m.ChunkID]; ok {
			c.source = types.MatchBoth
			c.bm25 = m.BM25Score
			continue
		}
		byID[m.ChunkID] = &candidate{
			chunkID: m.ChunkID,
			bm25:    m.BM25Score,
			source:  types.MatchKeyword,
		}
	}

	candidates := make([]*candidate, 0, len(byID))
	for _, c := range byID {
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ra, rb := sourcePriority(ca.source), sourcePriority(cb.source); ra != rb {
			return ra < rb
		}
		if ca.source == types.MatchKeyword {
			if ca.bm25 != cb.bm25 {
				return ca.bm25 > cb.bm25
			}
		} else if ca.similarity != cb.similarity {
			return ca.similarity > cb.similarity
		}
		return ca.chunkID < cb.chunkID
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.chunkID
	}

	rows, err := e.store.FetchResults(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load result metadata: %w", err)
	}

	results := make([]*types.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		row, ok := rows[c.chunkID]
		if !ok {
			// chunk deleted between index build and lookup
			continue
		}
		results = append(results, &types.SearchResult{
			ChunkID:    c.chunkID,
			Rank:       len(results) + 1,
			Distance:   c.distance,
			Similarity: c.similarity,
			Source:     c.source,
			File: &types.FileInfo{
				Path:        row.FilePath,
				StartOffset: row.StartOffset,
				EndOffset:   row.EndOffset,
			},
			Ordinal: row.Ordinal,
			Content: row.Content,
		})
	}
	return results, nil
}

func sourcePriority(s types.MatchSource) int {
	switch s {
	case types.MatchBoth:
		return 0
	case types.MatchVector:
		return 1
	default:
		return 2
	}
}
