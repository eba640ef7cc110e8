// Package embedder generates vector embeddings for content chunks using
// various providers.
//
// The embedder supports multiple providers (Ollama, OpenAI-compatible
// endpoints, a deterministic mock) and provides batching, caching, retry,
// and error handling for production use.
//
// All providers return unit-length vectors of a fixed, configured
// dimension. A provider that cannot produce such a vector fails with an
// error wrapping ErrEncodingFailed instead of returning a partial result.
//
// # Basic Usage
//
//	emb, err := embedder.New(cfg.Embedding)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "notes from the meeting about quarterly planning",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// For throughput, use batch processing:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
//	for i, embedding := range resp.Embeddings {
//	    // Store embedding for chunk i
//	}
//
// Batching reduces round trips to the provider significantly compared to
// sequential single requests.
//
// # Caching
//
// The embedder includes an in-memory LRU cache keyed by content hash:
//
//	cache := embedder.NewCache(10000) // cache 10k embeddings
//
//	hash := embedder.ComputeHash(text)
//	if emb, ok := cache.Get(hash); ok {
//	    return emb // cache hit
//	}
//
// Identical chunk content shares one cached vector, so re-indexing a file
// whose chunks did not change never re-encodes them.
//
// # Error Handling
//
// Transient provider failures retry with exponential backoff. A request
// that still fails reports ErrEncodingFailed:
//
//	emb, err := embedder.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrEncodingFailed) {
//	    // Skip the chunk, count the error, keep indexing
//	}
//
// Empty and whitespace-only text is rejected with ErrEncodingFailed
// rather than encoded to a meaningless vector.
package embedder
