// Package chunker divides file content into discrete chunks for embedding
// and search.
//
// The chunker prefers natural content boundaries so chunks stay readable:
// line endings for code, paragraph and sentence breaks for prose. Splitting
// is pure and deterministic, so re-chunking identical content always yields
// identical chunk boundaries and hashes.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.SplitFile("/path/to/notes.md", content)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("Chunk %d: bytes %d-%d\n",
//	        chunk.Ordinal, chunk.StartOffset, chunk.EndOffset)
//	}
//
// # Chunking Strategy
//
// Files classify as code or prose by extension:
//   - Code: split at line boundaries, targeting ~350 bytes per chunk
//   - Prose: split at paragraph boundaries, targeting ~800 bytes; an
//     oversized paragraph splits at sentence boundaries
//
// When no boundary falls inside the size window the chunk is cut at the
// limit on a rune boundary, so a minified file still chunks.
//
// Chunks are discrete: non-overlapping, in file order, and together they
// cover the file content end to end. Ordinals run 0..n-1 with no gaps,
// which makes ordinal-adjacent chunks exact file neighbors.
//
// # Content Hashing
//
// Each chunk carries a SHA-256 hash of its content:
//
//	chunk.ComputeContentHash()
//	// chunk.ContentHash is now [32]byte SHA-256 hash
//
// This enables incremental indexing by detecting unchanged chunks:
//
//	if storedHash == chunk.ContentHash {
//	    // Skip re-embedding this chunk
//	}
package chunker
