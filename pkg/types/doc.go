// Package types provides shared type definitions for the FileSense server.
//
// This package defines domain types used across multiple components of
// FileSense, including content chunks and search results.
//
// # Core Types
//
// Chunk represents a contiguous slice of file content for embedding and
// search. Chunks of a file are ordered by a 0-based ordinal and together
// cover the file without gaps or overlap:
//
//	chunk := &types.Chunk{
//	    Content:     text[start:end],
//	    Ordinal:     3,
//	    StartOffset: start,
//	    EndOffset:   end,
//	    Kind:        types.KindProse,
//	}
//	chunk.ComputeContentHash()
//
// # Search Results
//
// SearchResult combines chunk content with distance-based relevance scoring:
//
//	result := &types.SearchResult{
//	    ChunkID:    123,
//	    Rank:       1,
//	    Distance:   0.41,
//	    Similarity: 0.71,
//	    Content:    chunkContent,
//	}
//
// Similarity is derived from L2 distance as 1/(1+distance), so identical
// vectors score 1.0 and scores fall toward 0 as distance grows.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
