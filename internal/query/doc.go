// Package query implements the search operations over the chunk store,
// the embedding provider and the vector index.
//
// Text queries run both retrieval paths: the query is embedded and
// matched against the vector index, and the raw text is matched against
// the FTS5 keyword index. The merged ranking puts chunks found by both
// paths first (ordered by vector similarity), then vector-only hits,
// then keyword-only hits. Raw vector queries skip the encode step and
// return vector hits alone.
package query
