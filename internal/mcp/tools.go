package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/filesense/filesense/internal/embedder"
	"github.com/filesense/filesense/internal/query"
	"github.com/filesense/filesense/internal/storage"
	"github.com/filesense/filesense/internal/vecindex"
	"github.com/filesense/filesense/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyIndex           = -32001 // No embedded chunks to index
	ErrorCodeIndexNotBuilt        = -32002 // Vector index unavailable
	ErrorCodeEncodingFailure      = -32003 // Embedding provider failed
	ErrorCodeEmptyQuery           = -32004 // Query parameter is empty
	ErrorCodeInvalidEmbeddingSize = -32005 // Vector length does not match dimension
	ErrorCodeChunkNotFound        = -32006 // Referenced chunk does not exist
)

// handleBuildIndex handles the build_index tool invocation
func (s *Server) handleBuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.BuildIndex(ctx)
	if err != nil {
		if errors.Is(err, vecindex.ErrEmptyIndex) {
			return nil, newMCPError(ErrorCodeEmptyIndex, "no embedded chunks to index", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "index build failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":         "built",
		"vectors_loaded": stats.Vectors,
		"dimension":      stats.Dimension,
		"index_type":     stats.IndexType,
	})), nil
}

// handleSearch handles the search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	queryText, ok := args["query"].(string)
	if !ok || queryText == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", 5)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	results, err := s.engine.SearchByText(ctx, queryText, topK)
	if err != nil {
		return nil, searchError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   queryText,
		"count":   len(results),
		"results": formatResults(results),
	})), nil
}

// handleSearchVector handles the search_vector tool invocation
func (s *Server) handleSearchVector(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	raw, ok := args["embedding"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "embedding parameter is required", map[string]interface{}{
			"param":  "embedding",
			"reason": "missing or empty",
		})
	}

	vector := make([]float32, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "embedding must contain only numbers", map[string]interface{}{
				"param": "embedding",
				"index": i,
			})
		}
		vector[i] = float32(f)
	}

	topK := getIntDefault(args, "top_k", 5)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	results, err := s.engine.SearchByVector(ctx, vector, topK)
	if err != nil {
		if errors.Is(err, query.ErrInvalidEmbeddingSize) {
			return nil, newMCPError(ErrorCodeInvalidEmbeddingSize, "embedding has the wrong dimension", map[string]interface{}{
				"got": len(vector),
			})
		}
		return nil, searchError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"results": formatResults(results),
	})), nil
}

// handleIndexStats handles the index_stats tool invocation
func (s *Server) handleIndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.IndexStats()
	if !stats.Built {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"status": "not_built",
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":             "built",
		"vectors":            stats.Vectors,
		"dimension":          stats.Dimension,
		"index_type":         stats.IndexType,
		"memory_estimate_mb": fmt.Sprintf("%.2f", float64(stats.MemoryBytes)/(1024*1024)),
	})), nil
}

// handleEncodeText handles the encode_text tool invocation
func (s *Server) handleEncodeText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or empty",
		})
	}

	emb, err := s.engine.Encode(ctx, text)
	if err != nil {
		if errors.Is(err, embedder.ErrEncodingFailed) {
			return nil, newMCPError(ErrorCodeEncodingFailure, "failed to encode text", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "encoding failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"embedding": emb.Vector,
		"dimension": emb.Dimension,
		"provider":  emb.Provider,
		"model":     emb.Model,
	})), nil
}

// handleGetContext handles the get_context tool invocation
func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	chunkID := int64(getIntDefault(args, "chunk_id", 0))
	if chunkID <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk_id parameter is required", map[string]interface{}{
			"param":  "chunk_id",
			"reason": "missing or not positive",
		})
	}

	window := getIntDefault(args, "window", 2)
	if window < 0 || window > 10 {
		return nil, newMCPError(ErrorCodeInvalidParams, "window must be between 0 and 10", map[string]interface{}{
			"param": "window",
			"value": window,
		})
	}

	chunks, err := s.engine.Context(ctx, chunkID, window)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeChunkNotFound, "chunk not found", map[string]interface{}{
				"chunk_id": chunkID,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "context lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(chunks))
	for i, c := range chunks {
		items[i] = map[string]interface{}{
			"chunk_id":     c.ID,
			"ordinal":      c.Ordinal,
			"start_offset": c.StartOffset,
			"end_offset":   c.EndOffset,
			"content":      c.Content,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"chunk_id": chunkID,
		"window":   window,
		"chunks":   items,
	})), nil
}

// handleScanStatus handles the scan_status tool invocation
func (s *Server) handleScanStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 5
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		limit = getIntDefault(args, "limit", 5)
		if limit < 1 || limit > 50 {
			return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
				"param": "limit",
				"value": limit,
			})
		}
	}

	sessions, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list sessions", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(sessions))
	for i, sess := range sessions {
		item := map[string]interface{}{
			"id":             sess.ID,
			"started_at":     sess.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			"status":         string(sess.Status),
			"interrupted":    sess.Interrupted,
			"files_scanned":  sess.FilesScanned,
			"files_indexed":  sess.FilesIndexed,
			"chunks_created": sess.ChunksCreated,
			"errors":         sess.ErrorCount,
		}
		if sess.FinishedAt != nil {
			item["finished_at"] = sess.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		items[i] = item
	}

	state := "not_running"
	if s.scan != nil {
		state = string(s.scan.State())
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"scheduler_state": state,
		"sessions":        items,
	})), nil
}

// Helper functions

// searchError maps engine search failures to MCP errors
func searchError(err error) error {
	switch {
	case errors.Is(err, query.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, "query is empty", nil)
	case errors.Is(err, vecindex.ErrNotBuilt), errors.Is(err, vecindex.ErrBuildTimeout):
		return newMCPError(ErrorCodeIndexNotBuilt, "vector index unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, embedder.ErrEncodingFailed):
		return newMCPError(ErrorCodeEncodingFailure, "failed to encode query", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// formatResults converts search results to the wire shape
func formatResults(results []*types.SearchResult) []map[string]interface{} {
	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		item := map[string]interface{}{
			"rank":             r.Rank,
			"chunk_id":         r.ChunkID,
			"distance":         r.Distance,
			"similarity_score": r.Similarity,
			"source":           string(r.Source),
			"ordinal":          r.Ordinal,
			"content":          r.Content,
		}
		if r.File != nil {
			item["file_path"] = r.File.Path
			item["start_offset"] = r.File.StartOffset
			item["end_offset"] = r.File.EndOffset
		}
		out[i] = item
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
