package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// buildIndexTool returns the tool definition for build_index
func buildIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "build_index",
		Description: "Load all embedded chunks into the in-memory vector index",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search indexed files with a natural language query (vector + keyword)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query text",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchVectorTool returns the tool definition for search_vector
func searchVectorTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_vector",
		Description: "Search with a pre-computed embedding vector instead of text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"embedding": map[string]interface{}{
					"type":        "array",
					"description": "Query embedding, must match the configured dimension",
					"items": map[string]interface{}{
						"type": "number",
					},
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"embedding"},
		},
	}
}

// indexStatsTool returns the tool definition for index_stats
func indexStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_stats",
		Description: "Report vector index size, dimension, type and memory use",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// encodeTextTool returns the tool definition for encode_text
func encodeTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "encode_text",
		Description: "Embed a text and return the raw vector",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to embed",
				},
			},
			Required: []string{"text"},
		},
	}
}

// getContextTool returns the tool definition for get_context
func getContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_context",
		Description: "Return a chunk with its neighboring chunks from the same file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chunk_id": map[string]interface{}{
					"type":        "integer",
					"description": "Chunk id from a search result",
				},
				"window": map[string]interface{}{
					"type":        "integer",
					"description": "Number of neighboring chunks on each side",
					"default":     2,
					"minimum":     0,
					"maximum":     10,
				},
			},
			Required: []string{"chunk_id"},
		},
	}
}

// scanStatusTool returns the tool definition for scan_status
func scanStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "scan_status",
		Description: "Report the background indexer state and recent indexing sessions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of recent sessions to include",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
			},
		},
	}
}
