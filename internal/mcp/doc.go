// Package mcp implements the Model Context Protocol (MCP) server for FileSense.
//
// The MCP server exposes the search core to AI assistants over stdio:
//   - build_index: Load embedded chunks into the in-memory vector index
//   - search: Hybrid vector + keyword search with a text query
//   - search_vector: Search with a pre-computed embedding
//   - index_stats: Vector index size, dimension, type and memory use
//   - encode_text: Embed a text and return the raw vector
//   - get_context: A chunk plus its neighbors from the same file
//   - scan_status: Background indexer state and recent sessions
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is typically started via the serve command:
//
//	filesense serve
//
// It then listens on stdin for MCP protocol messages and writes
// responses to stdout.
//
// # Tool: search
//
//	Request:
//	{
//	  "name": "search",
//	  "arguments": {
//	    "query": "where is the retry logic",
//	    "top_k": 5
//	  }
//	}
//
//	Response:
//	{
//	  "query": "where is the retry logic",
//	  "count": 2,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "chunk_id": 412,
//	      "distance": 0.31,
//	      "similarity_score": 0.76,
//	      "source": "both",
//	      "file_path": "/home/user/notes/backoff.md",
//	      "ordinal": 3,
//	      "content": "..."
//	    }
//	  ]
//	}
//
// Results found by both retrieval paths rank first, then vector-only
// matches, then keyword-only matches.
//
// # Tool: get_context
//
// Expands a search hit to its surrounding chunks:
//
//	Request:
//	{
//	  "name": "get_context",
//	  "arguments": {"chunk_id": 412, "window": 2}
//	}
//
// The response lists up to window chunks on each side of the target,
// in ordinal order, all from the same file.
//
// # Errors
//
// Tool failures are returned as MCP errors with stable codes:
//
//	-32602 invalid parameters
//	-32603 internal error
//	-32001 no embedded chunks to index
//	-32002 vector index unavailable (not built or build timed out)
//	-32003 embedding provider failed
//	-32004 empty query
//	-32005 embedding has the wrong dimension
//	-32006 chunk not found
package mcp
