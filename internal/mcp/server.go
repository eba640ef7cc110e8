package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/filesense/filesense/internal/query"
	"github.com/filesense/filesense/internal/scheduler"
	"github.com/filesense/filesense/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "filesense"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// ScanReporter exposes the background scheduler's current state to the
// scan_status tool.
type ScanReporter interface {
	State() scheduler.State
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *query.Engine
	store  storage.Storage
	scan   ScanReporter
	logger *zap.Logger
}

// NewServer creates an MCP server over an assembled query engine. The
// scan reporter may be nil when no background scheduler is running.
func NewServer(engine *query.Engine, store storage.Storage, scan ScanReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		engine: engine,
		store:  store,
		scan:   scan,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting",
		zap.String("name", ServerName), zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(buildIndexTool(), s.handleBuildIndex)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(searchVectorTool(), s.handleSearchVector)
	s.mcp.AddTool(indexStatsTool(), s.handleIndexStats)
	s.mcp.AddTool(encodeTextTool(), s.handleEncodeText)
	s.mcp.AddTool(getContextTool(), s.handleGetContext)
	s.mcp.AddTool(scanStatusTool(), s.handleScanStatus)
}
