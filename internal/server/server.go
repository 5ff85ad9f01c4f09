// Package server exposes the engine's collaborator interface over MCP, so
// settings UIs and automation agents can drive the menu bar without linking
// against the daemon.
package server

import (
	"fmt"
	"log/slog"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"menubard/internal/engine"
	"menubard/internal/logging"
	"menubard/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
}

// Server wraps the MCP server around one engine.
type Server struct {
	engine   *engine.Engine
	engineMu sync.Mutex
	mcp      *mcpserver.MCPServer
	log      *slog.Logger
}

// New creates the MCP server and registers the engine tools.
func New(e *engine.Engine) *Server {
	s := &Server{
		engine: e,
		log:    logging.ForComponent(logging.CompServer),
	}
	s.mcp = mcpserver.NewMCPServer("menubard", version.Version)
	s.registerTools()
	return s
}

// Serve blocks on the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.log.Info("mcp server listening", "port", cfg.Port)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}
