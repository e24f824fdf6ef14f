// Package server runs the stdio MCP session that exposes the filesystem
// operation catalogue. The wire protocol (framing, initialize handshake,
// tools/list, tools/call) comes from mcp-go; this package wires the catalogue
// and the dispatcher into it.
//
// Stdout carries protocol frames only. All diagnostics go to the injected
// logger, which callers must point at stderr or a file.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"fsgate/internal/catalog"
	"fsgate/internal/fsops"
)

// Server is one filesystem MCP server instance. The dispatcher and the
// catalogue are fixed at construction; every session served by this instance
// sees the same operations.
type Server struct {
	mcp        *mcpserver.MCPServer
	dispatcher *fsops.Dispatcher
	logger     zerolog.Logger
}

// New builds a server advertising the static catalogue, with all operation
// execution delegated to the given dispatcher.
func New(name, version string, dispatcher *fsops.Dispatcher, logger zerolog.Logger) *Server {
	s := &Server{
		mcp:        mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(false)),
		dispatcher: dispatcher,
		logger:     logger,
	}

	for _, op := range catalog.Operations() {
		s.mcp.AddTool(op.Tool(), s.handleCall(op.Name))
	}

	logger.Info().
		Str("name", name).
		Str("version", version).
		Str("root", dispatcher.Root().Path()).
		Int("operations", len(catalog.Operations())).
		Msg("filesystem server initialized")

	return s
}

// handleCall adapts one catalogued operation to an mcp-go tool handler.
// Dispatch never returns a Go error, so the session survives every operation
// failure; failures travel back as error results on the response channel.
func (s *Server) handleCall(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := s.dispatcher.Dispatch(fsops.Request{
			Operation: name,
			Args:      req.GetArguments(),
		})
		if res.Failed() {
			s.logger.Warn().
				Str("operation", name).
				Str("code", string(res.Err.Code)).
				Msg(res.Err.Detail)
			return mcp.NewToolResultError(res.Err.Error()), nil
		}
		s.logger.Debug().
			Str("operation", name).
			Int("payload_bytes", len(res.Payload)).
			Msg("operation completed")
		return mcp.NewToolResultText(res.Payload), nil
	}
}

// ServeStdio blocks serving one session over the process stdio pair, until
// the inbound stream closes or an unrecoverable protocol error occurs.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("serving on stdio")
	if err := mcpserver.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("stdio session: %w", err)
	}
	return nil
}
