package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"frpengine/internal/document"
	"frpengine/internal/frp"
	"frpengine/internal/store"
)

// Tool is one registered MCP tool.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Server exposes level lookup, prompt composition and pipeline runs as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	tools     []Tool
	log       *zap.Logger
}

// Option configures a Server.
type Option func(*options)

type options struct {
	docs *document.Root
}

// WithDocuments lets frp_run and frp_compose read input_path from root.
func WithDocuments(root *document.Root) Option {
	return func(o *options) { o.docs = root }
}

// NewServer registers the default tool set. st may be nil, in which case
// runs are not persisted and frp_get is not offered.
func NewServer(version string, p *frp.Pipeline, st store.Store, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{
		mcpServer: server.NewMCPServer("frp", version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		log: log,
	}
	s.Register(levelsTool{}, composeTool{docs: o.docs})
	s.Register(&runTool{pipeline: p, store: st, docs: o.docs, log: log, now: time.Now})
	if st != nil {
		s.Register(&getTool{store: st})
	}
	return s
}

// Register adds tools to the underlying MCP server.
func (s *Server) Register(tools ...Tool) {
	for _, t := range tools {
		if t == nil {
			continue
		}
		s.tools = append(s.tools, t)
		s.mcpServer.AddTool(t.Definition(), t.Handle)
	}
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []Tool {
	return append([]Tool(nil), s.tools...)
}

// ServeStdio serves on stdin and stdout until the peer disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("mcp server listening on stdio", zap.Int("tools", len(s.tools)))
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mcp server listening (sse)", zap.String("addr", addr))
		errCh <- sse.Start(addr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mcp: shutdown sse: %w", err)
		}
		return nil
	}
}

// toolError turns a failure into a tool result the client can read.
func toolError(err error) *mcp.CallToolResult {
	kind := "internal"
	switch {
	case errors.Is(err, frp.ErrValidation):
		kind = "validation"
	case errors.Is(err, frp.ErrConfiguration):
		kind = "configuration"
	case errors.Is(err, frp.ErrDependency):
		kind = "dependency"
	case errors.Is(err, frp.ErrGeneration):
		kind = "generation"
	case errors.Is(err, store.ErrNotFound):
		kind = "not_found"
	}
	return mcp.NewToolResultError(kind + ": " + err.Error())
}
