// Package mcp provides an MCP (Model Context Protocol) server for the engram
// memory layer.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/memory"
	"github.com/papercomputeco/engram/pkg/utils"
	"github.com/papercomputeco/engram/pkg/vector"
)

// Memory is the slice of the memory manager the MCP tools drive.
type Memory interface {
	Recall(ctx context.Context, prompt string) string
	Store(ctx context.Context, text string, category memory.Category) (memory.Record, error)
	Search(ctx context.Context, query string, limit int) ([]vector.Hit, error)
	Forget(ctx context.Context, id, query string) (memory.ForgetResult, error)
}

type Config struct {
	// Memory serves the memory tool calls
	Memory Memory

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config     Config
	mcpServer  *mcp.Server
	handler    *mcp.StreamableHTTPHandler
	httpServer *http.Server
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "engram",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		s.handler = newStreamableHandler(mcpServer)
		return s, nil
	}

	if c.Memory == nil {
		return nil, errors.New("memory manager is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recallToolName,
		Description: recallDescription,
	}, s.handleRecall)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        storeToolName,
		Description: storeDescription,
	}, s.handleStore)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        forgetToolName,
		Description: forgetDescription,
	}, s.handleForget)

	s.mcpServer = mcpServer
	s.handler = newStreamableHandler(mcpServer)

	return s, nil
}

// newStreamableHandler wraps the MCP server in a stateless streamable HTTP
// transport.
func newStreamableHandler(mcpServer *mcp.Server) *mcp.StreamableHTTPHandler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves the MCP handler on the given address until Shutdown or a
// listener error. The MCP go-sdk handler is net/http based, so this wraps
// a standard http.Server rather than the fiber app the REST API uses.
func (s *Server) Run(listen string) error {
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the MCP HTTP server.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
