// Package mcp exposes the knowledge graph as MCP tools with metrics
// instrumentation.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls the graph store directly. Every tool handler authorizes the
// caller's session before touching the store; argument validation runs
// first so malformed requests are rejected the same way regardless of the
// caller's scopes.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/graphmemd/internal/graph"
)

// GraphStore is the persistence surface the tool handlers depend on.
// *graph.Store satisfies it.
type GraphStore interface {
	CreateEntities(ctx context.Context, entities []graph.Entity) []graph.EntityAck
	CreateRelations(ctx context.Context, relations []graph.Relation) []graph.RelationAck
	AddObservations(ctx context.Context, requests []graph.ObservationRequest) []graph.ObservationResult
	DeleteEntities(ctx context.Context, names []string) error
	DeleteObservations(ctx context.Context, deletions []graph.ObservationDeletion) error
	DeleteRelations(ctx context.Context, relations []graph.Relation) error
	ReadGraph(ctx context.Context, filter graph.ReadFilter) (*graph.Graph, error)
	SearchNodes(ctx context.Context, query string, limit int) (*graph.Graph, error)
	FindNodes(ctx context.Context, names []string) (*graph.Graph, error)
	VerifyConnection(ctx context.Context) bool
	Stats(ctx context.Context) (*graph.Stats, error)
}

// Server wires the graph store behind MCP tool handlers.
type Server struct {
	mcp     *mcp.Server
	store   GraphStore
	metrics *Metrics
	logger  *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "graphmemd")
	Name string

	// Version is the server version (default: "1.0.0")
	Version string

	// Logger for structured logging
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "graphmemd",
		Version: "1.0.0",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates the MCP server and registers all tools.
func NewServer(cfg *Config, store GraphStore) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if store == nil {
		return nil, fmt.Errorf("graph store is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		store:   store,
		metrics: NewMetrics(cfg.Logger),
		logger:  cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// HTTPHandler returns the streamable HTTP transport handler. Authentication
// happens outside: the handler trusts the session already present in the
// request context.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}
