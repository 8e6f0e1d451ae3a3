package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/graphmemd/internal/auth"
	"github.com/fyrsmithlabs/graphmemd/internal/graph"
)

// toolScopes maps each tool to the scope it requires. Admin sessions pass
// every check.
var toolScopes = map[string]auth.Scope{
	"create_entities":     auth.ScopeWrite,
	"create_relations":    auth.ScopeWrite,
	"add_observations":    auth.ScopeWrite,
	"delete_entities":     auth.ScopeWrite,
	"delete_observations": auth.ScopeWrite,
	"delete_relations":    auth.ScopeWrite,
	"read_graph":          auth.ScopeRead,
	"search_nodes":        auth.ScopeRead,
	"find_nodes":          auth.ScopeRead,
	"health_check":        auth.ScopeAdmin,
}

// authorize checks the request session against the tool's required scope.
func (s *Server) authorize(ctx context.Context, tool string) error {
	session := auth.FromContext(ctx)
	if err := session.Authorize(toolScopes[tool]); err != nil {
		subject := ""
		if session != nil {
			subject = session.Identity.Subject
		}
		s.logger.Warn("tool authorization denied",
			zap.String("tool", tool),
			zap.String("subject", subject),
			zap.Error(err))
		return err
	}
	return nil
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("invalid arguments: "+format, args...)
}

func (s *Server) registerTools() {
	s.registerWriteTools()
	s.registerReadTools()
	s.registerAdminTools()
}

type createEntitiesInput struct {
	Entities []graph.Entity `json:"entities" jsonschema:"required,Entities to create or update"`
}

type createEntitiesOutput struct {
	Results []graph.EntityAck `json:"results" jsonschema:"Per-entity acknowledgements"`
}

type createRelationsInput struct {
	Relations []graph.Relation `json:"relations" jsonschema:"required,Relations to create"`
}

type createRelationsOutput struct {
	Results []graph.RelationAck `json:"results" jsonschema:"Per-relation acknowledgements"`
}

type addObservationsInput struct {
	Observations []graph.ObservationRequest `json:"observations" jsonschema:"required,Observations to attach per entity"`
}

type addObservationsOutput struct {
	Results []graph.ObservationResult `json:"results" jsonschema:"Contents actually added per entity"`
}

type deleteEntitiesInput struct {
	EntityNames []string `json:"entityNames" jsonschema:"required,Names of entities to delete"`
}

type deleteRelationsInput struct {
	Relations []graph.Relation `json:"relations" jsonschema:"required,Relations to delete; empty relationType matches all types"`
}

type deleteObservationsInput struct {
	Deletions []graph.ObservationDeletion `json:"deletions" jsonschema:"required,Observation contents to remove per entity"`
}

type deleteOutput struct {
	Deleted bool `json:"deleted" jsonschema:"True when the deletion completed"`
}

func (s *Server) registerWriteTools() {
	// create_entities
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_entities",
		Description: "Create or update entities in the knowledge graph with optional initial observations",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args createEntitiesInput) (*mcp.CallToolResult, createEntitiesOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "create_entities")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "create_entities")
			s.metrics.RecordInvocation(ctx, "create_entities", time.Since(start), toolErr)
		}()

		if len(args.Entities) == 0 {
			toolErr = validationErr("entities must not be empty")
			return nil, createEntitiesOutput{}, toolErr
		}
		for i, e := range args.Entities {
			if e.Name == "" {
				toolErr = validationErr("entities[%d].name is required", i)
				return nil, createEntitiesOutput{}, toolErr
			}
		}
		if toolErr = s.authorize(ctx, "create_entities"); toolErr != nil {
			return nil, createEntitiesOutput{}, toolErr
		}

		acks := s.store.CreateEntities(ctx, args.Entities)
		created := 0
		for _, ack := range acks {
			if ack.Created {
				created++
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Upserted %d entities (%d created)", len(acks), created)},
			},
		}, createEntitiesOutput{Results: acks}, nil
	})

	// create_relations
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_relations",
		Description: "Create typed directed relations between existing entities",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args createRelationsInput) (*mcp.CallToolResult, createRelationsOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "create_relations")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "create_relations")
			s.metrics.RecordInvocation(ctx, "create_relations", time.Since(start), toolErr)
		}()

		if len(args.Relations) == 0 {
			toolErr = validationErr("relations must not be empty")
			return nil, createRelationsOutput{}, toolErr
		}
		for i, r := range args.Relations {
			if r.Source == "" || r.Target == "" {
				toolErr = validationErr("relations[%d] requires source and target", i)
				return nil, createRelationsOutput{}, toolErr
			}
			if r.Type == "" {
				toolErr = validationErr("relations[%d].relationType is required", i)
				return nil, createRelationsOutput{}, toolErr
			}
		}
		if toolErr = s.authorize(ctx, "create_relations"); toolErr != nil {
			return nil, createRelationsOutput{}, toolErr
		}

		acks := s.store.CreateRelations(ctx, args.Relations)
		created := 0
		for _, ack := range acks {
			if ack.Created {
				created++
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Merged %d relations (%d created)", len(acks), created)},
			},
		}, createRelationsOutput{Results: acks}, nil
	})

	// add_observations
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_observations",
		Description: "Attach observation contents to existing entities, skipping duplicates",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args addObservationsInput) (*mcp.CallToolResult, addObservationsOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "add_observations")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "add_observations")
			s.metrics.RecordInvocation(ctx, "add_observations", time.Since(start), toolErr)
		}()

		if len(args.Observations) == 0 {
			toolErr = validationErr("observations must not be empty")
			return nil, addObservationsOutput{}, toolErr
		}
		for i, o := range args.Observations {
			if o.EntityName == "" {
				toolErr = validationErr("observations[%d].entityName is required", i)
				return nil, addObservationsOutput{}, toolErr
			}
			if len(o.Contents) == 0 {
				toolErr = validationErr("observations[%d].contents must not be empty", i)
				return nil, addObservationsOutput{}, toolErr
			}
		}
		if toolErr = s.authorize(ctx, "add_observations"); toolErr != nil {
			return nil, addObservationsOutput{}, toolErr
		}

		results := s.store.AddObservations(ctx, args.Observations)
		added := 0
		for _, r := range results {
			added += len(r.Added)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Added %d observations across %d entities", added, len(results))},
			},
		}, addObservationsOutput{Results: results}, nil
	})

	// delete_entities
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_entities",
		Description: "Delete entities with their observations and all touching relations",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args deleteEntitiesInput) (*mcp.CallToolResult, deleteOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "delete_entities")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "delete_entities")
			s.metrics.RecordInvocation(ctx, "delete_entities", time.Since(start), toolErr)
		}()

		if len(args.EntityNames) == 0 {
			toolErr = validationErr("entityNames must not be empty")
			return nil, deleteOutput{}, toolErr
		}
		if toolErr = s.authorize(ctx, "delete_entities"); toolErr != nil {
			return nil, deleteOutput{}, toolErr
		}

		if toolErr = s.store.DeleteEntities(ctx, args.EntityNames); toolErr != nil {
			return nil, deleteOutput{}, toolErr
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Deleted %d entities", len(args.EntityNames))},
			},
		}, deleteOutput{Deleted: true}, nil
	})

	// delete_observations
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_observations",
		Description: "Remove specific observation contents from entities",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args deleteObservationsInput) (*mcp.CallToolResult, deleteOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "delete_observations")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "delete_observations")
			s.metrics.RecordInvocation(ctx, "delete_observations", time.Since(start), toolErr)
		}()

		if len(args.Deletions) == 0 {
			toolErr = validationErr("deletions must not be empty")
			return nil, deleteOutput{}, toolErr
		}
		for i, d := range args.Deletions {
			if d.EntityName == "" {
				toolErr = validationErr("deletions[%d].entityName is required", i)
				return nil, deleteOutput{}, toolErr
			}
		}
		if toolErr = s.authorize(ctx, "delete_observations"); toolErr != nil {
			return nil, deleteOutput{}, toolErr
		}

		if toolErr = s.store.DeleteObservations(ctx, args.Deletions); toolErr != nil {
			return nil, deleteOutput{}, toolErr
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Deleted observations from %d entities", len(args.Deletions))},
			},
		}, deleteOutput{Deleted: true}, nil
	})

	// delete_relations
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_relations",
		Description: "Delete relations between entities; omit relationType to delete every edge between the pair",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args deleteRelationsInput) (*mcp.CallToolResult, deleteOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "delete_relations")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "delete_relations")
			s.metrics.RecordInvocation(ctx, "delete_relations", time.Since(start), toolErr)
		}()

		if len(args.Relations) == 0 {
			toolErr = validationErr("relations must not be empty")
			return nil, deleteOutput{}, toolErr
		}
		for i, r := range args.Relations {
			if r.Source == "" || r.Target == "" {
				toolErr = validationErr("relations[%d] requires source and target", i)
				return nil, deleteOutput{}, toolErr
			}
		}
		if toolErr = s.authorize(ctx, "delete_relations"); toolErr != nil {
			return nil, deleteOutput{}, toolErr
		}

		if toolErr = s.store.DeleteRelations(ctx, args.Relations); toolErr != nil {
			return nil, deleteOutput{}, toolErr
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Deleted %d relations", len(args.Relations))},
			},
		}, deleteOutput{Deleted: true}, nil
	})
}

type readGraphInput struct {
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum entities to return (default 100)"`
	EntityType string `json:"entityType,omitempty" jsonschema:"Only return entities of this type"`
}

type searchNodesInput struct {
	Query string `json:"query" jsonschema:"required,Full-text query over entity names types and observation content"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum entities to return (default 100)"`
}

type findNodesInput struct {
	Names []string `json:"names" jsonschema:"required,Exact entity names to retrieve"`
}

func (s *Server) registerReadTools() {
	// read_graph
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_graph",
		Description: "Read the knowledge graph, optionally filtered by entity type",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args readGraphInput) (*mcp.CallToolResult, graph.Graph, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "read_graph")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "read_graph")
			s.metrics.RecordInvocation(ctx, "read_graph", time.Since(start), toolErr)
		}()

		if args.Limit < 0 {
			toolErr = validationErr("limit must not be negative")
			return nil, graph.Graph{}, toolErr
		}
		if toolErr = s.authorize(ctx, "read_graph"); toolErr != nil {
			return nil, graph.Graph{}, toolErr
		}

		g, err := s.store.ReadGraph(ctx, graph.ReadFilter{Limit: args.Limit, EntityType: args.EntityType})
		if err != nil {
			toolErr = err
			return nil, graph.Graph{}, toolErr
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Graph contains %d entities and %d relations", len(g.Entities), len(g.Relations))},
			},
		}, *g, nil
	})

	// search_nodes
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Search entities by full-text query over names, types and observations",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchNodesInput) (*mcp.CallToolResult, graph.Graph, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "search_nodes")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "search_nodes")
			s.metrics.RecordInvocation(ctx, "search_nodes", time.Since(start), toolErr)
		}()

		if args.Query == "" {
			toolErr = validationErr("query is required")
			return nil, graph.Graph{}, toolErr
		}
		if args.Limit < 0 {
			toolErr = validationErr("limit must not be negative")
			return nil, graph.Graph{}, toolErr
		}
		if toolErr = s.authorize(ctx, "search_nodes"); toolErr != nil {
			return nil, graph.Graph{}, toolErr
		}

		g, err := s.store.SearchNodes(ctx, args.Query, args.Limit)
		if err != nil {
			toolErr = err
			return nil, graph.Graph{}, toolErr
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Found %d entities", len(g.Entities))},
			},
		}, *g, nil
	})

	// find_nodes
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_nodes",
		Description: "Retrieve specific entities by name with their relations",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args findNodesInput) (*mcp.CallToolResult, graph.Graph, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "find_nodes")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "find_nodes")
			s.metrics.RecordInvocation(ctx, "find_nodes", time.Since(start), toolErr)
		}()

		if len(args.Names) == 0 {
			toolErr = validationErr("names must not be empty")
			return nil, graph.Graph{}, toolErr
		}
		if toolErr = s.authorize(ctx, "find_nodes"); toolErr != nil {
			return nil, graph.Graph{}, toolErr
		}

		g, err := s.store.FindNodes(ctx, args.Names)
		if err != nil {
			toolErr = err
			return nil, graph.Graph{}, toolErr
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Found %d of %d entities", len(g.Entities), len(args.Names))},
			},
		}, *g, nil
	})
}

type healthCheckInput struct{}

type healthCheckOutput struct {
	Status    string       `json:"status" jsonschema:"healthy or degraded"`
	Store     string       `json:"store" jsonschema:"connected or unreachable"`
	Stats     *graph.Stats `json:"stats,omitempty" jsonschema:"Record counts when the store is reachable"`
	Subject   string       `json:"subject" jsonschema:"Authenticated subject"`
	Scopes    []string     `json:"scopes" jsonschema:"Scopes granted to the session"`
	CheckedAt string       `json:"checkedAt" jsonschema:"RFC 3339 timestamp of the probe"`
}

func (s *Server) registerAdminTools() {
	// health_check. An unreachable store is reported in the result, not as
	// a tool error: the point of the probe is to describe degradation.
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "health_check",
		Description: "Report service health, store connectivity and record counts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args healthCheckInput) (*mcp.CallToolResult, healthCheckOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "health_check")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "health_check")
			s.metrics.RecordInvocation(ctx, "health_check", time.Since(start), toolErr)
		}()

		if toolErr = s.authorize(ctx, "health_check"); toolErr != nil {
			return nil, healthCheckOutput{}, toolErr
		}

		session := auth.FromContext(ctx)
		out := healthCheckOutput{
			Status:    "healthy",
			Store:     "connected",
			Subject:   session.Identity.Subject,
			Scopes:    session.Scopes.Strings(),
			CheckedAt: time.Now().UTC().Format(time.RFC3339),
		}

		if !s.store.VerifyConnection(ctx) {
			out.Status = "degraded"
			out.Store = "unreachable"
		} else if stats, err := s.store.Stats(ctx); err != nil {
			s.logger.Warn("stats query failed during health check", zap.Error(err))
			out.Status = "degraded"
		} else {
			out.Stats = stats
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Status: %s, store: %s", out.Status, out.Store)},
			},
		}, out, nil
	})
}
