package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Config carries the connection settings for the Neo4j backend.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewStore connects to Neo4j and returns the store adapter. The connection
// is not probed here; call VerifyConnection or EnsureSchema to exercise it.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return newStore(&neoRunner{driver: driver, database: cfg.Database}, logger), nil
}

// neoRunner executes one statement per session. Opening a session per
// statement keeps batch items independent and guarantees release on every
// exit path.
type neoRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *neoRunner) ExecRead(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func (r *neoRunner) ExecWrite(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func (r *neoRunner) Verify(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *neoRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var schemaStatements = []string{
	`CREATE CONSTRAINT entity_name_unique IF NOT EXISTS
FOR (e:Entity) REQUIRE e.name IS UNIQUE`,
	`CREATE FULLTEXT INDEX entitySearch IF NOT EXISTS
FOR (n:Entity|Observation) ON EACH [n.name, n.entityType, n.content]`,
}

// EnsureSchema creates the uniqueness constraint and full-text index the
// adapter depends on. Idempotent; safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.runner.ExecWrite(ctx, stmt, nil); err != nil {
			return storeErr("schema setup", err)
		}
	}
	s.logger.Info("graph schema ensured")
	return nil
}
