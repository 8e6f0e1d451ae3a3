package graph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/graphmemd/internal/sanitize"
)

const (
	// fulltextIndex is the full-text index covering entity name/type and
	// observation content. Created by EnsureSchema.
	fulltextIndex = "entitySearch"

	// DefaultLimit bounds read/search results when the caller does not
	// supply a limit.
	DefaultLimit = 100
)

// runner executes a single Cypher statement inside its own session-scoped
// managed transaction. The production implementation lives in neo4j.go;
// tests substitute a fake.
type runner interface {
	ExecRead(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	ExecWrite(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	Verify(ctx context.Context) error
	Close(ctx context.Context) error
}

// Store translates domain operations into Cypher against the backing store.
type Store struct {
	runner runner
	logger *zap.Logger
}

func newStore(r runner, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{runner: r, logger: logger}
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

const createEntityCypher = `
OPTIONAL MATCH (existing:Entity {name: $name})
WITH count(existing) = 0 AS wasCreated
MERGE (e:Entity {name: $name})
ON CREATE SET e.createdAt = datetime()
SET e.entityType = $type
FOREACH (content IN $observations |
  MERGE (e)-[:HAS_OBSERVATION]->(o:Observation {content: content})
  ON CREATE SET o.createdAt = datetime()
)
RETURN e.name AS name, e.entityType AS type, wasCreated AS created`

// CreateEntities upserts each entity by name: existing entities get their
// type updated and any net-new observations attached, absent ones are
// created. Items are applied independently; a failed item does not roll
// back prior successes.
func (s *Store) CreateEntities(ctx context.Context, entities []Entity) []EntityAck {
	acks := make([]EntityAck, 0, len(entities))
	for _, entity := range entities {
		ack := EntityAck{Name: entity.Name, Type: entity.Type}
		records, err := s.runner.ExecWrite(ctx, createEntityCypher, map[string]any{
			"name":         entity.Name,
			"type":         entity.Type,
			"observations": toAnySlice(entity.Observations),
		})
		switch {
		case err != nil:
			ack.Error = storeErr("entity upsert", err).Error()
			s.logger.Warn("entity upsert failed", zap.String("entity", entity.Name), zap.Error(err))
		case len(records) > 0:
			ack.Created = recordBool(records[0], "created")
		}
		acks = append(acks, ack)
	}
	return acks
}

const createRelationCypher = `
MATCH (a:Entity {name: $source}), (b:Entity {name: $target})
OPTIONAL MATCH (a)-[existing:%[1]s]->(b)
WITH a, b, count(existing) = 0 AS wasCreated
MERGE (a)-[r:%[1]s]->(b)
ON CREATE SET r.createdAt = datetime()
RETURN wasCreated AS created`

// CreateRelations merge-creates each edge after resolving both endpoints by
// name. A relation whose source or target is absent fails for that item
// only; re-creating an identical triple is a no-op.
func (s *Store) CreateRelations(ctx context.Context, relations []Relation) []RelationAck {
	acks := make([]RelationAck, 0, len(relations))
	for _, rel := range relations {
		ack := RelationAck{Source: rel.Source, Target: rel.Target, Type: rel.Type}

		relType, err := sanitize.RelationType(rel.Type)
		if err != nil {
			ack.Error = fmt.Sprintf("invalid relationType %q", rel.Type)
			acks = append(acks, ack)
			continue
		}

		cypher := fmt.Sprintf(createRelationCypher, relType)
		records, err := s.runner.ExecWrite(ctx, cypher, map[string]any{
			"source": rel.Source,
			"target": rel.Target,
		})
		switch {
		case err != nil:
			ack.Error = storeErr("relation merge", err).Error()
			s.logger.Warn("relation merge failed",
				zap.String("source", rel.Source),
				zap.String("target", rel.Target),
				zap.Error(err))
		case len(records) == 0:
			// MATCH on both endpoints produced nothing: at least one is
			// missing, and relation creation never auto-creates entities.
			ack.Error = (&NotFoundError{Entity: rel.Source + " or " + rel.Target}).Error()
		default:
			ack.Created = recordBool(records[0], "created")
		}
		acks = append(acks, ack)
	}
	return acks
}

const addObservationsCypher = `
MATCH (e:Entity {name: $name})
WITH e, [c IN $contents WHERE NOT (e)-[:HAS_OBSERVATION]->(:Observation {content: c})] AS fresh
FOREACH (content IN fresh |
  MERGE (e)-[:HAS_OBSERVATION]->(o:Observation {content: content})
  ON CREATE SET o.createdAt = datetime()
)
RETURN fresh AS added`

// AddObservations attaches only the contents not already present on each
// entity and reports the actually-added subset per entity. Contents are
// deduplicated within each request so a repeated string is counted once;
// MERGE keeps attachment idempotent under concurrent writers.
func (s *Store) AddObservations(ctx context.Context, requests []ObservationRequest) []ObservationResult {
	results := make([]ObservationResult, 0, len(requests))
	for _, req := range requests {
		res := ObservationResult{EntityName: req.EntityName, Added: []string{}}
		records, err := s.runner.ExecWrite(ctx, addObservationsCypher, map[string]any{
			"name":     req.EntityName,
			"contents": toAnySlice(dedupeStrings(req.Contents)),
		})
		switch {
		case err != nil:
			res.Error = storeErr("observation attach", err).Error()
			s.logger.Warn("observation attach failed", zap.String("entity", req.EntityName), zap.Error(err))
		case len(records) == 0:
			res.Error = (&NotFoundError{Entity: req.EntityName}).Error()
		default:
			res.Added = recordStrings(records[0], "added")
		}
		results = append(results, res)
	}
	return results
}

const deleteEntitiesCypher = `
UNWIND $names AS name
MATCH (e:Entity {name: name})
OPTIONAL MATCH (e)-[:HAS_OBSERVATION]->(o:Observation)
DETACH DELETE e, o`

// DeleteEntities detach-deletes each named entity together with all
// observations it owns and every relation touching it. Missing names are
// no-ops, not errors.
func (s *Store) DeleteEntities(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := s.runner.ExecWrite(ctx, deleteEntitiesCypher, map[string]any{
		"names": toAnySlice(names),
	})
	if err != nil {
		return storeErr("entity delete", err)
	}
	return nil
}

const deleteObservationsCypher = `
MATCH (e:Entity {name: $name})-[:HAS_OBSERVATION]->(o:Observation)
WHERE o.content IN $contents
DETACH DELETE o`

// DeleteObservations removes observations with exactly matching content
// under each entity. Best-effort across items; the first error is joined
// with the rest and returned after the whole batch has been attempted.
func (s *Store) DeleteObservations(ctx context.Context, deletions []ObservationDeletion) error {
	var errs []error
	for _, del := range deletions {
		_, err := s.runner.ExecWrite(ctx, deleteObservationsCypher, map[string]any{
			"name":     del.EntityName,
			"contents": toAnySlice(del.Observations),
		})
		if err != nil {
			errs = append(errs, storeErr("observation delete", err))
		}
	}
	return errors.Join(errs...)
}

const (
	deleteRelationTypedCypher = `
MATCH (a:Entity {name: $source})-[r:%s]->(b:Entity {name: $target})
DELETE r`

	deleteRelationAnyCypher = `
MATCH (a:Entity {name: $source})-[r]->(b:Entity {name: $target})
DELETE r`
)

// DeleteRelations deletes edges matching (source, target). When a relation
// carries a type only matching-type edges go; when the type is omitted
// every edge between the pair is deleted regardless of type.
func (s *Store) DeleteRelations(ctx context.Context, relations []Relation) error {
	var errs []error
	for _, rel := range relations {
		cypher := deleteRelationAnyCypher
		if rel.Type != "" {
			relType, err := sanitize.RelationType(rel.Type)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid relationType %q", rel.Type))
				continue
			}
			cypher = fmt.Sprintf(deleteRelationTypedCypher, relType)
		}
		_, err := s.runner.ExecWrite(ctx, cypher, map[string]any{
			"source": rel.Source,
			"target": rel.Target,
		})
		if err != nil {
			errs = append(errs, storeErr("relation delete", err))
		}
	}
	return errors.Join(errs...)
}

// searchCypher is the one query shape behind read_graph, search_nodes and
// find_nodes: a full-text lookup whose hits (entities directly, or
// observations mapped to their owning entity) are returned with their
// observations and every touching relation.
const searchCypher = `
CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
OPTIONAL MATCH (owner:Entity)-[:HAS_OBSERVATION]->(node)
WITH coalesce(owner, node) AS e, score
WHERE e:Entity AND ($entityType = '' OR e.entityType = $entityType)
WITH e, max(score) AS score
ORDER BY score DESC
LIMIT $limit
RETURN e.name AS name,
       e.entityType AS type,
       [(e)-[:HAS_OBSERVATION]->(o:Observation) | o.content] AS observations,
       [(e)-[r]->(t:Entity) | {source: e.name, target: t.name, relationType: type(r)}] AS outgoing,
       [(t:Entity)-[r]->(e) | {source: t.name, target: e.name, relationType: type(r)}] AS incoming`

// ReadGraph returns the knowledge graph view for a match-all query,
// optionally narrowed by entity type.
func (s *Store) ReadGraph(ctx context.Context, filter ReadFilter) (*Graph, error) {
	return s.query(ctx, "*", filter.EntityType, filter.Limit)
}

// SearchNodes runs the caller's query verbatim against the full-text index.
// Results are ordered by relevance score descending.
func (s *Store) SearchNodes(ctx context.Context, query string, limit int) (*Graph, error) {
	return s.query(ctx, query, "", limit)
}

// FindNodes returns the named entities and their relations. The name list
// becomes an OR-joined exact-phrase query against the same index.
func (s *Store) FindNodes(ctx context.Context, names []string) (*Graph, error) {
	if len(names) == 0 {
		return &Graph{Entities: []Entity{}, Relations: []Relation{}}, nil
	}
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = strconv.Quote(name)
	}
	return s.query(ctx, strings.Join(quoted, " OR "), "", len(names))
}

func (s *Store) query(ctx context.Context, query, entityType string, limit int) (*Graph, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	records, err := s.runner.ExecRead(ctx, searchCypher, map[string]any{
		"index":      fulltextIndex,
		"query":      query,
		"entityType": entityType,
		"limit":      limit,
	})
	if err != nil {
		return nil, storeErr("graph query", err)
	}

	g := &Graph{Entities: []Entity{}, Relations: []Relation{}}
	seen := make(map[Relation]struct{})
	for _, record := range records {
		entity := Entity{
			Name:         recordString(record, "name"),
			Type:         recordString(record, "type"),
			Observations: recordStrings(record, "observations"),
		}
		g.Entities = append(g.Entities, entity)

		for _, key := range []string{"outgoing", "incoming"} {
			for _, rel := range recordRelations(record, key) {
				if _, dup := seen[rel]; dup {
					continue
				}
				seen[rel] = struct{}{}
				g.Relations = append(g.Relations, rel)
			}
		}
	}
	return g, nil
}

// VerifyConnection is a lightweight reachability probe. It never returns an
// error: failures are reported as false and logged.
func (s *Store) VerifyConnection(ctx context.Context) bool {
	if err := s.runner.Verify(ctx); err != nil {
		s.logger.Warn("store connectivity probe failed", zap.Error(err))
		return false
	}
	return true
}

const statsCypher = `
RETURN count{ (:Entity) } AS entities,
       count{ (:Entity)-[]->(:Entity) } AS relations,
       count{ (:Observation) } AS observations`

// Stats returns record counts for health reporting.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.runner.ExecRead(ctx, statsCypher, nil)
	if err != nil {
		return nil, storeErr("stats query", err)
	}
	if len(records) == 0 {
		return &Stats{}, nil
	}
	return &Stats{
		Entities:     recordInt(records[0], "entities"),
		Relations:    recordInt(records[0], "relations"),
		Observations: recordInt(records[0], "observations"),
	}, nil
}

// Record extraction helpers. The driver hands back loosely-typed values;
// these normalize them into domain shapes, tolerating absent keys.

func recordString(r *neo4j.Record, key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordBool(r *neo4j.Record, key string) bool {
	v, ok := r.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func recordInt(r *neo4j.Record, key string) int64 {
	v, ok := r.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return n
}

func recordStrings(r *neo4j.Record, key string) []string {
	v, ok := r.Get(key)
	if !ok {
		return []string{}
	}
	raw, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func recordRelations(r *neo4j.Record, key string) []Relation {
	v, ok := r.Get(key)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Relation, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rel := Relation{}
		rel.Source, _ = m["source"].(string)
		rel.Target, _ = m["target"].(string)
		rel.Type, _ = m["relationType"].(string)
		if rel.Source == "" || rel.Target == "" {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// dedupeStrings removes repeated values, keeping first-occurrence order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
