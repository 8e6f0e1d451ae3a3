package graph

// Entity is a named, typed node in the knowledge graph owning zero or more
// observations. Name is the sole identity key: creating an entity with an
// existing name merges rather than duplicating.
type Entity struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Observations []string `json:"observations,omitempty"`
}

// Relation is a typed directed edge between two entities. On deletion an
// empty Type means "all edges between the pair regardless of type".
type Relation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"relationType"`
}

// Graph is the read-time aggregate of matched entities plus every relation
// touching any matched entity. It is constructed on demand, never stored.
type Graph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// EntityAck is the per-item result of a create_entities batch.
type EntityAck struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// RelationAck is the per-item result of a create_relations batch.
type RelationAck struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Type    string `json:"relationType"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// ObservationRequest asks to attach contents to one entity.
type ObservationRequest struct {
	EntityName string   `json:"entityName"`
	Contents   []string `json:"contents"`
}

// ObservationResult reports the contents actually added to one entity:
// the set difference against what was already present.
type ObservationResult struct {
	EntityName string   `json:"entityName"`
	Added      []string `json:"addedObservations"`
	Error      string   `json:"error,omitempty"`
}

// ObservationDeletion asks to remove exact observation contents from one entity.
type ObservationDeletion struct {
	EntityName   string   `json:"entityName"`
	Observations []string `json:"observations"`
}

// ReadFilter narrows read_graph. Zero values mean match-all with the
// default limit.
type ReadFilter struct {
	Limit      int
	EntityType string
}

// Stats are the record counts reported by health_check.
type Stats struct {
	Entities     int64 `json:"entities"`
	Relations    int64 `json:"relations"`
	Observations int64 `json:"observations"`
}
