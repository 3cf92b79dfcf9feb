// Package driver talks to the graph database that can hold the catalog.
package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDriver runs Cypher against Memgraph or Neo4j. The catalog graph
// source only depends on this interface so tests can pass a fake.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

var _ GraphDriver = (*MemgraphDriver)(nil)
