// Package provider defines the collaborator contracts consumed by the
// retrieval orchestration core. The storage and query engines behind them
// (vector database, graph database) live outside this module's scope; the
// database package ships Postgres-backed defaults.
package provider

import (
	"context"

	"github.com/siherrmann/fusion/model"
)

// VectorSearcher is the semantic search channel
type VectorSearcher interface {
	// Search returns up to limit results for the query text, scored in [0, 1]
	Search(ctx context.Context, query string, limit int) ([]model.VectorResult, error)
	// AllDocuments returns every stored document with its content,
	// used to build the cross-reference index
	AllDocuments(ctx context.Context) ([]model.VectorResult, error)
}

// GraphSearcher is the knowledge-graph search channel
type GraphSearcher interface {
	// Search returns up to limit entity-centric results for the query text
	Search(ctx context.Context, query string, limit int) ([]model.GraphResult, error)
	// AllEntities returns every entity known to the graph
	AllEntities(ctx context.Context) ([]model.GraphEntity, error)
}
