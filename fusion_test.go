package fusion

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/fusion/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVectorProvider records the limits it was asked for
type fakeVectorProvider struct {
	results   []model.VectorResult
	documents []model.VectorResult
	limits    []int
	searchErr error
}

func (f *fakeVectorProvider) Search(ctx context.Context, query string, limit int) ([]model.VectorResult, error) {
	f.limits = append(f.limits, limit)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeVectorProvider) AllDocuments(ctx context.Context) ([]model.VectorResult, error) {
	return f.documents, nil
}

type fakeGraphProvider struct {
	results  []model.GraphResult
	entities []model.GraphEntity
	limits   []int
}

func (f *fakeGraphProvider) Search(ctx context.Context, query string, limit int) ([]model.GraphResult, error) {
	f.limits = append(f.limits, limit)
	return f.results, nil
}

func (f *fakeGraphProvider) AllEntities(ctx context.Context) ([]model.GraphEntity, error) {
	return f.entities, nil
}

func newTestFusion(t *testing.T, vector *fakeVectorProvider, graph *fakeGraphProvider) *Fusion {
	t.Helper()
	config := model.DefaultConfig()
	fusion, err := New(vector, graph, &config, nil, nil, nil)
	require.NoError(t, err)
	return fusion
}

func TestNew(t *testing.T) {
	t.Run("Valid call New", func(t *testing.T) {
		fusion := newTestFusion(t, &fakeVectorProvider{}, &fakeGraphProvider{})
		assert.NotNil(t, fusion.Router, "Expected a router to be wired")
		assert.NotNil(t, fusion.Synthesizer, "Expected a synthesizer to be wired")
		assert.NotNil(t, fusion.CrossRefs, "Expected a cross-reference manager to be wired")
		assert.NotNil(t, fusion.Ontology, "Expected an ontology manager to be wired")
	})

	t.Run("Invalid call New with nil providers", func(t *testing.T) {
		_, err := New(nil, &fakeGraphProvider{}, nil, nil, nil, nil)
		assert.Error(t, err, "Expected error for nil vector provider")

		_, err = New(&fakeVectorProvider{}, nil, nil, nil, nil, nil)
		assert.Error(t, err, "Expected error for nil graph provider")
	})
}

func TestQueryValidation(t *testing.T) {
	fusion := newTestFusion(t, &fakeVectorProvider{}, &fakeGraphProvider{})

	_, err := fusion.Query(context.Background(), "   ", nil)
	assert.Error(t, err, "Expected error for an empty query")
	assert.Contains(t, err.Error(), "query is empty")
}

func TestQueryVectorStrategy(t *testing.T) {
	vector := &fakeVectorProvider{
		results: []model.VectorResult{
			{ID: "1", Content: "First result", Score: 0.9},
			{ID: "2", Content: "Second result", Score: 0.7},
		},
	}
	graph := &fakeGraphProvider{}
	fusion := newTestFusion(t, vector, graph)

	result, err := fusion.Query(context.Background(), "anything at all", &QueryOptions{Strategy: model.StrategyVector})
	assert.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.StrategyVector, result.Strategy)
	assert.Equal(t, "First result\nSecond result", result.Context, "Expected plain joined contents")
	require.Len(t, result.Sources, 2)
	assert.Equal(t, model.SourceTypeVector, result.Sources[0].Type)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9, "Expected the mean score as confidence")
	assert.Equal(t, "vector_search", result.Info.Method)
	assert.Equal(t, 2, result.Info.VectorCount)

	// Full budget goes to the single channel
	require.Len(t, vector.limits, 1)
	assert.Equal(t, model.DefaultConfig().MaxSearchResults, vector.limits[0])
	assert.Empty(t, graph.limits, "Expected the graph channel to stay idle")
}

func TestQueryGraphStrategy(t *testing.T) {
	graph := &fakeGraphProvider{
		results: []model.GraphResult{
			{EntityID: "1", EntityName: "Neural Network", Content: "Neural Network (CONCEPT)", Score: 0.6},
		},
	}
	fusion := newTestFusion(t, &fakeVectorProvider{}, graph)

	result, err := fusion.Query(context.Background(), "anything at all", &QueryOptions{Strategy: model.StrategyGraph})
	assert.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.StrategyGraph, result.Strategy)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, model.SourceTypeGraph, result.Sources[0].Type)
	assert.Equal(t, 0.6, result.Confidence)
	assert.Equal(t, "graph_search", result.Info.Method)
	assert.Equal(t, 1, result.Info.GraphCount)
}

func TestQueryHybridStrategy(t *testing.T) {
	vector := &fakeVectorProvider{
		results: []model.VectorResult{
			{ID: "1", Content: "Vector content", Score: 0.9, Metadata: model.Metadata{"title": "Doc"}},
		},
	}
	graph := &fakeGraphProvider{
		results: []model.GraphResult{
			{EntityID: "1", EntityName: "Entity", Content: "Graph content", Score: 0.8},
		},
	}
	fusion := newTestFusion(t, vector, graph)

	result, err := fusion.Query(context.Background(), "anything at all", &QueryOptions{Strategy: model.StrategyHybrid})
	assert.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.StrategyHybrid, result.Strategy)
	assert.Equal(t, "enhanced_hybrid_synthesis", result.Info.Method)
	assert.Len(t, result.Sources, 2, "Expected hits from both channels")
	assert.Contains(t, result.Context, "[VECTOR]")
	assert.Contains(t, result.Context, "[GRAPH]")

	// Hybrid splits the budget between the channels
	require.Len(t, vector.limits, 1)
	require.Len(t, graph.limits, 1)
	assert.Equal(t, model.DefaultConfig().MaxSearchResults/2, vector.limits[0])
	assert.Equal(t, model.DefaultConfig().MaxSearchResults/2, graph.limits[0])
}

func TestQueryAutoRouting(t *testing.T) {
	vector := &fakeVectorProvider{}
	graph := &fakeGraphProvider{
		results: []model.GraphResult{
			{EntityID: "1", EntityName: "A", Content: "A", Score: 1.0},
		},
	}
	fusion := newTestFusion(t, vector, graph)

	// A strongly relational query routes to the graph channel on its own
	result, err := fusion.Query(context.Background(), "relationship connected linked associated network", nil)
	assert.NoError(t, err)
	assert.Equal(t, model.StrategyGraph, result.Strategy)

	stats := fusion.Stats()
	assert.Equal(t, int64(1), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.GraphQueries)
}

func TestQueryMaxResultsOverride(t *testing.T) {
	vector := &fakeVectorProvider{}
	fusion := newTestFusion(t, vector, &fakeGraphProvider{})

	_, err := fusion.Query(context.Background(), "anything at all", &QueryOptions{
		Strategy:   model.StrategyVector,
		MaxResults: 3,
	})
	assert.NoError(t, err)
	require.Len(t, vector.limits, 1)
	assert.Equal(t, 3, vector.limits[0])
}

func TestQueryProviderError(t *testing.T) {
	vector := &fakeVectorProvider{searchErr: fmt.Errorf("connection refused")}
	fusion := newTestFusion(t, vector, &fakeGraphProvider{})

	_, err := fusion.Query(context.Background(), "anything at all", &QueryOptions{Strategy: model.StrategyVector})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vector search")
}

func TestInitialize(t *testing.T) {
	vector := &fakeVectorProvider{
		documents: []model.VectorResult{
			{ID: "1", Content: "All about machine learning and more"},
		},
	}
	graph := &fakeGraphProvider{
		entities: []model.GraphEntity{
			{ID: "1", Name: "machine learning", Type: "CONCEPT"},
			{ID: "2", Name: "learning", Type: "CONCEPT"},
		},
	}
	fusion := newTestFusion(t, vector, graph)

	err := fusion.Initialize(context.Background())
	assert.NoError(t, err)

	// Ontology picked up the entities as concepts
	_, ok := fusion.Ontology.GetConcept("machine learning")
	assert.True(t, ok, "Expected the entity to become a concept")

	// The document mentions the entity, so the index links them
	refs := fusion.CrossRefs.CrossReferences("1")
	assert.NotEmpty(t, refs, "Expected cross-references for the document")
}

func TestClose(t *testing.T) {
	fusion := newTestFusion(t, &fakeVectorProvider{}, &fakeGraphProvider{})

	err := fusion.Close()
	assert.NoError(t, err, "Expected Close without a database to succeed")
}
