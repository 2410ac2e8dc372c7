// Package fusion orchestrates hybrid retrieval over a semantic vector
// channel and a knowledge-graph channel. A query is routed to one or both
// channels, the raw results are cross-referenced, deduplicated, reranked
// and trimmed to a context budget, and the caller gets back a single
// synthesized context with sources and a confidence estimate.
package fusion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/siherrmann/fusion/core/crossref"
	"github.com/siherrmann/fusion/core/ontology"
	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/core/router"
	"github.com/siherrmann/fusion/core/synthesis"
	"github.com/siherrmann/fusion/database"
	"github.com/siherrmann/fusion/helper"
	"github.com/siherrmann/fusion/model"
	"github.com/siherrmann/fusion/provider"
	loadSql "github.com/siherrmann/fusion/sql"
)

// QueryOptions tunes a single Query call. The zero value routes
// automatically with the configured result budget.
type QueryOptions struct {
	// Strategy forces a retrieval channel; StrategyAuto (or empty) lets the
	// router decide
	Strategy model.Strategy
	// MaxResults overrides the configured search result budget
	MaxResults int
	// Context carries session context into the routing decision
	Context *model.RoutingContext
}

// Fusion wires the router, synthesizer, cross-reference index and ontology
// over a pair of search providers
type Fusion struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Passages  *database.PassagesDBHandler
	Entities  *database.EntitiesDBHandler
	Relations *database.RelationsDBHandler

	Router      *router.Router
	Synthesizer *synthesis.Synthesizer
	CrossRefs   *crossref.Manager
	Ontology    *ontology.Manager

	// Embed is the embedding function shared by ingestion and synthesis
	Embed pipeline.EmbedFunc

	vector provider.VectorSearcher
	graph  provider.GraphSearcher
	config model.Config
	// Logging
	log *slog.Logger
}

// New creates a Fusion instance over the given search providers.
// A nil config uses DefaultConfig, a nil extractor uses the pattern-based
// default, a nil logger logs to stdout with the pretty handler.
func New(vector provider.VectorSearcher, graph provider.GraphSearcher, config *model.Config, embed pipeline.EmbedFunc, extract pipeline.EntityExtractFunc, logger *slog.Logger) (*Fusion, error) {
	if vector == nil || graph == nil {
		return nil, helper.NewError("provider validation", fmt.Errorf("vector and graph providers must not be nil"))
	}

	if config == nil {
		defaults := model.DefaultConfig()
		config = &defaults
	}
	if extract == nil {
		extract = pipeline.DefaultEntityExtractor()
	}
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}

	synthesizer := synthesis.NewSynthesizer(config, embed, logger)
	crossRefs := crossref.NewManager(vector, graph, extract, logger)
	ontologyManager := ontology.NewManager(config.OntologyCacheSize, config.OntologyCacheTTL, config.MaxHierarchyDepth, extract, logger)

	synthesizer.SetOntology(ontologyManager)
	synthesizer.SetCrossReferences(crossRefs)

	return &Fusion{
		Router:      router.NewRouter(extract, logger),
		Synthesizer: synthesizer,
		CrossRefs:   crossRefs,
		Ontology:    ontologyManager,
		Embed:       embed,
		vector:      vector,
		graph:       graph,
		config:      *config,
		log:         logger,
	}, nil
}

// NewWithDatabase creates a Fusion instance backed by the default
// Postgres/pgvector providers. It initializes the database, loads the SQL
// functions, creates all handlers and wires the hugot embedder.
func NewWithDatabase(dbConfig *helper.DatabaseConfiguration, embeddingDim int, config *model.Config) (*Fusion, error) {
	if config == nil {
		defaults := model.DefaultConfig()
		config = &defaults
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("fusion", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then passages)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	passages, err := database.NewPassagesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create passages handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relations, err := database.NewRelationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relations handler", err)
	}

	embed, err := pipeline.DefaultEmbedder()
	if err != nil {
		return nil, helper.NewError("create default embedder", err)
	}

	vector := database.NewVectorProvider(passages, embed, config.SimilarityThreshold, logger)
	graph := database.NewGraphProvider(entities, relations, logger)

	fusion, err := New(vector, graph, config, embed, nil, logger)
	if err != nil {
		return nil, err
	}

	fusion.DB = db
	fusion.Documents = documents
	fusion.Passages = passages
	fusion.Entities = entities
	fusion.Relations = relations

	return fusion, nil
}

// Initialize bootstraps the ontology from the graph provider's entities and
// builds the cross-reference index over all stored documents. Call it after
// construction and again after bulk ingestion.
func (f *Fusion) Initialize(ctx context.Context) error {
	if err := f.Ontology.Init(ctx, f.graph); err != nil {
		return helper.NewError("initialize ontology", err)
	}

	if err := f.CrossRefs.BuildIndex(ctx); err != nil {
		return helper.NewError("build cross-reference index", err)
	}

	return nil
}

// Query runs the full pipeline: route, search the chosen channel(s),
// synthesize. Vector-only and graph-only strategies skip synthesis and
// report the plain channel results.
func (f *Fusion) Query(ctx context.Context, query string, opts *QueryOptions) (*model.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.NewError("query validation", fmt.Errorf("query is empty"))
	}

	if f.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.RequestTimeout)
		defer cancel()
	}

	hint := model.StrategyAuto
	maxResults := f.config.MaxSearchResults
	var routingContext *model.RoutingContext
	if opts != nil {
		if opts.Strategy != "" {
			hint = opts.Strategy
		}
		if opts.MaxResults > 0 {
			maxResults = opts.MaxResults
		}
		routingContext = opts.Context
	}

	strategy := f.Router.Route(query, hint, routingContext)
	f.log.Info("Routing query", slog.String("query", query), slog.String("strategy", string(strategy)))

	switch strategy {
	case model.StrategyVector:
		results, err := f.vector.Search(ctx, query, maxResults)
		if err != nil {
			return nil, helper.NewError("vector search", err)
		}
		return singleChannelResult(query, strategy, vectorSources(results)), nil

	case model.StrategyGraph:
		results, err := f.graph.Search(ctx, query, maxResults)
		if err != nil {
			return nil, helper.NewError("graph search", err)
		}
		return singleChannelResult(query, strategy, graphSources(results)), nil

	default:
		// Hybrid splits the result budget between the channels
		half := maxResults / 2
		if half < 1 {
			half = 1
		}

		vectorResults, err := f.vector.Search(ctx, query, half)
		if err != nil {
			return nil, helper.NewError("vector search", err)
		}

		graphResults, err := f.graph.Search(ctx, query, half)
		if err != nil {
			return nil, helper.NewError("graph search", err)
		}

		synthesized := f.Synthesizer.Synthesize(query, vectorResults, graphResults)

		return &model.QueryResult{
			Query:      query,
			Strategy:   strategy,
			Context:    synthesized.Context,
			Sources:    synthesized.Sources,
			Confidence: synthesized.Confidence,
			Info:       synthesized.Info,
		}, nil
	}
}

// AddDocument stores a document and its passages, embedding each passage.
// It requires the database-backed handlers from NewWithDatabase. Returns
// the number of passages inserted.
func (f *Fusion) AddDocument(doc *model.Document, passages []string) (int, error) {
	if f.Documents == nil || f.Passages == nil {
		return 0, helper.NewError("add document", fmt.Errorf("database handlers not set, use NewWithDatabase"))
	}
	if f.Embed == nil {
		return 0, helper.NewError("add document", fmt.Errorf("embedder not set"))
	}

	if err := f.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	f.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	for i, content := range passages {
		embedding, err := f.Embed(content)
		if err != nil {
			return i, helper.NewError(fmt.Sprintf("embed passage %d", i), err)
		}

		passage := &model.Passage{
			DocumentID: doc.ID,
			Content:    content,
			Embedding:  embedding,
			Metadata:   model.Metadata{"title": doc.Title},
		}
		if err := f.Passages.InsertPassage(passage); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert passage %d", i), err)
		}
	}

	f.log.Info("Inserted passages", slog.Int("num_passages", len(passages)), slog.String("document_id", doc.RID.String()))

	return len(passages), nil
}

// Stats returns the routing counters
func (f *Fusion) Stats() model.RoutingStats {
	return f.Router.Stats()
}

// CacheStats returns the ontology cache counters
func (f *Fusion) CacheStats() ontology.CacheStats {
	return f.Ontology.CacheStats()
}

// Close releases the ontology cache and the database connection if one was
// opened by NewWithDatabase
func (f *Fusion) Close() error {
	f.Ontology.Close()

	if f.DB != nil && f.DB.Instance != nil {
		return f.DB.Instance.Close()
	}
	return nil
}

// singleChannelResult reports plain channel results without synthesis.
// Context is the joined contents, confidence the mean score.
func singleChannelResult(query string, strategy model.Strategy, sources []model.Source) *model.QueryResult {
	var contents []string
	confidence := 0.0
	for _, source := range sources {
		contents = append(contents, source.Content)
		confidence += source.Score
	}
	if len(sources) > 0 {
		confidence /= float64(len(sources))
	}

	info := model.SynthesisInfo{
		Method:     fmt.Sprintf("%s_search", strategy),
		FinalCount: len(sources),
	}
	switch strategy {
	case model.StrategyVector:
		info.VectorCount = len(sources)
	case model.StrategyGraph:
		info.GraphCount = len(sources)
	}

	return &model.QueryResult{
		Query:      query,
		Strategy:   strategy,
		Context:    strings.Join(contents, "\n"),
		Sources:    sources,
		Confidence: confidence,
		Info:       info,
	}
}

func vectorSources(results []model.VectorResult) []model.Source {
	sources := make([]model.Source, 0, len(results))
	for _, result := range results {
		sources = append(sources, model.Source{
			Type:     model.SourceTypeVector,
			Content:  result.Content,
			Score:    result.Score,
			Metadata: result.Metadata,
		})
	}
	return sources
}

func graphSources(results []model.GraphResult) []model.Source {
	sources := make([]model.Source, 0, len(results))
	for _, result := range results {
		sources = append(sources, model.Source{
			Type:     model.SourceTypeGraph,
			Content:  result.Content,
			Score:    result.Score,
			Metadata: result.Metadata,
		})
	}
	return sources
}
