// Package router decides which retrieval channel(s) a query should run
// against, based on lexical features, entity mentions, and optional
// session context.
package router

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"

	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/model"
)

// graphIndicators are phrases suggesting relational, hierarchical,
// comparative, or network-structured information needs
var graphIndicators = []string{
	// Relationship queries
	"relationship", "related", "connected", "linked", "associated",
	"connection", "ties", "bonds", "correlates", "corresponds",

	// Comparison queries
	"compare", "comparison", "contrast", "difference", "similar",
	"alike", "different", "versus", "vs", "against",

	// Hierarchical queries
	"hierarchy", "parent", "child", "ancestor", "descendant",
	"belongs to", "part of", "contains", "includes",

	// Network queries
	"network", "graph", "structure", "topology", "pathway",
	"chain", "sequence", "flow", "dependencies",

	// Entity-focused queries
	"who", "what", "which", "whose", "whom",
}

// vectorIndicators are phrases suggesting semantic or content-focused
// information needs
var vectorIndicators = []string{
	// Semantic queries
	"meaning", "concept", "idea", "theme", "topic",
	"semantic", "contextual", "conceptual",

	// Content queries
	"about", "regarding", "concerning", "related to content",
	"discusses", "mentions", "describes", "explains",

	// Search queries
	"find", "search", "look for", "retrieve", "get",
	"show me", "tell me about", "information about",
}

var relationshipIntentIndicators = []string{
	"relationship", "related", "connected", "link", "association",
	"how does", "what connects", "relationship between",
}

var definitionIntentIndicators = []string{
	"what is", "define", "definition", "meaning", "explain",
	"describe", "tell me about",
}

var comparisonIntentIndicators = []string{
	"compare", "difference", "similar", "versus", "vs",
	"contrast", "better", "worse",
}

// Router chooses a search strategy for a query. For a fixed query, fixed
// configuration, and no session context the decision is a pure function.
type Router struct {
	extract pipeline.EntityExtractFunc
	log     *slog.Logger

	totalQueries  atomic.Int64
	vectorQueries atomic.Int64
	graphQueries  atomic.Int64
	hybridQueries atomic.Int64
}

// NewRouter creates a new query router. If extract is nil the default
// pattern-based entity extractor is used.
func NewRouter(extract pipeline.EntityExtractFunc, logger *slog.Logger) *Router {
	if extract == nil {
		extract = pipeline.DefaultEntityExtractor()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		extract: extract,
		log:     logger,
	}
}

// Route routes a query to the appropriate search strategy. An explicit
// strategy hint other than auto always wins. Analysis failures never
// escape the router; the fallback is vector search.
func (r *Router) Route(query string, hint model.Strategy, rc *model.RoutingContext) (strategy model.Strategy) {
	defer func() {
		// A pluggable extractor may panic; degrade to vector search instead
		// of failing the request.
		if rec := recover(); rec != nil {
			r.log.Error("Query routing failed", slog.Any("cause", rec))
			strategy = model.StrategyVector
			r.count(strategy)
		}
	}()

	// If strategy is explicitly specified, use it
	if hint == model.StrategyVector || hint == model.StrategyGraph || hint == model.StrategyHybrid {
		r.count(hint)
		return hint
	}

	analysis := r.Analyze(query)
	strategy = r.determineStrategy(query, analysis, rc)

	r.log.Info("Routed query",
		slog.String("query", query),
		slog.String("strategy", string(strategy)),
		slog.String("complexity", string(analysis.Complexity)))
	r.count(strategy)

	return strategy
}

// Analyze extracts the lexical and entity features of a query
func (r *Router) Analyze(query string) model.QueryAnalysis {
	analysis := model.QueryAnalysis{
		QuestionType: model.QuestionTypeGeneral,
		Complexity:   model.ComplexitySimple,
	}

	queryLower := strings.ToLower(query)

	// Count indicator phrases
	for _, indicator := range graphIndicators {
		if strings.Contains(queryLower, indicator) {
			analysis.GraphIndicators++
		}
	}
	for _, indicator := range vectorIndicators {
		if strings.Contains(queryLower, indicator) {
			analysis.VectorIndicators++
		}
	}

	// Pattern-based entity extraction
	entities := r.extract(query)
	words := strings.Fields(query)

	analysis.EntityCount = len(entities)
	if len(words) > 0 {
		analysis.EntityDensity = float64(len(entities)) / float64(len(words))
	}
	analysis.EntityScore = 1.5 * float64(analysis.EntityCount)

	// Determine question type
	if strings.HasSuffix(strings.TrimSpace(query), "?") {
		switch {
		case hasAnyPrefix(queryLower, "what", "which", "who", "whose", "whom"):
			analysis.QuestionType = model.QuestionTypeEntityFocused
		case hasAnyPrefix(queryLower, "how", "why", "when", "where"):
			analysis.QuestionType = model.QuestionTypeRelationshipFocused
		}
	}

	// Determine complexity from word count and entity count
	wordCount := len(words)
	switch {
	case wordCount > 15 || analysis.EntityCount > 3:
		analysis.Complexity = model.ComplexityComplex
	case wordCount > 8 || analysis.EntityCount > 1:
		analysis.Complexity = model.ComplexityMedium
	}

	return analysis
}

// determineStrategy scores both channels and applies the decision rules
func (r *Router) determineStrategy(query string, analysis model.QueryAnalysis, rc *model.RoutingContext) model.Strategy {
	// Base scoring. The entity score stays a secondary signal and is added
	// to neither channel.
	vectorScore := 2.0 * float64(analysis.VectorIndicators)
	graphScore := 2.0 * float64(analysis.GraphIndicators)

	// Context-aware adjustments
	if rc != nil {
		switch rc.PreviousStrategy {
		case model.StrategyGraph:
			graphScore += 1
		case model.StrategyVector:
			vectorScore += 1
		}

		switch rc.UserPreference {
		case "detailed":
			graphScore += 2
		case "semantic":
			vectorScore += 2
		}

		switch rc.Domain {
		case "technical", "scientific", "medical":
			graphScore += 1.5
		case "creative", "general":
			vectorScore += 1.5
		}
	}

	// Intent bonuses
	switch r.AnalyzeIntent(query) {
	case model.IntentRelationship:
		graphScore += 3
	case model.IntentDefinition:
		vectorScore += 2
	case model.IntentComparison:
		graphScore += 2
		vectorScore += 1
	}

	// Complexity-based adjustment: complex queries always go hybrid,
	// near-tied medium queries too
	if analysis.Complexity == model.ComplexityComplex {
		return model.StrategyHybrid
	}
	if analysis.Complexity == model.ComplexityMedium && math.Abs(vectorScore-graphScore) < 2 {
		return model.StrategyHybrid
	}

	// Final decision with a margin of 2 as a hysteresis band against
	// strategy flapping on near-tied queries
	switch {
	case graphScore > vectorScore+2:
		return model.StrategyGraph
	case vectorScore > graphScore+2:
		return model.StrategyVector
	default:
		return model.StrategyHybrid
	}
}

// AnalyzeIntent classifies the intent behind a query. The category with the
// strictly highest indicator count wins; ties fall back to general.
func (r *Router) AnalyzeIntent(query string) model.Intent {
	queryLower := strings.ToLower(query)

	relationshipCount := countIndicators(queryLower, relationshipIntentIndicators)
	definitionCount := countIndicators(queryLower, definitionIntentIndicators)
	comparisonCount := countIndicators(queryLower, comparisonIntentIndicators)

	switch {
	case relationshipCount > definitionCount && relationshipCount > comparisonCount:
		return model.IntentRelationship
	case definitionCount > relationshipCount && definitionCount > comparisonCount:
		return model.IntentDefinition
	case comparisonCount > relationshipCount && comparisonCount > definitionCount:
		return model.IntentComparison
	default:
		return model.IntentGeneral
	}
}

// ExplainRoutingDecision returns a human-readable rationale for a decision
func (r *Router) ExplainRoutingDecision(query string, strategy model.Strategy) string {
	switch strategy {
	case model.StrategyVector:
		return fmt.Sprintf(
			"Vector search selected because the query %q appears to be content-focused and would benefit from semantic similarity matching.",
			query,
		)
	case model.StrategyGraph:
		return fmt.Sprintf(
			"Graph search selected because the query %q contains relationship indicators or multiple entities that suggest ontological connections are important.",
			query,
		)
	case model.StrategyHybrid:
		return fmt.Sprintf(
			"Hybrid search selected because the query %q has both semantic and relational aspects that would benefit from combining vector and graph search approaches.",
			query,
		)
	default:
		return fmt.Sprintf("Default vector search selected for query %q.", query)
	}
}

// Stats returns how many queries this router has routed per strategy
func (r *Router) Stats() model.RoutingStats {
	return model.RoutingStats{
		TotalQueries:  r.totalQueries.Load(),
		VectorQueries: r.vectorQueries.Load(),
		GraphQueries:  r.graphQueries.Load(),
		HybridQueries: r.hybridQueries.Load(),
	}
}

func (r *Router) count(strategy model.Strategy) {
	r.totalQueries.Add(1)
	switch strategy {
	case model.StrategyVector:
		r.vectorQueries.Add(1)
	case model.StrategyGraph:
		r.graphQueries.Add(1)
	case model.StrategyHybrid:
		r.hybridQueries.Add(1)
	}
}

func countIndicators(text string, indicators []string) int {
	count := 0
	for _, indicator := range indicators {
		if strings.Contains(text, indicator) {
			count++
		}
	}
	return count
}

func hasAnyPrefix(text string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}
