package model

// Strategy is the chosen retrieval channel combination
type Strategy string

const (
	StrategyAuto   Strategy = "auto"
	StrategyVector Strategy = "vector"
	StrategyGraph  Strategy = "graph"
	StrategyHybrid Strategy = "hybrid"
)

// Complexity is a coarse classification of a query derived from its
// word count and entity count
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Intent is the classified intent behind a query
type Intent string

const (
	IntentRelationship Intent = "relationship"
	IntentDefinition   Intent = "definition"
	IntentComparison   Intent = "comparison"
	IntentGeneral      Intent = "general"
)

// QuestionType is a coarse classification of interrogative queries
type QuestionType string

const (
	QuestionTypeEntityFocused       QuestionType = "entity_focused"
	QuestionTypeRelationshipFocused QuestionType = "relationship_focused"
	QuestionTypeGeneral             QuestionType = "general"
)

// RoutingContext carries optional session context into a routing decision
type RoutingContext struct {
	PreviousStrategy Strategy `json:"previous_strategy,omitempty"`
	UserPreference   string   `json:"user_preference,omitempty"` // "detailed" or "semantic"
	Domain           string   `json:"domain,omitempty"`
}

// QueryAnalysis contains the lexical and entity features extracted from a query.
// EntityScore is computed but feeds into neither channel score; it is kept as a
// secondary signal only.
type QueryAnalysis struct {
	EntityCount      int          `json:"entity_count"`
	EntityDensity    float64      `json:"entity_density"`
	GraphIndicators  int          `json:"graph_indicators"`
	VectorIndicators int          `json:"vector_indicators"`
	QuestionType     QuestionType `json:"question_type"`
	Complexity       Complexity   `json:"complexity"`
	EntityScore      float64      `json:"entity_score"`
}

// RoutingStats tracks how queries have been routed by a router instance
type RoutingStats struct {
	TotalQueries  int64 `json:"total_queries"`
	VectorQueries int64 `json:"vector_queries"`
	GraphQueries  int64 `json:"graph_queries"`
	HybridQueries int64 `json:"hybrid_queries"`
}
