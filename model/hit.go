package model

// SourceType identifies which retrieval channel produced a hit
type SourceType string

const (
	SourceTypeVector SourceType = "vector"
	SourceTypeGraph  SourceType = "graph"
)

// Hit represents a single normalized retrieval result from either search channel.
// Score and RelevanceScore are mutated in place during reranking.
type Hit struct {
	Content        string     `json:"content"`
	Score          float64    `json:"score"`
	SourceType     SourceType `json:"source_type"`
	Metadata       Metadata   `json:"metadata,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
}

// Title returns the title from the hit metadata, if any
func (h *Hit) Title() string {
	return h.Metadata.String("title")
}

// Source describes a selected hit in an API-facing form
type Source struct {
	Type           SourceType `json:"type"`
	Content        string     `json:"content"`
	Score          float64    `json:"score"`
	Metadata       Metadata   `json:"metadata,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
}

// SynthesisInfo describes how a context was assembled
type SynthesisInfo struct {
	Method              string `json:"method"`
	VectorCount         int    `json:"vector_count"`
	GraphCount          int    `json:"graph_count"`
	DeduplicatedCount   int    `json:"deduplicated_count"`
	FinalCount          int    `json:"final_count"`
	OntologyEnhanced    bool   `json:"ontology_enhanced"`
	CrossRefEnhanced    bool   `json:"cross_ref_enhanced"`
	CrossReferenceCount int    `json:"cross_reference_count,omitempty"`
	RerankingApplied    bool   `json:"reranking_applied"`
	DeduplicationError  bool   `json:"deduplication_error,omitempty"`
}

// SynthesisResult is the outcome of synthesizing vector and graph results
// into a single ranked, deduplicated, length-bounded context
type SynthesisResult struct {
	Context    string        `json:"context"`
	Sources    []Source      `json:"sources"`
	Confidence float64       `json:"confidence"`
	Info       SynthesisInfo `json:"synthesis_info"`
}

// QueryResult is the outcome of a full route, search and synthesize pass
type QueryResult struct {
	Query      string        `json:"query"`
	Strategy   Strategy      `json:"strategy_used"`
	Context    string        `json:"context"`
	Sources    []Source      `json:"sources"`
	Confidence float64       `json:"confidence"`
	Info       SynthesisInfo `json:"synthesis_info"`
}
