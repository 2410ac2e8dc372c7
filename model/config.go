package model

import "time"

// Config represents configuration for the retrieval orchestration pipeline
type Config struct {
	// Search parameters
	MaxSearchResults    int     `json:"max_search_results"`
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// Context synthesis parameters
	MaxContextLength int  `json:"max_context_length"` // Character budget for the final context
	EnableReranking  bool `json:"enable_reranking"`
	MaxSelectedHits  int  `json:"max_selected_hits"`
	MaxHitsPerSource int  `json:"max_hits_per_source"`

	// Ontology parameters
	OntologyCacheSize int           `json:"ontology_cache_size"`
	OntologyCacheTTL  time.Duration `json:"ontology_cache_ttl"`
	MaxHierarchyDepth int           `json:"max_hierarchy_depth"`

	// Pipeline parameters
	RequestTimeout time.Duration `json:"request_timeout"` // Per-request deadline for the whole pipeline
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		MaxSearchResults:    10,
		SimilarityThreshold: 0.7,
		MaxContextLength:    4000,
		EnableReranking:     true,
		MaxSelectedHits:     10,
		MaxHitsPerSource:    5,
		OntologyCacheSize:   1000,
		OntologyCacheTTL:    time.Hour,
		MaxHierarchyDepth:   2,
		RequestTimeout:      30 * time.Second,
	}
}
