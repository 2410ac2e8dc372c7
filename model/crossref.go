package model

// CrossReference is a typed, confidence-scored link between a vector
// document and a graph entity
type CrossReference struct {
	VectorDocID      string  `json:"vector_doc_id"`
	GraphEntityID    string  `json:"graph_entity_id"`
	RelationshipType string  `json:"relationship_type"`
	Confidence       float64 `json:"confidence"`
	Evidence         string  `json:"evidence"`
}

// EnhancedVectorResult wraps a vector result with its discovered links
type EnhancedVectorResult struct {
	Result             VectorResult     `json:"result"`
	CrossReferences    []CrossReference `json:"cross_references,omitempty"`
	OntologicalLinks   []string         `json:"ontological_links,omitempty"`
	ContextEnhancement string           `json:"context_enhancement,omitempty"`
}

// EnhancedGraphResult wraps a graph result with its discovered links
type EnhancedGraphResult struct {
	Result             GraphResult      `json:"result"`
	CrossReferences    []CrossReference `json:"cross_references,omitempty"`
	OntologicalLinks   []string         `json:"ontological_links,omitempty"`
	ContextEnhancement string           `json:"context_enhancement,omitempty"`
}

// EnhancedResults is the output of cross-reference enhancement.
// Input hits are never deleted or reordered; enhancement is additive.
type EnhancedResults struct {
	VectorResults   []EnhancedVectorResult `json:"vector_results"`
	GraphResults    []EnhancedGraphResult  `json:"graph_results"`
	CrossReferences []CrossReference       `json:"cross_references"`
	EnhancedContext string                 `json:"enhanced_context"`
}
