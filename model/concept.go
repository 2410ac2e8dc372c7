package model

// RelationshipType classifies a relationship between two concepts
type RelationshipType string

const (
	RelationshipIsA        RelationshipType = "IS_A"        // Taxonomic relationship
	RelationshipPartOf     RelationshipType = "PART_OF"     // Meronymic relationship
	RelationshipRelatedTo  RelationshipType = "RELATED_TO"  // Associative relationship
	RelationshipInstanceOf RelationshipType = "INSTANCE_OF" // Instantiation relationship
	RelationshipSimilarTo  RelationshipType = "SIMILAR_TO"  // Similarity relationship
	RelationshipOppositeOf RelationshipType = "OPPOSITE_OF" // Antonymic relationship
	RelationshipCauses     RelationshipType = "CAUSES"      // Causal relationship
	RelationshipPrecedes   RelationshipType = "PRECEDES"    // Temporal relationship
)

// Concept is a node in the ontology representing an entity, category, or
// abstraction. Identity is derived deterministically from the normalized
// name, so adding the same name twice yields the same concept.
type Concept struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	ParentConcepts  []string `json:"parent_concepts,omitempty"`
	ChildConcepts   []string `json:"child_concepts,omitempty"`
	RelatedConcepts []string `json:"related_concepts,omitempty"`
	EntityInstances []string `json:"entity_instances,omitempty"`
	Confidence      float64  `json:"confidence"`
}

// ConceptRelationship is a typed edge between two concepts
type ConceptRelationship struct {
	SourceConcept    string           `json:"source_concept"`
	TargetConcept    string           `json:"target_concept"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Confidence       float64          `json:"confidence"`
	Evidence         []string         `json:"evidence,omitempty"`
}

// ConceptSummary is the resolved form of a related concept returned to callers
type ConceptSummary struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Confidence       float64 `json:"confidence"`
	RelationshipType string  `json:"relationship_type"`
}

// HierarchicalConcept describes a concept with its resolved parents and children
type HierarchicalConcept struct {
	Concept     string   `json:"concept"`
	Parents     []string `json:"parents,omitempty"`
	Children    []string `json:"children,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ConceptHierarchy is the bounded ancestor/descendant view of a concept
type ConceptHierarchy struct {
	ConceptID   string   `json:"concept_id"`
	Ancestors   []string `json:"ancestors,omitempty"`
	Descendants []string `json:"descendants,omitempty"`
	Depth       int      `json:"depth"`
}

// OntologyEnrichment bundles the ontological context discovered for a
// query and its results
type OntologyEnrichment struct {
	QueryConcepts       []string              `json:"query_concepts,omitempty"`
	ResultConcepts      []string              `json:"result_concepts,omitempty"`
	RelatedConcepts     []ConceptSummary      `json:"related_concepts,omitempty"`
	HierarchicalContext []HierarchicalConcept `json:"hierarchical_context,omitempty"`
}
