package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity represents a named entity stored in the graph provider
// (person, organization, location, concept, etc.)
type Entity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"entity_type"`
	Description string    `json:"description,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Results
	Similarity *float64 `json:"similarity,omitempty"`
}

// RelationType classifies a stored relation between two entities
type RelationType string

const (
	RelationTypeCoOccurs   RelationType = "co_occurs_with"
	RelationTypeMentions   RelationType = "mentions"
	RelationTypeIsA        RelationType = "is_a"
	RelationTypeRelatedTo  RelationType = "related_to"
	RelationTypeCustomEdge RelationType = "custom"
)

// Relation represents a typed, weighted edge between two entities
type Relation struct {
	ID             int64        `json:"id"`
	SourceEntityID int64        `json:"source_entity_id"`
	TargetEntityID int64        `json:"target_entity_id"`
	RelationType   RelationType `json:"relation_type"`
	Weight         float64      `json:"weight"`
	Bidirectional  bool         `json:"bidirectional"`
	Metadata       Metadata     `json:"metadata,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TraversalNode is an entity reached by graph traversal, with its hop
// distance from the start entity
type TraversalNode struct {
	Entity   Entity `json:"entity"`
	Distance int    `json:"distance"`
}

// Passage represents an embedded text passage stored in the vector provider
type Passage struct {
	ID          int64     `json:"id"`
	DocumentID  int64     `json:"document_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Results
	Similarity *float64 `json:"similarity,omitempty"`
}
