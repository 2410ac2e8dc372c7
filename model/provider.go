package model

// VectorResult is a raw result from the vector search provider
type VectorResult struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// GraphResult is a raw result from the graph search provider
type GraphResult struct {
	Content    string   `json:"content"`
	Score      float64  `json:"score"`
	Metadata   Metadata `json:"metadata,omitempty"`
	EntityName string   `json:"entity_name,omitempty"`
	EntityID   string   `json:"entity_id,omitempty"`
}

// GraphEntity is an entity node known to the graph search provider
type GraphEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// VectorHit normalizes a vector provider result into a Hit
func (r VectorResult) VectorHit() Hit {
	return Hit{
		Content:        r.Content,
		Score:          r.Score,
		SourceType:     SourceTypeVector,
		Metadata:       r.Metadata,
		RelevanceScore: r.Score,
	}
}

// GraphHit normalizes a graph provider result into a Hit
func (r GraphResult) GraphHit() Hit {
	return Hit{
		Content:        r.Content,
		Score:          r.Score,
		SourceType:     SourceTypeGraph,
		Metadata:       r.Metadata,
		RelevanceScore: r.Score,
	}
}
