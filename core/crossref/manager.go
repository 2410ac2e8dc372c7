// Package crossref links vector documents to knowledge-graph entities by
// detecting entity mentions in document content. The links it produces
// are strictly additive context: input results are never dropped or
// reordered.
package crossref

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/model"
	"github.com/siherrmann/fusion/provider"
)

// mentionConfidence is assigned to every detected mention link.
// Detection is lexical, so confidence is uniform rather than scored.
const mentionConfidence = 0.8

// RelationshipMentions marks a document-mentions-entity link
const RelationshipMentions = "MENTIONS"

// synonyms maps abbreviations to their expansions for mention matching.
// Lookup is applied in both directions.
var synonyms = map[string][]string{
	"ml": {"machine learning"},
	"ai": {"artificial intelligence"},
	"dl": {"deep learning"},
	"nn": {"neural network"},
}

// Manager detects and indexes cross-references between the vector store
// and the knowledge graph. The index is keyed by vector document id and
// safe for concurrent use.
type Manager struct {
	vector  provider.VectorSearcher
	graph   provider.GraphSearcher
	extract pipeline.EntityExtractFunc
	log     *slog.Logger

	mu    sync.RWMutex
	index map[string][]model.CrossReference
}

// NewManager creates a cross-reference manager over the two search
// channels. If extract is nil the default pattern-based entity extractor
// is used for mention detection.
func NewManager(vector provider.VectorSearcher, graph provider.GraphSearcher, extract pipeline.EntityExtractFunc, logger *slog.Logger) *Manager {
	if extract == nil {
		extract = pipeline.DefaultEntityExtractor()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		vector:  vector,
		graph:   graph,
		extract: extract,
		log:     logger,
		index:   make(map[string][]model.CrossReference),
	}
}

// Enhance wraps search results from both channels with the entity links
// found between them. The wrapped results keep their order; failures in
// matching leave results unenhanced rather than failing the search.
func (m *Manager) Enhance(query string, vectorResults []model.VectorResult, graphResults []model.GraphResult) *model.EnhancedResults {
	enhanced := &model.EnhancedResults{
		VectorResults: make([]model.EnhancedVectorResult, 0, len(vectorResults)),
		GraphResults:  make([]model.EnhancedGraphResult, 0, len(graphResults)),
	}

	// Entity name per graph result, deduplicated for the reverse direction
	type entityRef struct {
		id   string
		name string
	}
	entities := make([]entityRef, 0, len(graphResults))
	for _, graphResult := range graphResults {
		if graphResult.EntityName != "" {
			entities = append(entities, entityRef{id: graphResult.EntityID, name: graphResult.EntityName})
		}
	}

	docsPerEntity := map[string][]string{}
	for _, vectorResult := range vectorResults {
		wrapped := model.EnhancedVectorResult{Result: vectorResult}

		for _, entity := range entities {
			anchor, found := m.mentionMatch(vectorResult.Content, entity.name)
			if !found {
				continue
			}
			ref := model.CrossReference{
				VectorDocID:      vectorResult.ID,
				GraphEntityID:    entity.id,
				RelationshipType: RelationshipMentions,
				Confidence:       mentionConfidence,
				Evidence:         snippetAround(vectorResult.Content, anchor),
			}
			wrapped.CrossReferences = append(wrapped.CrossReferences, ref)
			wrapped.OntologicalLinks = append(wrapped.OntologicalLinks, entity.name)
			enhanced.CrossReferences = append(enhanced.CrossReferences, ref)
			docsPerEntity[entity.id] = append(docsPerEntity[entity.id], vectorResult.ID)
		}

		if len(wrapped.OntologicalLinks) > 0 {
			wrapped.ContextEnhancement = "Mentions: " + strings.Join(wrapped.OntologicalLinks, ", ")
		}
		enhanced.VectorResults = append(enhanced.VectorResults, wrapped)
	}

	for _, graphResult := range graphResults {
		wrapped := model.EnhancedGraphResult{Result: graphResult}
		for _, docID := range docsPerEntity[graphResult.EntityID] {
			for _, ref := range enhanced.CrossReferences {
				if ref.VectorDocID == docID && ref.GraphEntityID == graphResult.EntityID {
					wrapped.CrossReferences = append(wrapped.CrossReferences, ref)
				}
			}
		}
		if len(wrapped.CrossReferences) > 0 {
			wrapped.ContextEnhancement = fmt.Sprintf("Mentioned in %d retrieved documents", len(docsPerEntity[graphResult.EntityID]))
		}
		enhanced.GraphResults = append(enhanced.GraphResults, wrapped)
	}

	if len(enhanced.CrossReferences) > 0 {
		enhanced.EnhancedContext = fmt.Sprintf(
			"Found %d cross-references between retrieved documents and graph entities.",
			len(enhanced.CrossReferences))
	}

	return enhanced
}

// BuildIndex scans every stored document against every known entity and
// rebuilds the cross-reference index from scratch
func (m *Manager) BuildIndex(ctx context.Context) error {
	documents, err := m.vector.AllDocuments(ctx)
	if err != nil {
		return err
	}
	entities, err := m.graph.AllEntities(ctx)
	if err != nil {
		return err
	}

	index := make(map[string][]model.CrossReference)
	total := 0
	for _, document := range documents {
		for _, entity := range entities {
			anchor, found := m.mentionMatch(document.Content, entity.Name)
			if !found {
				continue
			}
			index[document.ID] = append(index[document.ID], model.CrossReference{
				VectorDocID:      document.ID,
				GraphEntityID:    entity.ID,
				RelationshipType: RelationshipMentions,
				Confidence:       mentionConfidence,
				Evidence:         snippetAround(document.Content, anchor),
			})
			total++
		}
	}

	m.mu.Lock()
	m.index = index
	m.mu.Unlock()

	m.log.Info("Built cross-reference index",
		slog.Int("documents", len(documents)),
		slog.Int("entities", len(entities)),
		slog.Int("crossReferences", total))

	return nil
}

// AddCrossReference records a single link in the index
func (m *Manager) AddCrossReference(ref model.CrossReference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index[ref.VectorDocID] = append(m.index[ref.VectorDocID], ref)
}

// CrossReferences returns the indexed links for a vector document
func (m *Manager) CrossReferences(vectorDocID string) []model.CrossReference {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := m.index[vectorDocID]
	out := make([]model.CrossReference, len(refs))
	copy(out, refs)
	return out
}

// IndexedDocumentIDs returns the document ids currently present in the index
func (m *Manager) IndexedDocumentIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.index))
	for id := range m.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear drops the whole index
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string][]model.CrossReference)
}

// mentionMatch reports whether content refers to the entity and returns
// the matched text as an evidence anchor. Matching tries direct
// containment, known synonyms in either direction, and finally entity
// mentions extracted from the content, which link on substring overlap
// with the entity name in either direction.
func (m *Manager) mentionMatch(content, entityName string) (string, bool) {
	contentLower := strings.ToLower(content)
	nameLower := strings.ToLower(strings.TrimSpace(entityName))
	if nameLower == "" {
		return "", false
	}

	if strings.Contains(contentLower, nameLower) {
		return entityName, true
	}

	// Abbreviation in the entity name, expansion in the content
	for _, expansion := range synonyms[nameLower] {
		if strings.Contains(contentLower, expansion) {
			return expansion, true
		}
	}

	// Expansion in the entity name, abbreviation in the content as a word
	for abbreviation, expansions := range synonyms {
		for _, expansion := range expansions {
			if expansion == nameLower && containsWord(contentLower, abbreviation) {
				return abbreviation, true
			}
		}
	}

	for _, mention := range m.extract(content) {
		mentionLower := strings.ToLower(strings.TrimSpace(mention))
		// mentions under three characters over-match as substrings
		if len(mentionLower) < 3 {
			continue
		}
		if strings.Contains(nameLower, mentionLower) || strings.Contains(mentionLower, nameLower) {
			return mention, true
		}
	}

	return "", false
}

// containsWord reports whether text contains word bounded by non-letters,
// so "ml" does not match inside "html"
func containsWord(text, word string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start

		beforeOK := idx == 0 || !isLetter(text[idx-1])
		afterOK := idx+len(word) == len(text) || !isLetter(text[idx+len(word)])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// snippetAround extracts a short evidence window around the first
// occurrence of the entity in the content
func snippetAround(content, entityName string) string {
	contentLower := strings.ToLower(content)
	nameLower := strings.ToLower(entityName)

	idx := strings.Index(contentLower, nameLower)
	if idx < 0 {
		// Synonym matches have no literal occurrence to anchor on
		if len(content) > 80 {
			return content[:80] + "..."
		}
		return content
	}

	start := max(0, idx-40)
	end := min(len(content), idx+len(nameLower)+40)

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}
