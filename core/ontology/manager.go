// Package ontology maintains a lightweight in-memory concept graph over
// the entities of the knowledge base. It supports taxonomic and
// associative relationships, bounded traversal, and cached lookups, and
// feeds conceptual context into search result synthesis.
package ontology

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/model"
	"github.com/siherrmann/fusion/provider"
)

// DefaultMaxDepth bounds relationship traversal when callers pass no depth
const DefaultMaxDepth = 2

// ConceptID derives the canonical concept id from a name. The derivation
// is deterministic and idempotent, so the same name always maps to the
// same concept and ids survive being passed back in.
func ConceptID(name string) string {
	id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if strings.HasPrefix(id, "concept_") {
		return id
	}
	return "concept_" + id
}

// Manager owns the concept graph. All mutating and traversing operations
// are safe for concurrent use; concepts handed out are detached copies.
type Manager struct {
	mu            sync.RWMutex
	concepts      map[string]*model.Concept
	relationships []model.ConceptRelationship

	maxDepth int
	cache    *Cache
	extract  pipeline.EntityExtractFunc
	log      *slog.Logger
}

// NewManager creates an empty ontology manager. A non-positive maxDepth
// falls back to DefaultMaxDepth; it bounds traversal whenever callers pass
// no explicit depth. If extract is nil the default pattern-based entity
// extractor is used for query enhancement.
func NewManager(cacheSize int, cacheTTL time.Duration, maxDepth int, extract pipeline.EntityExtractFunc, logger *slog.Logger) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if extract == nil {
		extract = pipeline.DefaultEntityExtractor()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		concepts: make(map[string]*model.Concept),
		maxDepth: maxDepth,
		cache:    NewCache(cacheSize, cacheTTL),
		extract:  extract,
		log:      logger,
	}
}

// Init bootstraps the ontology from the entities already stored in the
// knowledge graph. Each distinct entity name becomes a concept whose
// confidence grows with its number of instances, capped at 1. Hierarchy
// links between the bootstrapped concepts are inferred from their names.
func (m *Manager) Init(ctx context.Context, graph provider.GraphSearcher) error {
	entities, err := graph.AllEntities(ctx)
	if err != nil {
		return err
	}

	type group struct {
		name        string
		description string
		instances   []string
	}
	groups := map[string]*group{}
	for _, entity := range entities {
		id := ConceptID(entity.Name)
		g, ok := groups[id]
		if !ok {
			g = &group{name: entity.Name}
			groups[id] = g
		}
		g.instances = append(g.instances, entity.ID)
		if g.description == "" {
			g.description = entity.Description
		}
	}

	m.mu.Lock()
	for id, g := range groups {
		concept := m.ensureConceptLocked(id, g.name, g.description)
		concept.EntityInstances = appendMissing(concept.EntityInstances, g.instances...)
		concept.Confidence = min(float64(len(concept.EntityInstances))/10.0, 1.0)
	}
	m.inferHierarchyLocked()
	m.mu.Unlock()

	// Cached copies predate the rebuild
	m.cache.Clear()

	m.log.Info("Initialized ontology from graph entities",
		slog.Int("entities", len(entities)),
		slog.Int("concepts", len(groups)))

	return nil
}

// AddConcept adds a concept or merges into the existing one with the same
// derived id. Parent links are wired in both directions. The returned
// concept is a detached copy.
func (m *Manager) AddConcept(name string, description string, parentConcepts []string) *model.Concept {
	id := ConceptID(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	concept := m.ensureConceptLocked(id, name, description)
	if description != "" {
		concept.Description = description
	}

	for _, parentName := range parentConcepts {
		parentID := ConceptID(parentName)
		parent := m.ensureConceptLocked(parentID, parentName, "")
		concept.ParentConcepts = appendMissing(concept.ParentConcepts, parentID)
		parent.ChildConcepts = appendMissing(parent.ChildConcepts, id)
		m.cache.SetConcept(parentID, cloneConcept(parent))
	}

	m.cache.SetConcept(id, cloneConcept(concept))
	return cloneConcept(concept)
}

// AddRelationship records a typed relationship between two concepts,
// creating either side if missing. Taxonomic relationships additionally
// update the parent and child adjacency of both concepts.
func (m *Manager) AddRelationship(source, target string, relType model.RelationshipType, confidence float64, evidence []string) {
	sourceID := ConceptID(source)
	targetID := ConceptID(target)

	m.mu.Lock()
	defer m.mu.Unlock()

	sourceConcept := m.ensureConceptLocked(sourceID, source, "")
	targetConcept := m.ensureConceptLocked(targetID, target, "")

	m.relationships = append(m.relationships, model.ConceptRelationship{
		SourceConcept:    sourceID,
		TargetConcept:    targetID,
		RelationshipType: relType,
		Confidence:       confidence,
		Evidence:         evidence,
	})

	switch relType {
	case model.RelationshipIsA, model.RelationshipInstanceOf:
		sourceConcept.ParentConcepts = appendMissing(sourceConcept.ParentConcepts, targetID)
		targetConcept.ChildConcepts = appendMissing(targetConcept.ChildConcepts, sourceID)
	default:
		sourceConcept.RelatedConcepts = appendMissing(sourceConcept.RelatedConcepts, targetID)
		targetConcept.RelatedConcepts = appendMissing(targetConcept.RelatedConcepts, sourceID)
	}

	m.cache.SetConcept(sourceID, cloneConcept(sourceConcept))
	m.cache.SetConcept(targetID, cloneConcept(targetConcept))
}

// GetConcept resolves a concept by name or id. The returned concept is a
// detached copy; mutating it does not touch the ontology.
func (m *Manager) GetConcept(nameOrID string) (*model.Concept, bool) {
	id := ConceptID(nameOrID)

	if concept, ok := m.cache.GetConcept(id); ok {
		return cloneConcept(concept), true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	concept, ok := m.concepts[id]
	if !ok {
		return nil, false
	}

	// Caching under the read lock keeps the cached copy ordered with the
	// refreshes the mutating operations write under the write lock.
	m.cache.SetConcept(id, cloneConcept(concept))
	return cloneConcept(concept), true
}

// FindRelatedConcepts returns the concepts related to the named one: its
// direct associations, parents, and children, plus everything reachable
// through taxonomic links within maxDepth hops. Traversal tolerates
// cycles. Results are cached per concept.
func (m *Manager) FindRelatedConcepts(name string, maxDepth int) []model.ConceptSummary {
	if maxDepth <= 0 {
		maxDepth = m.maxDepth
	}
	id := ConceptID(name)

	if cached, ok := m.cache.GetRelationships(id); ok {
		return cached
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	concept, ok := m.concepts[id]
	if !ok {
		return nil
	}

	// Relationship type per related id, first association wins
	relatedTypes := map[string]string{}
	record := func(relatedID string, relType model.RelationshipType) {
		if relatedID == id {
			return
		}
		if _, ok := relatedTypes[relatedID]; !ok {
			relatedTypes[relatedID] = string(relType)
		}
	}

	for _, relatedID := range concept.RelatedConcepts {
		record(relatedID, model.RelationshipRelatedTo)
	}
	for _, parentID := range concept.ParentConcepts {
		record(parentID, model.RelationshipIsA)
	}
	for _, childID := range concept.ChildConcepts {
		record(childID, model.RelationshipIsA)
	}

	// Bounded breadth-first walk over taxonomic links
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, currentID := range frontier {
			current, ok := m.concepts[currentID]
			if !ok {
				continue
			}
			for _, neighborID := range append(append([]string{}, current.ParentConcepts...), current.ChildConcepts...) {
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true
				record(neighborID, model.RelationshipIsA)
				next = append(next, neighborID)
			}
		}
		frontier = next
	}

	summaries := make([]model.ConceptSummary, 0, len(relatedTypes))
	for relatedID, relType := range relatedTypes {
		related, ok := m.concepts[relatedID]
		if !ok {
			continue
		}
		summaries = append(summaries, model.ConceptSummary{
			ID:               related.ID,
			Name:             related.Name,
			Description:      related.Description,
			Confidence:       related.Confidence,
			RelationshipType: relType,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Confidence != summaries[j].Confidence {
			return summaries[i].Confidence > summaries[j].Confidence
		}
		return summaries[i].ID < summaries[j].ID
	})

	m.cache.SetRelationships(id, summaries)
	return summaries
}

// GetConceptHierarchy returns the ancestors and descendants of a concept
// reachable within depth taxonomic hops. Results are cached per concept
// and depth.
func (m *Manager) GetConceptHierarchy(name string, depth int) *model.ConceptHierarchy {
	if depth <= 0 {
		depth = m.maxDepth
	}
	id := ConceptID(name)

	if cached, ok := m.cache.GetHierarchy(id, depth); ok {
		return cached
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.concepts[id]; !ok {
		return nil
	}

	hierarchy := &model.ConceptHierarchy{
		ConceptID:   id,
		Depth:       depth,
		Ancestors:   m.walkLocked(id, depth, func(c *model.Concept) []string { return c.ParentConcepts }),
		Descendants: m.walkLocked(id, depth, func(c *model.Concept) []string { return c.ChildConcepts }),
	}

	m.cache.SetHierarchy(id, depth, hierarchy)
	return hierarchy
}

// walkLocked collects ids reachable within depth hops along the edges
// selected by next. Caller must hold at least a read lock.
func (m *Manager) walkLocked(startID string, depth int, next func(*model.Concept) []string) []string {
	visited := map[string]bool{startID: true}
	frontier := []string{startID}
	var collected []string

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var nextFrontier []string
		for _, currentID := range frontier {
			current, ok := m.concepts[currentID]
			if !ok {
				continue
			}
			for _, neighborID := range next(current) {
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true
				collected = append(collected, neighborID)
				nextFrontier = append(nextFrontier, neighborID)
			}
		}
		frontier = nextFrontier
	}

	return collected
}

// EnhanceSearchContext derives ontological context for a query and its
// hits: the concepts they mention, concepts related to those, and the
// taxonomic neighborhood of the query concepts
func (m *Manager) EnhanceSearchContext(query string, hits []model.Hit) *model.OntologyEnrichment {
	enrichment := &model.OntologyEnrichment{}

	queryConcepts := m.matchConcepts(query)
	enrichment.QueryConcepts = queryConcepts

	seen := map[string]bool{}
	for _, conceptID := range queryConcepts {
		seen[conceptID] = true
	}
	for _, hit := range hits {
		for _, conceptID := range m.matchConcepts(hit.Content) {
			if seen[conceptID] {
				continue
			}
			seen[conceptID] = true
			enrichment.ResultConcepts = append(enrichment.ResultConcepts, conceptID)
		}
	}

	relatedSeen := map[string]bool{}
	for _, conceptID := range queryConcepts {
		for _, summary := range m.FindRelatedConcepts(conceptID, m.maxDepth) {
			if relatedSeen[summary.ID] {
				continue
			}
			relatedSeen[summary.ID] = true
			enrichment.RelatedConcepts = append(enrichment.RelatedConcepts, summary)
		}

		if hierarchical := m.hierarchicalContext(conceptID); hierarchical != nil {
			enrichment.HierarchicalContext = append(enrichment.HierarchicalContext, *hierarchical)
		}
	}

	return enrichment
}

// matchConcepts returns ids of known concepts mentioned in the text,
// either as extracted entities or as literal concept names
func (m *Manager) matchConcepts(text string) []string {
	textLower := strings.ToLower(text)

	candidates := map[string]bool{}
	for _, entity := range m.extract(text) {
		candidates[ConceptID(entity)] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []string
	seen := map[string]bool{}
	for id, concept := range m.concepts {
		if seen[id] {
			continue
		}
		if candidates[id] || strings.Contains(textLower, strings.ToLower(concept.Name)) {
			seen[id] = true
			matched = append(matched, id)
		}
	}
	sort.Strings(matched)
	return matched
}

func (m *Manager) hierarchicalContext(conceptID string) *model.HierarchicalConcept {
	m.mu.RLock()
	defer m.mu.RUnlock()

	concept, ok := m.concepts[conceptID]
	if !ok {
		return nil
	}
	if len(concept.ParentConcepts) == 0 && len(concept.ChildConcepts) == 0 {
		return nil
	}

	resolve := func(ids []string) []string {
		var names []string
		for _, id := range ids {
			if related, ok := m.concepts[id]; ok {
				names = append(names, related.Name)
			}
		}
		return names
	}

	return &model.HierarchicalConcept{
		Concept:     concept.Name,
		Parents:     resolve(concept.ParentConcepts),
		Children:    resolve(concept.ChildConcepts),
		Description: concept.Description,
	}
}

// Concepts returns a detached snapshot of all concepts, usable for cache
// warming
func (m *Manager) Concepts() []*model.Concept {
	m.mu.RLock()
	defer m.mu.RUnlock()

	concepts := make([]*model.Concept, 0, len(m.concepts))
	for _, concept := range m.concepts {
		concepts = append(concepts, cloneConcept(concept))
	}
	return concepts
}

// WarmCache preloads the concept cache with the current concept set
func (m *Manager) WarmCache() {
	m.cache.Warm(m.Concepts())
}

// CacheStats returns the lookup cache counters
func (m *Manager) CacheStats() CacheStats {
	return m.cache.Stats()
}

// Close releases cached state. The concept graph itself stays usable.
func (m *Manager) Close() {
	m.cache.Clear()
}

// ensureConceptLocked returns the concept with the given id, creating it
// if needed. Caller must hold the write lock.
func (m *Manager) ensureConceptLocked(id, name, description string) *model.Concept {
	if concept, ok := m.concepts[id]; ok {
		return concept
	}
	concept := &model.Concept{
		ID:          id,
		Name:        name,
		Description: description,
		Confidence:  0.5,
	}
	m.concepts[id] = concept
	return concept
}

// inferHierarchyLocked wires IS-A links between bootstrapped concepts
// wherever one name is more general than another, e.g. "neural network"
// under "network". Caller must hold the write lock.
func (m *Manager) inferHierarchyLocked() {
	ids := make([]string, 0, len(m.concepts))
	for id := range m.concepts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, childID := range ids {
		child := m.concepts[childID]
		for _, parentID := range ids {
			if childID == parentID {
				continue
			}
			parent := m.concepts[parentID]
			if !isMoreGeneral(parent.Name, child.Name) {
				continue
			}
			child.ParentConcepts = appendMissing(child.ParentConcepts, parentID)
			parent.ChildConcepts = appendMissing(parent.ChildConcepts, childID)
		}
	}
}

// isMoreGeneral reports whether concept name a is plausibly broader than
// b, judged by word count or lexical containment
func isMoreGeneral(a, b string) bool {
	aLower := strings.ToLower(a)
	bLower := strings.ToLower(b)
	if len(strings.Fields(aLower)) < len(strings.Fields(bLower)) {
		return true
	}
	return aLower != bLower && strings.Contains(bLower, aLower)
}

// cloneConcept deep-copies a concept so it can leave the manager's lock
func cloneConcept(c *model.Concept) *model.Concept {
	clone := *c
	clone.ParentConcepts = append([]string(nil), c.ParentConcepts...)
	clone.ChildConcepts = append([]string(nil), c.ChildConcepts...)
	clone.RelatedConcepts = append([]string(nil), c.RelatedConcepts...)
	clone.EntityInstances = append([]string(nil), c.EntityInstances...)
	return &clone
}

func appendMissing(existing []string, values ...string) []string {
	for _, value := range values {
		found := false
		for _, present := range existing {
			if present == value {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, value)
		}
	}
	return existing
}
