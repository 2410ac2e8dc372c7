package ontology

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siherrmann/fusion/model"
)

// CacheStats is a point-in-time snapshot of cache effectiveness.
// Hits and misses accumulate over the cache lifetime and survive
// evictions, expirations, and Clear.
type CacheStats struct {
	Hits                int64   `json:"hits"`
	Misses              int64   `json:"misses"`
	HitRate             float64 `json:"hit_rate"`
	ConceptEntries      int     `json:"concept_entries"`
	RelationshipEntries int     `json:"relationship_entries"`
	HierarchyEntries    int     `json:"hierarchy_entries"`
}

type cacheConfig struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	hits    *atomic.Int64
	misses  *atomic.Int64
}

type entry[V any] struct {
	value        V
	storedAt     time.Time
	lastAccessed time.Time
}

// region is one independently bounded partition of the cache
type region[V any] struct {
	cfg     *cacheConfig
	mu      sync.Mutex
	entries map[string]*entry[V]
}

func newRegion[V any](cfg *cacheConfig) *region[V] {
	return &region[V]{
		cfg:     cfg,
		entries: make(map[string]*entry[V]),
	}
}

// get returns the cached value for key. Expiry is checked lazily: an entry
// past its TTL is purged on read and counts as a miss.
func (r *region[V]) get(key string) (V, bool) {
	var zero V

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		r.cfg.misses.Add(1)
		return zero, false
	}

	now := r.cfg.now()
	if now.Sub(e.storedAt) > r.cfg.ttl {
		delete(r.entries, key)
		r.cfg.misses.Add(1)
		return zero, false
	}

	e.lastAccessed = now
	r.cfg.hits.Add(1)
	return e.value, true
}

// set stores a value under key, evicting the least recently accessed
// tenth of the region first if it is full
func (r *region[V]) set(key string, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; !ok && len(r.entries) >= r.cfg.maxSize {
		r.evictOldest()
	}

	now := r.cfg.now()
	r.entries[key] = &entry[V]{
		value:        value,
		storedAt:     now,
		lastAccessed: now,
	}
}

// evictOldest removes the oldest 10% of entries by last access time,
// at least one. Caller must hold the lock.
func (r *region[V]) evictOldest() {
	evictCount := max(1, r.cfg.maxSize/10)

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.entries[keys[i]].lastAccessed.Before(r.entries[keys[j]].lastAccessed)
	})

	for i := 0; i < evictCount && i < len(keys); i++ {
		delete(r.entries, keys[i])
	}
}

func (r *region[V]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *region[V]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry[V])
}

// Cache is an in-memory TTL cache for ontology lookups. Concepts,
// relationship lists, and hierarchy views live in three independent
// regions so a flood in one cannot evict the others.
type Cache struct {
	cfg    *cacheConfig
	hits   atomic.Int64
	misses atomic.Int64

	concepts      *region[*model.Concept]
	relationships *region[[]model.ConceptSummary]
	hierarchies   *region[*model.ConceptHierarchy]
}

// NewCache creates a cache where each region holds up to maxSize entries
// that expire ttl after being stored
func NewCache(maxSize int, ttl time.Duration) *Cache {
	cache := &Cache{}
	cache.cfg = &cacheConfig{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		hits:    &cache.hits,
		misses:  &cache.misses,
	}
	cache.concepts = newRegion[*model.Concept](cache.cfg)
	cache.relationships = newRegion[[]model.ConceptSummary](cache.cfg)
	cache.hierarchies = newRegion[*model.ConceptHierarchy](cache.cfg)
	return cache
}

// GetConcept returns the cached concept for id, if present and fresh
func (c *Cache) GetConcept(id string) (*model.Concept, bool) {
	return c.concepts.get(id)
}

// SetConcept caches a concept under its id
func (c *Cache) SetConcept(id string, concept *model.Concept) {
	c.concepts.set(id, concept)
}

// GetRelationships returns the cached related-concept list for a concept
func (c *Cache) GetRelationships(conceptID string) ([]model.ConceptSummary, bool) {
	return c.relationships.get(relationshipsKey(conceptID))
}

// SetRelationships caches the related-concept list for a concept
func (c *Cache) SetRelationships(conceptID string, related []model.ConceptSummary) {
	c.relationships.set(relationshipsKey(conceptID), related)
}

// GetHierarchy returns the cached hierarchy view for a concept at a depth
func (c *Cache) GetHierarchy(conceptID string, depth int) (*model.ConceptHierarchy, bool) {
	return c.hierarchies.get(hierarchyKey(conceptID, depth))
}

// SetHierarchy caches the hierarchy view for a concept at a depth
func (c *Cache) SetHierarchy(conceptID string, depth int, hierarchy *model.ConceptHierarchy) {
	c.hierarchies.set(hierarchyKey(conceptID, depth), hierarchy)
}

// Warm preloads the concept region, typically right after the ontology
// is built, so early lookups skip the cold start
func (c *Cache) Warm(concepts []*model.Concept) {
	for _, concept := range concepts {
		if concept == nil {
			continue
		}
		c.concepts.set(concept.ID, concept)
	}
}

// Clear drops all cached entries from all regions. Hit and miss
// counters keep their values.
func (c *Cache) Clear() {
	c.concepts.clear()
	c.relationships.clear()
	c.hierarchies.clear()
}

// Stats returns cumulative hit/miss counters and current region sizes
func (c *Cache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return CacheStats{
		Hits:                hits,
		Misses:              misses,
		HitRate:             hitRate,
		ConceptEntries:      c.concepts.len(),
		RelationshipEntries: c.relationships.len(),
		HierarchyEntries:    c.hierarchies.len(),
	}
}

func relationshipsKey(conceptID string) string {
	return "relationships_" + conceptID
}

func hierarchyKey(conceptID string, depth int) string {
	return fmt.Sprintf("hierarchy_%s_%d", conceptID, depth)
}
