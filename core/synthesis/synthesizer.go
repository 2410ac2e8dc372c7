// Package synthesis merges vector and graph search results into a single
// deduplicated, reranked, length-bounded context string with source
// attribution and a confidence estimate.
package synthesis

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/model"
)

const (
	// MethodHybrid marks a context assembled from retrieved results
	MethodHybrid = "enhanced_hybrid_synthesis"
	// MethodEmpty marks the synthesis outcome when both channels came back empty
	MethodEmpty = "empty_results"
)

// OntologyEnhancer supplies conceptual context for a query and its hits
type OntologyEnhancer interface {
	EnhanceSearchContext(query string, hits []model.Hit) *model.OntologyEnrichment
}

// CrossReferencer links retrieved documents to graph entities
type CrossReferencer interface {
	Enhance(query string, vectorResults []model.VectorResult, graphResults []model.GraphResult) *model.EnhancedResults
}

// Synthesizer assembles the final answer context out of raw channel
// results. Every enrichment stage degrades gracefully: a failing embedder
// skips deduplication and reranking but never fails the synthesis.
type Synthesizer struct {
	maxContextLength int
	threshold        float64
	rerankingEnabled bool
	maxSelected      int
	maxPerSource     int

	embed     pipeline.EmbedFunc
	ontology  OntologyEnhancer
	crossRefs CrossReferencer
	log       *slog.Logger
}

// NewSynthesizer creates a synthesizer from the given configuration.
// The embedder may be nil, in which case deduplication and reranking
// are skipped.
func NewSynthesizer(config *model.Config, embed pipeline.EmbedFunc, logger *slog.Logger) *Synthesizer {
	if config == nil {
		defaults := model.DefaultConfig()
		config = &defaults
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{
		maxContextLength: config.MaxContextLength,
		threshold:        config.SimilarityThreshold,
		rerankingEnabled: config.EnableReranking,
		maxSelected:      config.MaxSelectedHits,
		maxPerSource:     config.MaxHitsPerSource,
		embed:            embed,
		log:              logger,
	}
}

// SetOntology attaches an ontology for conceptual context enrichment
func (s *Synthesizer) SetOntology(ontology OntologyEnhancer) {
	s.ontology = ontology
}

// SetCrossReferences attaches a cross-reference manager for entity linking
func (s *Synthesizer) SetCrossReferences(crossRefs CrossReferencer) {
	s.crossRefs = crossRefs
}

// Synthesize merges the results of both search channels into one context.
// Vector results keep their channel order relative to each other, as do
// graph results, until reranking reorders the combined list by score.
func (s *Synthesizer) Synthesize(query string, vectorResults []model.VectorResult, graphResults []model.GraphResult) *model.SynthesisResult {
	info := model.SynthesisInfo{
		Method:      MethodHybrid,
		VectorCount: len(vectorResults),
		GraphCount:  len(graphResults),
	}

	var hits []model.Hit
	if s.crossRefs != nil {
		enhanced := s.crossRefs.Enhance(query, vectorResults, graphResults)
		info.CrossRefEnhanced = true
		info.CrossReferenceCount = len(enhanced.CrossReferences)
		if len(enhanced.CrossReferences) > 0 {
			s.log.Debug("Cross-reference enhancement",
				slog.Int("crossReferences", len(enhanced.CrossReferences)))
		}

		hits = make([]model.Hit, 0, len(enhanced.VectorResults)+len(enhanced.GraphResults))
		for _, wrapped := range enhanced.VectorResults {
			hits = append(hits, enhancedHit(wrapped.Result.VectorHit(), wrapped.OntologicalLinks, wrapped.ContextEnhancement))
		}
		for _, wrapped := range enhanced.GraphResults {
			hits = append(hits, enhancedHit(wrapped.Result.GraphHit(), wrapped.OntologicalLinks, wrapped.ContextEnhancement))
		}
	} else {
		hits = make([]model.Hit, 0, len(vectorResults)+len(graphResults))
		for _, result := range vectorResults {
			hits = append(hits, result.VectorHit())
		}
		for _, result := range graphResults {
			hits = append(hits, result.GraphHit())
		}
	}

	if len(hits) == 0 {
		return &model.SynthesisResult{
			Context:    "",
			Sources:    []model.Source{},
			Confidence: 0.0,
			Info:       model.SynthesisInfo{Method: MethodEmpty},
		}
	}

	deduplicated, dedupErr := s.deduplicate(hits)
	info.DeduplicatedCount = len(deduplicated)
	info.DeduplicationError = dedupErr

	var ranked []model.Hit
	if s.rerankingEnabled {
		ranked, info.RerankingApplied = s.rerank(query, deduplicated)
	} else {
		ranked = sortByScore(deduplicated)
	}

	selected := s.selectTop(ranked)
	info.FinalCount = len(selected)

	var enrichment *model.OntologyEnrichment
	if s.ontology != nil {
		enrichment = s.ontology.EnhanceSearchContext(query, selected)
		info.OntologyEnhanced = true
	}

	result := &model.SynthesisResult{
		Context:    s.buildContext(selected, enrichment),
		Sources:    prepareSources(selected),
		Confidence: calculateConfidence(selected),
		Info:       info,
	}

	s.log.Info("Synthesized context",
		slog.Int("vectorResults", info.VectorCount),
		slog.Int("graphResults", info.GraphCount),
		slog.Int("selected", info.FinalCount),
		slog.Float64("confidence", result.Confidence))

	return result
}

// deduplicate drops near-duplicate hits by pairwise content similarity.
// Of two near-duplicates the higher-scored one survives; on equal scores
// the earlier one does. An embedding failure returns the hits untouched
// and flags the error.
func (s *Synthesizer) deduplicate(hits []model.Hit) ([]model.Hit, bool) {
	if len(hits) < 2 || s.embed == nil {
		return hits, false
	}

	embeddings := make([][]float32, len(hits))
	for i, hit := range hits {
		embedding, err := s.embed(hit.Content)
		if err != nil {
			s.log.Error("Deduplication skipped", slog.Any("error", err))
			return hits, true
		}
		embeddings[i] = embedding
	}

	toRemove := make(map[int]bool)
	for i := range hits {
		if toRemove[i] {
			continue
		}
		for j := i + 1; j < len(hits); j++ {
			if toRemove[j] {
				continue
			}
			if pipeline.CosineSimilarity(embeddings[i], embeddings[j]) > s.threshold {
				if hits[i].Score >= hits[j].Score {
					toRemove[j] = true
				} else {
					toRemove[i] = true
					break
				}
			}
		}
	}

	deduplicated := make([]model.Hit, 0, len(hits))
	for i, hit := range hits {
		if !toRemove[i] {
			deduplicated = append(deduplicated, hit)
		}
	}
	return deduplicated, false
}

// rerank blends each hit's channel score with its embedding relevance to
// the query and sorts by the blended score. On embedding failure the hits
// are sorted by their original score instead.
func (s *Synthesizer) rerank(query string, hits []model.Hit) ([]model.Hit, bool) {
	if len(hits) == 0 || s.embed == nil {
		return sortByScore(hits), false
	}

	queryEmbedding, err := s.embed(query)
	if err != nil {
		s.log.Error("Reranking skipped", slog.Any("error", err))
		return sortByScore(hits), false
	}

	reranked := make([]model.Hit, len(hits))
	copy(reranked, hits)
	for i := range reranked {
		embedding, err := s.embed(reranked[i].Content)
		if err != nil {
			s.log.Error("Reranking skipped", slog.Any("error", err))
			return sortByScore(hits), false
		}
		reranked[i].RelevanceScore = pipeline.CosineSimilarity(queryEmbedding, embedding)
		reranked[i].Score = reranked[i].Score*0.6 + reranked[i].RelevanceScore*0.4
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	return reranked, true
}

// selectTop picks hits until the character budget or the count limits are
// reached. A hit that would overflow the budget is skipped, not a stop:
// a later shorter hit may still fit.
func (s *Synthesizer) selectTop(hits []model.Hit) []model.Hit {
	var selected []model.Hit
	currentLength := 0
	perSource := map[model.SourceType]int{}

	for _, hit := range hits {
		if currentLength+len(hit.Content) > s.maxContextLength {
			continue
		}
		if perSource[hit.SourceType] >= s.maxPerSource {
			continue
		}

		selected = append(selected, hit)
		currentLength += len(hit.Content)
		perSource[hit.SourceType]++

		if len(selected) >= s.maxSelected {
			break
		}
	}

	return selected
}

// buildContext renders the selected hits as attributed blocks, with a
// related-concepts section appended when the ontology found any
func (s *Synthesizer) buildContext(hits []model.Hit, enrichment *model.OntologyEnrichment) string {
	if len(hits) == 0 {
		return ""
	}

	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		indicator := "[" + strings.ToUpper(string(hit.SourceType)) + "]"
		if title := hit.Title(); title != "" {
			indicator += " (" + title + ")"
		}
		parts = append(parts, indicator+": "+hit.Content)
	}
	context := strings.Join(parts, "\n\n")

	if enrichment == nil || len(enrichment.RelatedConcepts) == 0 {
		return context
	}

	related := enrichment.RelatedConcepts
	if len(related) > 5 {
		related = related[:5]
	}
	descriptions := make([]string, 0, len(related))
	for _, concept := range related {
		descriptions = append(descriptions, concept.Name+" ("+concept.Description+")")
	}

	return context + "\n\n---\n\n" + "Related concepts: " + strings.Join(descriptions, ", ")
}

// enhancedHit folds the links discovered for a result into the hit
// metadata, so they survive selection and reach the sources of the final
// result. The original result metadata is never mutated.
func enhancedHit(hit model.Hit, links []string, enhancement string) model.Hit {
	if len(links) == 0 && enhancement == "" {
		return hit
	}

	metadata := make(model.Metadata, len(hit.Metadata)+2)
	for key, value := range hit.Metadata {
		metadata[key] = value
	}
	if len(links) > 0 {
		metadata["ontological_links"] = links
	}
	if enhancement != "" {
		metadata["context_enhancement"] = enhancement
	}
	hit.Metadata = metadata
	return hit
}

// calculateConfidence estimates answer confidence from the average hit
// score, with small bonuses for source diversity and hit count, capped at 1
func calculateConfidence(hits []model.Hit) float64 {
	if len(hits) == 0 {
		return 0.0
	}

	sum := 0.0
	sourceTypes := map[model.SourceType]bool{}
	for _, hit := range hits {
		sum += hit.Score
		sourceTypes[hit.SourceType] = true
	}
	avgScore := sum / float64(len(hits))

	diversityBonus := 0.0
	if len(sourceTypes) > 1 {
		diversityBonus = 0.1
	}
	countBonus := min(float64(len(hits))/10, 0.1)

	return min(avgScore+diversityBonus+countBonus, 1.0)
}

func prepareSources(hits []model.Hit) []model.Source {
	sources := make([]model.Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, model.Source{
			Type:           hit.SourceType,
			Content:        hit.Content,
			Score:          hit.Score,
			Metadata:       hit.Metadata,
			RelevanceScore: hit.RelevanceScore,
		})
	}
	return sources
}

func sortByScore(hits []model.Hit) []model.Hit {
	sorted := make([]model.Hit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}
