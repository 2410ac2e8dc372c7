package database

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/helper"
	"github.com/siherrmann/fusion/model"
)

// providerPageSize is the batch size for full-table scans
const providerPageSize = 500

// maxNeighborNames bounds how many related entities are folded into a
// graph result's content
const maxNeighborNames = 5

// VectorProvider is the Postgres-backed semantic search channel. It embeds
// the query and runs pgvector similarity search over stored passages.
type VectorProvider struct {
	passages  PassagesDBHandlerFunctions
	embed     pipeline.EmbedFunc
	threshold float64
	log       *slog.Logger
}

// NewVectorProvider creates a vector provider over the passages handler
func NewVectorProvider(passages PassagesDBHandlerFunctions, embed pipeline.EmbedFunc, threshold float64, logger *slog.Logger) *VectorProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VectorProvider{
		passages:  passages,
		embed:     embed,
		threshold: threshold,
		log:       logger,
	}
}

// Search embeds the query and returns the most similar passages
func (p *VectorProvider) Search(ctx context.Context, query string, limit int) ([]model.VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding, err := p.embed(query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	passages, err := p.passages.SelectPassagesBySimilarity(embedding, limit, p.threshold, nil)
	if err != nil {
		return nil, helper.NewError("select passages by similarity", err)
	}

	results := make([]model.VectorResult, 0, len(passages))
	for _, passage := range passages {
		score := 0.0
		if passage.Similarity != nil {
			score = *passage.Similarity
		}
		results = append(results, model.VectorResult{
			ID:       strconv.FormatInt(passage.ID, 10),
			Content:  passage.Content,
			Score:    score,
			Metadata: passage.Metadata,
		})
	}

	p.log.Debug("Vector search", slog.String("query", query), slog.Int("results", len(results)))

	return results, nil
}

// AllDocuments pages through every stored passage
func (p *VectorProvider) AllDocuments(ctx context.Context) ([]model.VectorResult, error) {
	var results []model.VectorResult
	lastID := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		passages, err := p.passages.SelectAllPassages(lastID, providerPageSize)
		if err != nil {
			return nil, helper.NewError("select all passages", err)
		}
		if len(passages) == 0 {
			break
		}

		for _, passage := range passages {
			results = append(results, model.VectorResult{
				ID:       strconv.FormatInt(passage.ID, 10),
				Content:  passage.Content,
				Metadata: passage.Metadata,
			})
		}
		lastID = passages[len(passages)-1].ID
	}

	return results, nil
}

// GraphProvider is the Postgres-backed knowledge-graph search channel.
// Queries match entities by trigram similarity; each result folds in the
// names of directly related entities.
type GraphProvider struct {
	entities  EntitiesDBHandlerFunctions
	relations RelationsDBHandlerFunctions
	log       *slog.Logger
}

// NewGraphProvider creates a graph provider over the entities and
// relations handlers
func NewGraphProvider(entities EntitiesDBHandlerFunctions, relations RelationsDBHandlerFunctions, logger *slog.Logger) *GraphProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GraphProvider{
		entities:  entities,
		relations: relations,
		log:       logger,
	}
}

// Search returns entity-centric results for the query, most similar first
func (p *GraphProvider) Search(ctx context.Context, query string, limit int) ([]model.GraphResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities, err := p.entities.SelectEntitiesBySearch(query, nil, limit)
	if err != nil {
		return nil, helper.NewError("select entities by search", err)
	}

	results := make([]model.GraphResult, 0, len(entities))
	for _, entity := range entities {
		score := 0.0
		if entity.Similarity != nil {
			score = *entity.Similarity
		}

		results = append(results, model.GraphResult{
			Content:    p.entityContent(entity),
			Score:      score,
			EntityName: entity.Name,
			EntityID:   strconv.FormatInt(entity.ID, 10),
			Metadata: model.Metadata{
				"title":       entity.Name,
				"entity_type": entity.Type,
			},
		})
	}

	p.log.Debug("Graph search", slog.String("query", query), slog.Int("results", len(results)))

	return results, nil
}

// AllEntities pages through every stored entity
func (p *GraphProvider) AllEntities(ctx context.Context) ([]model.GraphEntity, error) {
	var results []model.GraphEntity
	lastID := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entities, err := p.entities.SelectAllEntities(lastID, providerPageSize)
		if err != nil {
			return nil, helper.NewError("select all entities", err)
		}
		if len(entities) == 0 {
			break
		}

		for _, entity := range entities {
			results = append(results, model.GraphEntity{
				ID:          strconv.FormatInt(entity.ID, 10),
				Name:        entity.Name,
				Type:        entity.Type,
				Description: entity.Description,
			})
		}
		lastID = entities[len(entities)-1].ID
	}

	return results, nil
}

// entityContent renders an entity and its direct neighborhood as a text
// block usable in a synthesized context
func (p *GraphProvider) entityContent(entity *model.Entity) string {
	var builder strings.Builder
	builder.WriteString(entity.Name)
	if entity.Type != "" {
		builder.WriteString(" (" + entity.Type + ")")
	}
	if entity.Description != "" {
		builder.WriteString(": " + entity.Description)
	}

	neighbors := p.neighborNames(entity.ID)
	if len(neighbors) > 0 {
		builder.WriteString(". Related to: " + strings.Join(neighbors, ", "))
	}

	return builder.String()
}

// neighborNames resolves the names of directly related entities. Lookup
// failures degrade to fewer names instead of failing the search.
func (p *GraphProvider) neighborNames(entityID int64) []string {
	relations, err := p.relations.SelectRelationsConnectedToEntity(entityID, nil)
	if err != nil {
		p.log.Warn("Failed to load relations for entity", slog.Int64("entityID", entityID), slog.Any("error", err))
		return nil
	}

	var names []string
	seen := map[int64]bool{entityID: true}
	for _, relation := range relations {
		neighborID := relation.TargetEntityID
		if neighborID == entityID {
			neighborID = relation.SourceEntityID
		}
		if seen[neighborID] {
			continue
		}
		seen[neighborID] = true

		neighbor, err := p.entities.SelectEntity(neighborID)
		if err != nil {
			continue
		}
		names = append(names, neighbor.Name)

		if len(names) >= maxNeighborNames {
			break
		}
	}

	return names
}
