package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/fusion"
	"github.com/siherrmann/fusion/core/pipeline"
	"github.com/siherrmann/fusion/helper"
	"github.com/siherrmann/fusion/model"
)

var samplePassages = []string{
	"Graph databases are designed to store and query data with complex relationships. They use nodes to represent entities and edges to represent relationships between them.",
	"Vector databases store high-dimensional embeddings and answer nearest-neighbor queries. They excel at semantic similarity search over unstructured text.",
	"Hybrid retrieval combines semantic similarity search with graph traversal. Routing a query to the right channel improves both recall and precision.",
	"PostgreSQL with the pgvector extension can serve as both a vector store and, with a relation table, a simple knowledge graph.",
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	f, err := fusion.NewWithDatabase(dbConfig, pipeline.DefaultEmbeddingDim, nil)
	if err != nil {
		log.Fatalf("Failed to create fusion: %v", err)
	}
	defer f.Close()

	// Ingest a document with embedded passages
	doc := &model.Document{
		Title:  "Retrieval Architectures",
		Source: "basic_example",
		Metadata: model.Metadata{
			"author": "Example Author",
			"topic":  "retrieval",
		},
	}

	fmt.Println("Ingesting document...")
	numPassages, err := f.AddDocument(doc, samplePassages)
	if err != nil {
		log.Fatalf("Failed to add document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)
	fmt.Printf("Inserted %d passages\n", numPassages)

	count, err := f.Documents.CountDocuments()
	if err != nil {
		log.Fatalf("Failed to count documents: %v", err)
	}
	fmt.Printf("Documents stored: %d\n", count)

	// Seed a couple of graph entities and a relation
	vectorDB := &model.Entity{Name: "Vector Database", Type: "CONCEPT", Description: "Stores embeddings for similarity search"}
	graphDB := &model.Entity{Name: "Graph Database", Type: "CONCEPT", Description: "Stores entities and typed relationships"}
	for _, entity := range []*model.Entity{vectorDB, graphDB} {
		if err := f.Entities.InsertEntity(entity); err != nil {
			log.Fatalf("Failed to insert entity: %v", err)
		}
	}
	relation := &model.Relation{
		SourceEntityID: vectorDB.ID,
		TargetEntityID: graphDB.ID,
		RelationType:   model.RelationTypeRelatedTo,
		Weight:         0.8,
		Bidirectional:  true,
		Metadata:       model.Metadata{},
	}
	if err := f.Relations.InsertRelation(relation); err != nil {
		log.Fatalf("Failed to insert relation: %v", err)
	}

	// Bootstrap the ontology and cross-reference index from stored data
	if err := f.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	// Run queries with different shapes to exercise the router
	queries := []string{
		"What is a vector database?",
		"How are vector databases and graph databases connected?",
		"Explain the relationship between hybrid retrieval, semantic similarity search and graph traversal in modern systems",
	}

	for _, query := range queries {
		fmt.Printf("\nQuerying: %s\n", query)

		result, err := f.Query(context.Background(), query, nil)
		if err != nil {
			log.Fatalf("Failed to query: %v", err)
		}

		fmt.Printf("Strategy: %s\n", result.Strategy)
		fmt.Printf("Confidence: %.2f\n", result.Confidence)
		fmt.Printf("Sources: %d\n", len(result.Sources))
		fmt.Printf("Context:\n%s\n", result.Context)
	}

	// Routing statistics accumulated across the queries
	stats := f.Stats()
	fmt.Printf("\nRouted %d queries (vector %d, graph %d, hybrid %d)\n",
		stats.TotalQueries, stats.VectorQueries, stats.GraphQueries, stats.HybridQueries)

	cacheStats := f.CacheStats()
	fmt.Printf("Ontology cache hit rate: %.2f\n", cacheStats.HitRate)

	fmt.Println("\nBasic example completed successfully!")
}
