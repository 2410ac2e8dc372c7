package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/siherrmann/fusion/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestDocument(t *testing.T, handler *DocumentsDBHandler, title string, source string) *model.Document {
	t.Helper()
	doc := &model.Document{
		Title:    title,
		Source:   source,
		Metadata: model.Metadata{"topic": "retrieval"},
	}
	require.NoError(t, handler.InsertDocument(doc), "Expected InsertDocument to not return an error")
	t.Cleanup(func() { handler.DeleteDocument(doc.RID) })
	return doc
}

func TestDocumentsNewDocumentsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewDocumentsDBHandler", func(t *testing.T) {
		documentsDbHandler, err := NewDocumentsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")
		require.NotNil(t, documentsDbHandler, "Expected NewDocumentsDBHandler to return a non-nil instance")
		require.NotNil(t, documentsDbHandler.db, "Expected NewDocumentsDBHandler to have a non-nil database instance")
		require.NotNil(t, documentsDbHandler.db.Instance, "Expected NewDocumentsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewDocumentsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating DocumentsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestDocumentsInsert(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	t.Run("Insert document fills generated columns", func(t *testing.T) {
		doc := &model.Document{
			Title:    "Hybrid Retrieval Survey",
			Source:   "survey.md",
			Metadata: model.Metadata{"author": "Test Author", "year": 2026},
		}

		err := documentsDbHandler.InsertDocument(doc)
		assert.NoError(t, err, "Expected InsertDocument to not return an error")
		assert.NotZero(t, doc.ID, "Expected inserted document to have an ID")
		assert.NotEmpty(t, doc.RID, "Expected inserted document to have a RID")
		assert.WithinDuration(t, doc.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
		assert.WithinDuration(t, doc.UpdatedAt, time.Now(), 2*time.Second, "Expected UpdatedAt to be set")

		// Cleanup
		documentsDbHandler.DeleteDocument(doc.RID)
	})

	t.Run("Insert document without metadata defaults to an empty object", func(t *testing.T) {
		doc := &model.Document{
			Title:  "Bare Document",
			Source: "bare.md",
		}

		err := documentsDbHandler.InsertDocument(doc)
		assert.NoError(t, err, "Expected InsertDocument to not return an error")
		assert.NotNil(t, doc.Metadata, "Expected metadata to come back as an empty map")

		// Cleanup
		documentsDbHandler.DeleteDocument(doc.RID)
	})
}

func TestDocumentsGet(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	doc := insertTestDocument(t, documentsDbHandler, "Vector Search Primer", "primer.md")

	retrievedDoc, err := documentsDbHandler.SelectDocument(doc.RID)
	assert.NoError(t, err, "Expected SelectDocument to not return an error")
	require.NotNil(t, retrievedDoc, "Expected SelectDocument to return a non-nil document")
	assert.Equal(t, doc.RID, retrievedDoc.RID, "Expected document RIDs to match")
	assert.Equal(t, doc.Title, retrievedDoc.Title, "Expected titles to match")
	assert.Equal(t, doc.Source, retrievedDoc.Source, "Expected sources to match")
	assert.Equal(t, "retrieval", retrievedDoc.Metadata.String("topic"), "Expected metadata to round-trip")
}

func TestDocumentsGetAll(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	docCount := 5
	for i := 0; i < docCount; i++ {
		insertTestDocument(t, documentsDbHandler, fmt.Sprintf("Knowledge Graph Notes %d", i), "notes.md")
	}

	t.Run("Select all documents", func(t *testing.T) {
		retrievedDocs, err := documentsDbHandler.SelectAllDocuments(nil, 10)
		assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
		assert.GreaterOrEqual(t, len(retrievedDocs), docCount, "Expected to retrieve at least the inserted documents")
	})

	t.Run("Page by created_at of the last document", func(t *testing.T) {
		firstPage, err := documentsDbHandler.SelectAllDocuments(nil, 3)
		require.NoError(t, err, "Expected SelectAllDocuments to not return an error")
		require.Len(t, firstPage, 3, "Expected a full first page")

		lastSeen := firstPage[len(firstPage)-1].CreatedAt
		secondPage, err := documentsDbHandler.SelectAllDocuments(&lastSeen, 3)
		assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
		for _, doc := range secondPage {
			assert.True(t, doc.CreatedAt.After(lastSeen), "Expected the second page to start after the first")
		}
	})
}

func TestDocumentsSearch(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	searchTerm := "Ontology"
	for i := 0; i < 3; i++ {
		insertTestDocument(t, documentsDbHandler, fmt.Sprintf("%s Handbook %d", searchTerm, i), "handbook.md")
	}
	insertTestDocument(t, documentsDbHandler, "Unrelated Reading", "reading.md")
	insertTestDocument(t, documentsDbHandler, "Another Unrelated Title", "ontology_archive.md")

	t.Run("Search matches title", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySearch(searchTerm, 10)
		assert.NoError(t, err, "Expected SelectDocumentsBySearch to not return an error")
		require.NotEmpty(t, results, "Expected matching documents")
		for _, doc := range results {
			matchesTitle := doc.Title != "Unrelated Reading"
			assert.True(t, matchesTitle, "Expected only documents matching title or source")
		}
	})

	t.Run("Search matches source", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySearch("archive", 10)
		assert.NoError(t, err, "Expected SelectDocumentsBySearch to not return an error")
		require.Len(t, results, 1, "Expected the source match to be found")
		assert.Equal(t, "ontology_archive.md", results[0].Source, "Expected the document with the matching source")
	})

	t.Run("Search with no matches returns empty", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySearch("zzzzzz", 10)
		assert.NoError(t, err, "Expected SelectDocumentsBySearch to not return an error")
		assert.Empty(t, results, "Expected no documents for a nonsense term")
	})
}

func TestDocumentsCount(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	before, err := documentsDbHandler.CountDocuments()
	require.NoError(t, err, "Expected CountDocuments to not return an error")

	insertTestDocument(t, documentsDbHandler, "Counted Document A", "count.md")
	insertTestDocument(t, documentsDbHandler, "Counted Document B", "count.md")

	after, err := documentsDbHandler.CountDocuments()
	assert.NoError(t, err, "Expected CountDocuments to not return an error")
	assert.Equal(t, before+2, after, "Expected the count to grow by the inserted documents")
}

func TestDocumentsUpdate(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	doc := insertTestDocument(t, documentsDbHandler, "Original Title", "original.md")
	createdAt := doc.CreatedAt

	doc.Title = "Updated Title"
	doc.Source = "updated.md"
	doc.Metadata = model.Metadata{"version": 2}

	err = documentsDbHandler.UpdateDocument(doc)
	assert.NoError(t, err, "Expected UpdateDocument to not return an error")

	retrievedDoc, err := documentsDbHandler.SelectDocument(doc.RID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", retrievedDoc.Title, "Expected title to be updated")
	assert.Equal(t, "updated.md", retrievedDoc.Source, "Expected source to be updated")
	assert.Equal(t, float64(2), retrievedDoc.Metadata["version"], "Expected metadata to be replaced")
	assert.True(t, retrievedDoc.CreatedAt.Equal(createdAt), "Expected CreatedAt to be unchanged")
	assert.False(t, retrievedDoc.UpdatedAt.Before(retrievedDoc.CreatedAt), "Expected UpdatedAt to be bumped")
}

func TestDocumentsDelete(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	doc := &model.Document{
		Title:    "Short Lived Document",
		Source:   "gone.md",
		Metadata: model.Metadata{},
	}
	require.NoError(t, documentsDbHandler.InsertDocument(doc))

	err = documentsDbHandler.DeleteDocument(doc.RID)
	assert.NoError(t, err, "Expected DeleteDocument to not return an error")

	_, err = documentsDbHandler.SelectDocument(doc.RID)
	assert.Error(t, err, "Expected SelectDocument to return an error for a deleted document")
}
