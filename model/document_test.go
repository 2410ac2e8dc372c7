package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentFromFile(t *testing.T) {
	t.Run("Successfully reads file and creates document", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "retrieval_notes.txt")
		content := "Vector search complements graph traversal."
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))

		doc, fileContent, err := NewDocumentFromFile(filePath, Metadata{"author": "test"})

		require.NoError(t, err)
		assert.Equal(t, "retrieval_notes", doc.Title, "Title should be the filename without extension")
		assert.Equal(t, filePath, doc.Source, "Source should be the file path")
		assert.Equal(t, content, fileContent, "Content should match the file content")
		assert.Equal(t, "test", doc.Metadata["author"])
	})

	t.Run("Returns error for non-existent file", func(t *testing.T) {
		doc, _, err := NewDocumentFromFile("/non/existent/file.txt", nil)

		require.Error(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Nil metadata becomes an empty map", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "plain.md")
		require.NoError(t, os.WriteFile(filePath, []byte("content"), 0644))

		doc, _, err := NewDocumentFromFile(filePath, nil)

		require.NoError(t, err)
		require.NotNil(t, doc.Metadata, "Metadata should be usable without a nil check")
		assert.Empty(t, doc.Metadata)
	})

	t.Run("Handles file without extension", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "README")
		require.NoError(t, os.WriteFile(filePath, []byte("Readme content"), 0644))

		doc, fileContent, err := NewDocumentFromFile(filePath, nil)

		require.NoError(t, err)
		assert.Equal(t, "README", doc.Title, "Title should keep the full name when there is no extension")
		assert.Equal(t, "Readme content", fileContent)
	})

	t.Run("Handles empty file", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "empty.txt")
		require.NoError(t, os.WriteFile(filePath, []byte(""), 0644))

		doc, fileContent, err := NewDocumentFromFile(filePath, nil)

		require.NoError(t, err)
		assert.Equal(t, "empty", doc.Title)
		assert.Empty(t, fileContent)
	})
}
