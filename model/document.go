package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document whose passages are stored in the
// vector provider. Content itself lives in the passages; the document row
// carries identity and metadata only.
type Document struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocumentFromFile reads a file and returns a document for it together
// with the raw content. The title is the file name without extension, the
// source is the file path. Split the content into passages before handing
// it to ingestion.
func NewDocumentFromFile(path string, metadata Metadata) (*Document, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if metadata == nil {
		metadata = Metadata{}
	}

	return &Document{
		Title:    title,
		Source:   path,
		Metadata: metadata,
	}, string(content), nil
}
