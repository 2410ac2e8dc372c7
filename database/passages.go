package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/fusion/helper"
	"github.com/siherrmann/fusion/model"
	loadSql "github.com/siherrmann/fusion/sql"
)

// PassagesDBHandlerFunctions defines the interface for Passages database operations.
type PassagesDBHandlerFunctions interface {
	InsertPassage(passage *model.Passage) error
	UpdatePassageEmbedding(passage *model.Passage) error
	DeletePassage(id int64) error
	SelectPassage(id int64) (*model.Passage, error)
	SelectPassagesByDocument(documentRID uuid.UUID) ([]*model.Passage, error)
	SelectAllPassages(lastID int64, limit int) ([]*model.Passage, error)
	SelectPassagesBySimilarity(embedding []float32, limit int, threshold float64, documentRIDs []uuid.UUID) ([]*model.Passage, error)
}

// PassagesDBHandler handles passage-related database operations
type PassagesDBHandler struct {
	db *helper.Database
}

// NewPassagesDBHandler creates a new passages database handler.
// It initializes the database connection and loads passage-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPassagesDBHandler(db *helper.Database, embeddingDim int, force bool) (*PassagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	passagesDbHandler := &PassagesDBHandler{
		db: db,
	}

	err := loadSql.LoadPassagesSql(passagesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load passages sql", err)
	}

	err = passagesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PassagesDBHandler")

	return passagesDbHandler, nil
}

// CreateTable creates the 'passages' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *PassagesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_passages($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing passages table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table passages")

	return nil
}

// InsertPassage inserts a new passage
func (h *PassagesDBHandler) InsertPassage(passage *model.Passage) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_passage($1, $2, $3, $4)`,
		passage.DocumentID,
		passage.Content,
		pq.Array(passage.Embedding),
		passage.Metadata,
	)

	err := row.Scan(
		&passage.ID,
		&passage.DocumentID,
		&passage.DocumentRID,
		&passage.Content,
		pq.Array(&passage.Embedding),
		&passage.Metadata,
		&passage.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpdatePassageEmbedding updates the embedding of a passage
func (h *PassagesDBHandler) UpdatePassageEmbedding(passage *model.Passage) error {
	embeddingVector := pgvector.NewVector(passage.Embedding)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_passage_embedding($1, $2)`,
		passage.ID,
		embeddingVector,
	)

	err := row.Scan(
		&passage.ID,
		&passage.DocumentID,
		&passage.DocumentRID,
		&passage.Content,
		pq.Array(&passage.Embedding),
		&passage.Metadata,
		&passage.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeletePassage deletes a passage by ID
func (h *PassagesDBHandler) DeletePassage(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_passage($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectPassage retrieves a passage by ID
func (h *PassagesDBHandler) SelectPassage(id int64) (*model.Passage, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_passage($1)`,
		id,
	)

	passage := &model.Passage{}
	err := row.Scan(
		&passage.ID,
		&passage.DocumentID,
		&passage.DocumentRID,
		&passage.Content,
		pq.Array(&passage.Embedding),
		&passage.Metadata,
		&passage.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return passage, nil
}

// SelectPassagesByDocument retrieves all passages for a document
func (h *PassagesDBHandler) SelectPassagesByDocument(documentRID uuid.UUID) ([]*model.Passage, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_passages_by_document($1)`,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var passages []*model.Passage
	for rows.Next() {
		passage := &model.Passage{}
		err := rows.Scan(
			&passage.ID,
			&passage.DocumentID,
			&passage.DocumentRID,
			&passage.Content,
			pq.Array(&passage.Embedding),
			&passage.Metadata,
			&passage.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		passages = append(passages, passage)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return passages, nil
}

// SelectAllPassages retrieves all passages with keyset pagination,
// used to build the cross-reference index
func (h *PassagesDBHandler) SelectAllPassages(lastID int64, limit int) ([]*model.Passage, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_passages($1, $2)`,
		lastID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var passages []*model.Passage
	for rows.Next() {
		passage := &model.Passage{}
		err := rows.Scan(
			&passage.ID,
			&passage.DocumentID,
			&passage.DocumentRID,
			&passage.Content,
			pq.Array(&passage.Embedding),
			&passage.Metadata,
			&passage.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		passages = append(passages, passage)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return passages, nil
}

// SelectPassagesBySimilarity performs vector similarity search.
// If documentRIDs is nil or empty, searches across all documents.
func (h *PassagesDBHandler) SelectPassagesBySimilarity(embedding []float32, limit int, threshold float64, documentRIDs []uuid.UUID) ([]*model.Passage, error) {
	embeddingVector := pgvector.NewVector(embedding)

	// Convert documentRIDs to PostgreSQL UUID array format
	var documentRIDsParam interface{}
	if len(documentRIDs) > 0 {
		documentRIDsParam = pq.Array(documentRIDs)
	} else {
		documentRIDsParam = nil
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_passages_by_similarity($1, $2, $3, $4)`,
		embeddingVector,
		limit,
		threshold,
		documentRIDsParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Passage
	for rows.Next() {
		passage := &model.Passage{}
		err := rows.Scan(
			&passage.ID,
			&passage.DocumentID,
			&passage.DocumentRID,
			&passage.Content,
			pq.Array(&passage.Embedding),
			&passage.Metadata,
			&passage.CreatedAt,
			&passage.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, passage)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}
