package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/fusion/helper"
	"github.com/siherrmann/fusion/model"
	loadSql "github.com/siherrmann/fusion/sql"
)

// RelationsDBHandlerFunctions defines the interface for Relations database operations.
type RelationsDBHandlerFunctions interface {
	InsertRelation(relation *model.Relation) error
	SelectRelation(id int64) (*model.Relation, error)
	SelectRelationsFromEntity(entityID int64, relationType *model.RelationType) ([]*model.Relation, error)
	SelectRelationsToEntity(entityID int64, relationType *model.RelationType) ([]*model.Relation, error)
	SelectRelationsConnectedToEntity(entityID int64, relationType *model.RelationType) ([]*model.Relation, error)
	DeleteRelation(id int64) error
	UpdateRelationWeight(id int64, weight float64) error
	TraverseFromEntity(startEntityID int64, maxDepth int, relationType *model.RelationType) ([]*model.TraversalNode, error)
}

// RelationsDBHandler handles relation-related database operations
type RelationsDBHandler struct {
	db *helper.Database
}

// NewRelationsDBHandler creates a new relations database handler.
// It initializes the database connection and loads relation-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationsDBHandler(db *helper.Database, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationsDbHandler := &RelationsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relations sql", err)
	}

	err = relationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'relations' table in the database.
// If the table already exists, it does not create it again.
// It also creates the relation_type enum and all necessary indexes.
func (h *RelationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relations();`)
	if err != nil {
		log.Panicf("error initializing relations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relations")

	return nil
}

// InsertRelation inserts a new relation between two entities
func (h *RelationsDBHandler) InsertRelation(relation *model.Relation) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_relation($1, $2, $3, $4, $5, $6)`,
		relation.SourceEntityID,
		relation.TargetEntityID,
		relation.RelationType,
		relation.Weight,
		relation.Bidirectional,
		relation.Metadata,
	)

	err := row.Scan(
		&relation.ID,
		&relation.SourceEntityID,
		&relation.TargetEntityID,
		&relation.RelationType,
		&relation.Weight,
		&relation.Bidirectional,
		&relation.Metadata,
		&relation.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelation retrieves a relation by ID
func (h *RelationsDBHandler) SelectRelation(id int64) (*model.Relation, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_relation($1)`,
		id,
	)

	relation := &model.Relation{}
	err := row.Scan(
		&relation.ID,
		&relation.SourceEntityID,
		&relation.TargetEntityID,
		&relation.RelationType,
		&relation.Weight,
		&relation.Bidirectional,
		&relation.Metadata,
		&relation.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relation, nil
}

// SelectRelationsFromEntity retrieves all relations starting at an entity
func (h *RelationsDBHandler) SelectRelationsFromEntity(entityID int64, relationType *model.RelationType) ([]*model.Relation, error) {
	return h.selectRelations(`SELECT * FROM select_relations_from_entity($1, $2)`, entityID, relationType)
}

// SelectRelationsToEntity retrieves all relations ending at an entity
func (h *RelationsDBHandler) SelectRelationsToEntity(entityID int64, relationType *model.RelationType) ([]*model.Relation, error) {
	return h.selectRelations(`SELECT * FROM select_relations_to_entity($1, $2)`, entityID, relationType)
}

// SelectRelationsConnectedToEntity retrieves all relations touching an
// entity in either direction
func (h *RelationsDBHandler) SelectRelationsConnectedToEntity(entityID int64, relationType *model.RelationType) ([]*model.Relation, error) {
	return h.selectRelations(`SELECT * FROM select_relations_connected_to_entity($1, $2)`, entityID, relationType)
}

func (h *RelationsDBHandler) selectRelations(query string, entityID int64, relationType *model.RelationType) ([]*model.Relation, error) {
	rows, err := h.db.Instance.Query(query, entityID, relationType)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relations []*model.Relation
	for rows.Next() {
		relation := &model.Relation{}
		err := rows.Scan(
			&relation.ID,
			&relation.SourceEntityID,
			&relation.TargetEntityID,
			&relation.RelationType,
			&relation.Weight,
			&relation.Bidirectional,
			&relation.Metadata,
			&relation.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relations = append(relations, relation)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relations, nil
}

// DeleteRelation deletes a relation by ID
func (h *RelationsDBHandler) DeleteRelation(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relation($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpdateRelationWeight updates the weight of a relation
func (h *RelationsDBHandler) UpdateRelationWeight(id int64, weight float64) error {
	_, err := h.db.Instance.Exec(
		`SELECT update_relation_weight($1, $2)`,
		id,
		weight,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// TraverseFromEntity performs a breadth-first traversal of the relation
// graph starting at an entity, following bidirectional relations both
// ways, up to maxDepth hops
func (h *RelationsDBHandler) TraverseFromEntity(startEntityID int64, maxDepth int, relationType *model.RelationType) ([]*model.TraversalNode, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM traverse_bfs_from_entity($1, $2, $3)`,
		startEntityID,
		maxDepth,
		relationType,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var nodes []*model.TraversalNode
	for rows.Next() {
		node := &model.TraversalNode{}
		err := rows.Scan(
			&node.Entity.ID,
			&node.Entity.Name,
			&node.Entity.Type,
			&node.Entity.Description,
			&node.Entity.Metadata,
			&node.Entity.CreatedAt,
			&node.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return nodes, nil
}
