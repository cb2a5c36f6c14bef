package store

import (
	dbneo4j "Jarvis_Memory/backend/go/internal/database/neo4j"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// validRelTypes and validLabels pin the Cypher fragments the store may
// interpolate. Relation types and labels arrive from the router's
// closed tables, but the store re-checks membership so no dynamic
// string can ever reach a query.
var validRelTypes = map[models.RelationshipType]bool{
	models.RelLivesIn: true, models.RelWorksAs: true, models.RelLikes: true,
	models.RelDislikes: true, models.RelKnows: true, models.RelHasSkill: true,
	models.RelInterestedIn: true, models.RelPursues: true, models.RelWorksOn: true,
	models.RelSpeaks: true, models.RelHasAttribute: true,
}

var validLabels = map[models.NodeLabel]bool{
	models.LabelUser: true, models.LabelPlace: true, models.LabelOccupation: true,
	models.LabelTopic: true, models.LabelPerson: true, models.LabelSkill: true,
	models.LabelProject: true, models.LabelLanguage: true, models.LabelAttribute: true,
}

// Neo4jStore is the GraphStore implementation backed by Neo4j. Both the
// user node and every target node carry the user id, and all queries
// match on it, so one user's graph is invisible to another's.
type Neo4jStore struct {
	client *dbneo4j.Neo4jClient
}

// NewNeo4jStore creates a Neo4jStore.
func NewNeo4jStore(client *dbneo4j.Neo4jClient) *Neo4jStore {
	return &Neo4jStore{client: client}
}

// MergeRelation upserts one user-scoped edge. MERGE keeps the graph
// idempotent: re-storing the same fact refreshes the edge instead of
// duplicating it.
func (s *Neo4jStore) MergeRelation(ctx context.Context, rel models.Relation) error {
	if !validRelTypes[rel.Type] {
		return fmt.Errorf("relationship type %q is not in the closed set", rel.Type)
	}
	if !validLabels[rel.TargetLabel] {
		return fmt.Errorf("node label %q is not in the closed set", rel.TargetLabel)
	}

	query := fmt.Sprintf(`
	MERGE (u:User {user_id: $user_id})
	MERGE (t:%s {name: $target_value, user_id: $user_id})
	MERGE (u)-[r:%s]->(t)
	SET r.fact_id = $fact_id
	`, rel.TargetLabel, rel.Type)

	params := map[string]interface{}{
		"user_id":      rel.UserID,
		"target_value": rel.TargetValue,
		"fact_id":      rel.FactID,
	}

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("failed to merge relation: %w", err)
	}
	return nil
}

// QueryRelations returns the user's edges, optionally narrowed to one
// relationship type.
func (s *Neo4jStore) QueryRelations(ctx context.Context, userID string, relType models.RelationshipType) ([]models.Relation, error) {
	query := `
	MATCH (u:User {user_id: $user_id})-[r]->(t {user_id: $user_id})
	WHERE $rel_type = '' OR type(r) = $rel_type
	RETURN type(r) AS type, labels(t) AS labels, t.name AS target, r.fact_id AS fact_id
	`
	params := map[string]interface{}{
		"user_id":  userID,
		"rel_type": string(relType),
	}

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		var relations []models.Relation
		for res.Next(ctx) {
			record := res.Record()
			relTypeVal, _ := record.Get("type")
			target, _ := record.Get("target")
			factID, _ := record.Get("fact_id")
			labelsVal, _ := record.Get("labels")

			rel := models.Relation{
				UserID:      userID,
				Type:        models.RelationshipType(asString(relTypeVal)),
				TargetValue: asString(target),
				FactID:      asString(factID),
			}
			if labels, ok := labelsVal.([]interface{}); ok && len(labels) > 0 {
				rel.TargetLabel = models.NodeLabel(asString(labels[0]))
			}
			relations = append(relations, rel)
		}
		return relations, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	return result.([]models.Relation), nil
}

// DeleteFact removes the edge(s) recorded for one fact and cleans up
// target nodes left without any relationship.
func (s *Neo4jStore) DeleteFact(ctx context.Context, userID, factID string) error {
	query := `
	MATCH (u:User {user_id: $user_id})-[r {fact_id: $fact_id}]->(t)
	DELETE r
	WITH t
	WHERE NOT (t)--() AND t.user_id = $user_id
	DELETE t
	`
	params := map[string]interface{}{
		"user_id": userID,
		"fact_id": factID,
	}
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("failed to delete fact edges: %w", err)
	}
	return nil
}

// DeleteUser detaches and removes every node carrying the user id.
func (s *Neo4jStore) DeleteUser(ctx context.Context, userID string) error {
	query := `
	MATCH (n {user_id: $user_id})
	DETACH DELETE n
	`
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, query, map[string]interface{}{"user_id": userID})
	})
	if err != nil {
		return fmt.Errorf("failed to delete user graph: %w", err)
	}
	return nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
