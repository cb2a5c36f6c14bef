package store

import (
	dbmilvus "Jarvis_Memory/backend/go/internal/database/milvus"
	"Jarvis_Memory/backend/go/internal/embedding"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"fmt"
	"strings"
)

// MilvusStore is the VectorStore implementation backed by Milvus. Every
// search carries a user_id filter expression so similarity can never
// cross user boundaries, whatever the vectors look like.
type MilvusStore struct {
	client   *dbmilvus.MilvusClient
	embedder embedding.Embedding
}

// NewMilvusStore creates a MilvusStore.
func NewMilvusStore(client *dbmilvus.MilvusClient, embedder embedding.Embedding) *MilvusStore {
	return &MilvusStore{client: client, embedder: embedder}
}

// Upsert embeds the fact's value and writes the vector with its
// ownership metadata. Milvus has no in-place update for this schema, so
// an existing entry is deleted first.
func (s *MilvusStore) Upsert(ctx context.Context, fact *models.Fact) error {
	vector, err := s.embedder.Embed(ctx, fact.Value)
	if err != nil {
		return fmt.Errorf("failed to embed fact value: %w", err)
	}

	if err := s.Delete(ctx, fact.ID); err != nil {
		return err
	}
	if err := s.client.Insert(ctx, fact.ID, fact.UserID, string(fact.Category), vector); err != nil {
		return fmt.Errorf("failed to insert fact vector: %w", err)
	}
	return nil
}

// Search embeds the query and returns the user's nearest facts. Scores
// are cosine similarities in [0, 1]; thresholding is the caller's job.
func (s *MilvusStore) Search(ctx context.Context, userID, query string, topK int) ([]VectorMatch, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	expr := fmt.Sprintf("%s == %q", dbmilvus.FieldUserID, escapeExpr(userID))
	results, err := s.client.SearchScoped(ctx, vector, expr, topK)
	if err != nil {
		return nil, err
	}

	var matches []VectorMatch
	for _, result := range results {
		var idCol, userCol, catCol int
		for i, field := range result.Fields {
			switch field.Name() {
			case dbmilvus.FieldFactID:
				idCol = i
			case dbmilvus.FieldUserID:
				userCol = i
			case dbmilvus.FieldCategory:
				catCol = i
			}
		}
		for i := 0; i < result.ResultCount; i++ {
			factID, _ := result.Fields[idCol].GetAsString(i)
			owner, _ := result.Fields[userCol].GetAsString(i)
			category, _ := result.Fields[catCol].GetAsString(i)
			matches = append(matches, VectorMatch{
				FactID:   factID,
				UserID:   owner,
				Category: models.Category(category),
				Score:    float64(result.Scores[i]),
			})
		}
	}
	return matches, nil
}

// Delete removes the vector for one fact.
func (s *MilvusStore) Delete(ctx context.Context, factID string) error {
	expr := fmt.Sprintf("%s == %q", dbmilvus.FieldFactID, escapeExpr(factID))
	if err := s.client.DeleteByExpr(ctx, expr); err != nil {
		return fmt.Errorf("failed to delete fact vector: %w", err)
	}
	return nil
}

// DeleteUser removes every vector belonging to the user.
func (s *MilvusStore) DeleteUser(ctx context.Context, userID string) error {
	expr := fmt.Sprintf("%s == %q", dbmilvus.FieldUserID, escapeExpr(userID))
	if err := s.client.DeleteByExpr(ctx, expr); err != nil {
		return fmt.Errorf("failed to delete user vectors: %w", err)
	}
	return nil
}

// escapeExpr strips characters that could break out of a Milvus string
// literal. User ids and fact ids are already validated upstream; this
// is the last line of defense.
func escapeExpr(s string) string {
	s = strings.ReplaceAll(s, `\`, ``)
	return strings.ReplaceAll(s, `"`, ``)
}
