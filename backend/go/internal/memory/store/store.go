package store

import (
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by adapters when a lookup legitimately finds
// nothing. The fetch cascade treats it as a miss, not a failure.
var ErrNotFound = errors.New("not found")

// FactFilter narrows a document-store query. Zero values mean "any".
type FactFilter struct {
	Category models.Category
	// Query is free text; the adapter matches it against fact values.
	Query string
	Limit int
}

// CacheStore is the fast key-value tier. Entries are keyed by
// (user, category) and carry a TTL derived from the fact's importance.
type CacheStore interface {
	GetFact(ctx context.Context, userID string, category models.Category) (*models.Fact, error)
	SetFact(ctx context.Context, fact *models.Fact, ttl time.Duration) error
	DeleteFact(ctx context.Context, userID string, category models.Category) error
	// DeleteUser removes every cached entry belonging to the user.
	DeleteUser(ctx context.Context, userID string) error
}

// DocumentStore is the structured source of truth for facts.
type DocumentStore interface {
	Upsert(ctx context.Context, fact *models.Fact) error
	Find(ctx context.Context, userID string, filter FactFilter) ([]*models.Fact, error)
	GetByID(ctx context.Context, userID, factID string) (*models.Fact, error)
	Delete(ctx context.Context, userID, factID string) error
	DeleteUser(ctx context.Context, userID string) error
}

// GraphStore holds the user's relationship graph. Every edge carries
// the owning user id; queries are always scoped to one user.
type GraphStore interface {
	MergeRelation(ctx context.Context, rel models.Relation) error
	// QueryRelations returns the user's relations, optionally narrowed
	// to one relationship type (empty type means all).
	QueryRelations(ctx context.Context, userID string, relType models.RelationshipType) ([]models.Relation, error)
	DeleteFact(ctx context.Context, userID, factID string) error
	DeleteUser(ctx context.Context, userID string) error
}

// VectorMatch is one semantic-search hit: the fact it points at and the
// similarity score in [0, 1].
type VectorMatch struct {
	FactID   string
	UserID   string
	Category models.Category
	Score    float64
}

// VectorStore indexes fact values by embedding for semantic recall.
type VectorStore interface {
	Upsert(ctx context.Context, fact *models.Fact) error
	Search(ctx context.Context, userID, query string, topK int) ([]VectorMatch, error)
	Delete(ctx context.Context, factID string) error
	DeleteUser(ctx context.Context, userID string) error
}
