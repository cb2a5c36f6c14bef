package store

import (
	dbmongo "Jarvis_Memory/backend/go/internal/database/mongo"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the DocumentStore implementation backed by MongoDB.
// Every filter includes the owning user id; there is no code path that
// queries the collection without one.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a MongoStore over the configured collection.
func NewMongoStore(client *dbmongo.MongoClient) *MongoStore {
	coll := client.Config.Collection
	if coll == "" {
		coll = "facts"
	}
	return &MongoStore{collection: client.Database().Collection(coll)}
}

// Upsert writes fact keyed by its id, always re-stamping user_id in the
// filter so a buggy caller cannot move a fact between users.
func (s *MongoStore) Upsert(ctx context.Context, fact *models.Fact) error {
	filter := bson.M{"_id": fact.ID, "user_id": fact.UserID}
	update := bson.M{"$set": fact}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("mongo upsert failed: %w", err)
	}
	return nil
}

// Find returns the user's facts matching the filter, most recent first.
// A non-empty Query is matched case-insensitively against fact values
// and original text.
func (s *MongoStore) Find(ctx context.Context, userID string, filter FactFilter) ([]*models.Fact, error) {
	query := bson.M{"user_id": userID}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if terms := significantTerms(filter.Query); len(terms) > 0 {
		var clauses []bson.M
		for _, term := range terms {
			re := primitive.Regex{Pattern: regexQuoteMeta(term), Options: "i"}
			clauses = append(clauses, bson.M{"$or": []bson.M{
				{"value": re},
				{"original_text": re},
			}})
		}
		query["$or"] = clauses
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var facts []*models.Fact
	if err := cursor.All(ctx, &facts); err != nil {
		return nil, fmt.Errorf("mongo cursor decode failed: %w", err)
	}
	return facts, nil
}

// GetByID fetches one fact by id, scoped to the user.
func (s *MongoStore) GetByID(ctx context.Context, userID, factID string) (*models.Fact, error) {
	var fact models.Fact
	err := s.collection.FindOne(ctx, bson.M{"_id": factID, "user_id": userID}).Decode(&fact)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find one failed: %w", err)
	}
	return &fact, nil
}

// Delete removes one fact, scoped to the user.
func (s *MongoStore) Delete(ctx context.Context, userID, factID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": factID, "user_id": userID}); err != nil {
		return fmt.Errorf("mongo delete failed: %w", err)
	}
	return nil
}

// DeleteUser removes every fact belonging to the user.
func (s *MongoStore) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("mongo delete many failed: %w", err)
	}
	return nil
}

// significantTerms splits a free-text query into lowercase terms worth
// matching, dropping short stopword-like tokens.
func significantTerms(query string) []string {
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		tok = strings.Trim(tok, ".,!?;:\"'")
		if len([]rune(tok)) >= 3 {
			terms = append(terms, tok)
		}
	}
	return terms
}

// regexQuoteMeta escapes regex metacharacters so user text is matched
// literally.
func regexQuoteMeta(s string) string {
	const meta = `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(meta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
