package store

import (
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"strings"
	"sync"
	"time"
)

// In-memory adapter implementations. They back local development
// without the full store fleet and give engine tests deterministic
// stores with injectable failures.

// MemCache is an in-memory CacheStore with TTL expiry.
type MemCache struct {
	mu      sync.RWMutex
	entries map[string]memCacheEntry
	// FailWith, when set, makes every operation return this error.
	FailWith error
}

type memCacheEntry struct {
	fact      models.Fact
	expiresAt time.Time
}

// NewMemCache creates an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string]memCacheEntry)}
}

func (c *MemCache) GetFact(ctx context.Context, userID string, category models.Category) (*models.Fact, error) {
	if c.FailWith != nil {
		return nil, c.FailWith
	}
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(userID, category)]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	fact := entry.fact
	return &fact, nil
}

func (c *MemCache) SetFact(ctx context.Context, fact *models.Fact, ttl time.Duration) error {
	if c.FailWith != nil {
		return c.FailWith
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(fact.UserID, fact.Category)] = memCacheEntry{
		fact:      *fact,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *MemCache) DeleteFact(ctx context.Context, userID string, category models.Category) error {
	if c.FailWith != nil {
		return c.FailWith
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(userID, category))
	return nil
}

func (c *MemCache) DeleteUser(ctx context.Context, userID string) error {
	if c.FailWith != nil {
		return c.FailWith
	}
	prefix := "memory:" + userID + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// MemDocuments is an in-memory DocumentStore.
type MemDocuments struct {
	mu    sync.RWMutex
	facts map[string]models.Fact // fact id -> fact
	// FailWith, when set, makes every operation return this error.
	FailWith error
}

// NewMemDocuments creates an empty MemDocuments.
func NewMemDocuments() *MemDocuments {
	return &MemDocuments{facts: make(map[string]models.Fact)}
}

func (d *MemDocuments) Upsert(ctx context.Context, fact *models.Fact) error {
	if d.FailWith != nil {
		return d.FailWith
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facts[fact.ID] = *fact
	return nil
}

func (d *MemDocuments) Find(ctx context.Context, userID string, filter FactFilter) ([]*models.Fact, error) {
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	terms := significantTerms(filter.Query)

	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*models.Fact
	for _, fact := range d.facts {
		if fact.UserID != userID {
			continue
		}
		if filter.Category != "" && fact.Category != filter.Category {
			continue
		}
		if len(terms) > 0 && !matchesAnyTerm(fact, terms) {
			continue
		}
		f := fact
		out = append(out, &f)
	}
	// Most recent first, matching the Mongo adapter's sort.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].UpdatedAt.After(out[i].UpdatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (d *MemDocuments) GetByID(ctx context.Context, userID, factID string) (*models.Fact, error) {
	if d.FailWith != nil {
		return nil, d.FailWith
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	fact, ok := d.facts[factID]
	if !ok || fact.UserID != userID {
		return nil, ErrNotFound
	}
	f := fact
	return &f, nil
}

func (d *MemDocuments) Delete(ctx context.Context, userID, factID string) error {
	if d.FailWith != nil {
		return d.FailWith
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if fact, ok := d.facts[factID]; ok && fact.UserID == userID {
		delete(d.facts, factID)
	}
	return nil
}

func (d *MemDocuments) DeleteUser(ctx context.Context, userID string) error {
	if d.FailWith != nil {
		return d.FailWith
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, fact := range d.facts {
		if fact.UserID == userID {
			delete(d.facts, id)
		}
	}
	return nil
}

func matchesAnyTerm(fact models.Fact, terms []string) bool {
	haystack := strings.ToLower(fact.Value + " " + fact.OriginalText)
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// MemGraph is an in-memory GraphStore.
type MemGraph struct {
	mu        sync.RWMutex
	relations []models.Relation
	// FailWith, when set, makes every operation return this error.
	FailWith error
}

// NewMemGraph creates an empty MemGraph.
func NewMemGraph() *MemGraph {
	return &MemGraph{}
}

func (g *MemGraph) MergeRelation(ctx context.Context, rel models.Relation) error {
	if g.FailWith != nil {
		return g.FailWith
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, have := range g.relations {
		if have.UserID == rel.UserID && have.Type == rel.Type && have.TargetValue == rel.TargetValue {
			g.relations[i] = rel
			return nil
		}
	}
	g.relations = append(g.relations, rel)
	return nil
}

func (g *MemGraph) QueryRelations(ctx context.Context, userID string, relType models.RelationshipType) ([]models.Relation, error) {
	if g.FailWith != nil {
		return nil, g.FailWith
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []models.Relation
	for _, rel := range g.relations {
		if rel.UserID != userID {
			continue
		}
		if relType != "" && rel.Type != relType {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

func (g *MemGraph) DeleteFact(ctx context.Context, userID, factID string) error {
	if g.FailWith != nil {
		return g.FailWith
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.relations[:0]
	for _, rel := range g.relations {
		if rel.UserID == userID && rel.FactID == factID {
			continue
		}
		kept = append(kept, rel)
	}
	g.relations = kept
	return nil
}

func (g *MemGraph) DeleteUser(ctx context.Context, userID string) error {
	if g.FailWith != nil {
		return g.FailWith
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.relations[:0]
	for _, rel := range g.relations {
		if rel.UserID == userID {
			continue
		}
		kept = append(kept, rel)
	}
	g.relations = kept
	return nil
}

// MemVectors is an in-memory VectorStore. Without a real embedder it
// scores by token overlap between the query and the indexed value,
// which is enough for engine tests and local runs.
type MemVectors struct {
	mu      sync.RWMutex
	entries map[string]memVectorEntry
	// FailWith, when set, makes every operation return this error.
	FailWith error
}

type memVectorEntry struct {
	userID   string
	category models.Category
	value    string
}

// NewMemVectors creates an empty MemVectors.
func NewMemVectors() *MemVectors {
	return &MemVectors{entries: make(map[string]memVectorEntry)}
}

func (v *MemVectors) Upsert(ctx context.Context, fact *models.Fact) error {
	if v.FailWith != nil {
		return v.FailWith
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[fact.ID] = memVectorEntry{
		userID:   fact.UserID,
		category: fact.Category,
		value:    models.NormalizedValue(fact.Value),
	}
	return nil
}

func (v *MemVectors) Search(ctx context.Context, userID, query string, topK int) ([]VectorMatch, error) {
	if v.FailWith != nil {
		return nil, v.FailWith
	}
	queryToks := strings.Fields(models.NormalizedValue(query))

	v.mu.RLock()
	defer v.mu.RUnlock()
	var matches []VectorMatch
	for id, entry := range v.entries {
		if entry.userID != userID {
			continue
		}
		score := overlapScore(queryToks, strings.Fields(entry.value))
		if score <= 0 {
			continue
		}
		matches = append(matches, VectorMatch{
			FactID:   id,
			UserID:   entry.userID,
			Category: entry.category,
			Score:    score,
		})
	}
	// Highest score first.
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[j].Score > matches[i].Score {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (v *MemVectors) Delete(ctx context.Context, factID string) error {
	if v.FailWith != nil {
		return v.FailWith
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, factID)
	return nil
}

func (v *MemVectors) DeleteUser(ctx context.Context, userID string) error {
	if v.FailWith != nil {
		return v.FailWith
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, entry := range v.entries {
		if entry.userID == userID {
			delete(v.entries, id)
		}
	}
	return nil
}

// overlapScore is the share of value tokens present in the query or
// vice versa, whichever is larger.
func overlapScore(queryToks, valueToks []string) float64 {
	if len(queryToks) == 0 || len(valueToks) == 0 {
		return 0
	}
	set := make(map[string]bool, len(queryToks))
	for _, t := range queryToks {
		set[t] = true
	}
	hits := 0
	for _, t := range valueToks {
		if set[t] {
			hits++
		}
	}
	a := float64(hits) / float64(len(valueToks))
	b := float64(hits) / float64(len(queryToks))
	if a > b {
		return a
	}
	return b
}
