package service

import (
	"Jarvis_Memory/backend/go/internal/memory/scoring"
	"Jarvis_Memory/backend/go/internal/memory/store"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// fetchTopK bounds document and vector lookups on the read path.
const fetchTopK = 5

// FetchResult is the outcome of one cascade read: the fact if any
// store produced one, which store it came from, and the per-step trace.
type FetchResult struct {
	Fact   *models.Fact         `json:"fact,omitempty"`
	Source models.StorageTarget `json:"source,omitempty"`
	Trace  []models.TraceEntry  `json:"trace"`
}

// FetchContext resolves a query for a user through the fixed cascade:
// cache, document store, graph store, vector store, in order of
// increasing query cost. The first hit stops the cascade. A store
// error counts as a miss for that store and the cascade continues.
// categoryHint narrows cache and document lookups and is required for
// a cache hit, since the cache is keyed by (user, category). A hinted
// read starts the cascade at the category's preferred tier: stores
// ahead of it never hold that category, so querying them is wasted
// latency.
func (s *MemoryService) FetchContext(ctx context.Context, userID, query string, categoryHint models.Category) (*FetchResult, error) {
	if err := s.guard.ValidateAccess(userID, "fetch"); err != nil {
		return nil, err
	}
	if categoryHint != "" && !categoryHint.IsValid() {
		return nil, &models.ValidationError{Field: "category_hint", Reason: fmt.Sprintf("unknown category %q", categoryHint)}
	}

	order := s.router.CascadeOrder()
	if categoryHint != "" {
		pref := s.router.ReadPreference(categoryHint)
		for i, target := range order {
			if target == pref {
				order = order[i:]
				break
			}
		}
	}

	result := &FetchResult{}
	for _, target := range order {
		fact, entry := s.fetchFrom(ctx, target, userID, query, categoryHint)
		result.Trace = append(result.Trace, entry)
		if fact == nil {
			continue
		}
		result.Fact = fact
		result.Source = target
		break
	}
	s.recordTrace(userID, result.Trace)

	if result.Fact != nil {
		s.touchOnRead(ctx, result.Fact, result.Source)
	}
	return result, nil
}

// fetchFrom queries one store of the cascade and reports the fact (nil
// on a miss) plus the trace entry for the step.
func (s *MemoryService) fetchFrom(ctx context.Context, target models.StorageTarget, userID, query string, hint models.Category) (*models.Fact, models.TraceEntry) {
	entry := models.TraceEntry{
		Timestamp: time.Now(),
		Operation: "fetch",
		Store:     target,
	}
	started := time.Now()

	var fact *models.Fact
	var err error
	switch target {
	case models.TargetCache:
		if hint == "" {
			entry.Reason = "skipped, cache requires a category hint"
			entry.Decision = "continue"
			return nil, entry
		}
		fact, err = s.fetchFromCache(ctx, userID, hint)
	case models.TargetDocument:
		fact, err = s.fetchFromDocuments(ctx, userID, query, hint)
	case models.TargetGraph:
		fact, err = s.fetchFromGraph(ctx, userID, query, hint)
	case models.TargetVector:
		fact, err = s.fetchFromVectors(ctx, userID, query)
	}
	entry.Latency = time.Since(started)

	switch {
	case err != nil && !errors.Is(err, store.ErrNotFound):
		// A failing store must not abort the read; the next store in
		// the cascade may still hold the answer.
		s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error()}).Warn(
			fmt.Sprintf("%s unavailable on read path, treating as miss", target))
		entry.Reason = fmt.Sprintf("store error: %s", err.Error())
		entry.Decision = "continue"
	case fact == nil:
		entry.Reason = "no matching fact"
		entry.Decision = "continue"
	case !s.guard.VerifyOwnership(userID, fact):
		fact = nil
		entry.Reason = "result dropped, ownership mismatch"
		entry.Decision = "continue"
	default:
		entry.Hit = true
		entry.Reason = fmt.Sprintf("hit in %s", target)
		entry.Decision = "stop"
	}
	return fact, entry
}

func (s *MemoryService) fetchFromCache(ctx context.Context, userID string, category models.Category) (*models.Fact, error) {
	readCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.stores.Cache.GetFact(readCtx, userID, category)
}

func (s *MemoryService) fetchFromDocuments(ctx context.Context, userID, query string, hint models.Category) (*models.Fact, error) {
	readCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	facts, err := s.stores.Documents.Find(readCtx, userID, store.FactFilter{
		Category: hint,
		Query:    query,
		Limit:    fetchTopK,
	})
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, nil
	}
	// Find sorts most recent first.
	return facts[0], nil
}

// fetchFromGraph walks the user's relations and resolves a matching
// edge back to its source-of-truth fact by the fact id stamped on it.
func (s *MemoryService) fetchFromGraph(ctx context.Context, userID, query string, hint models.Category) (*models.Fact, error) {
	readCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	var relType models.RelationshipType
	if hint != "" {
		mapping, ok := s.router.RelationFor(&models.Fact{Category: hint})
		if !ok {
			return nil, nil
		}
		relType = mapping.Type
	}
	relations, err := s.stores.Graph.QueryRelations(readCtx, userID, relType)
	if err != nil {
		return nil, err
	}

	queryNorm := models.NormalizedValue(query)
	for _, relation := range relations {
		if queryNorm != "" && !relationMatches(relation, queryNorm) {
			continue
		}
		if relation.FactID == "" {
			continue
		}
		fact, err := s.stores.Documents.GetByID(readCtx, userID, relation.FactID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return fact, nil
	}
	return nil, nil
}

func (s *MemoryService) fetchFromVectors(ctx context.Context, userID, query string) (*models.Fact, error) {
	if query == "" {
		return nil, nil
	}
	readCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	matches, err := s.stores.Vectors.Search(readCtx, userID, query, fetchTopK)
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		// Low-similarity matches are noise, not answers.
		if match.Score < s.simThreshold {
			continue
		}
		if match.UserID != userID {
			continue
		}
		fact, err := s.stores.Documents.GetByID(readCtx, userID, match.FactID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return fact, nil
	}
	return nil, nil
}

// touchOnRead bumps the fact's access counters and refreshes the cache
// after a non-cache hit, so the next read is cheap. Both are best
// effort; a failure costs nothing but the bonus.
func (s *MemoryService) touchOnRead(ctx context.Context, fact *models.Fact, source models.StorageTarget) {
	s.scorer.Strengthen(fact, scoring.StrengthenAccess)

	persistCtx, cancel := s.storeCtx(ctx)
	if err := s.stores.Documents.Upsert(persistCtx, fact); err != nil {
		s.logger.WithUser(fact.UserID).WithError(models.ErrorInfo{Message: err.Error()}).Warn(
			"failed to persist access strengthen")
	}
	cancel()

	if source != models.TargetCache {
		s.refreshCache(ctx, fact)
	}
}

// relationMatches reports whether the relation's target value overlaps
// the normalized query text.
func relationMatches(relation models.Relation, queryNorm string) bool {
	value := models.NormalizedValue(relation.TargetValue)
	if value == "" {
		return false
	}
	return strings.Contains(queryNorm, value) || strings.Contains(value, queryNorm)
}
