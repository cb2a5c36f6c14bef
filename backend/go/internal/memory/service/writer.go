package service

import (
	"Jarvis_Memory/backend/go/internal/memory/scoring"
	"Jarvis_Memory/backend/go/internal/memory/store"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoreFact runs the full write path for one candidate fact: guard,
// validation, scoring, duplicate resolution, routing and the ordered
// multi-store commit. ValidationError and OwnershipError are returned
// before any store is touched; a low-confidence candidate yields a
// rejected result, not an error. A failed primary store returns both
// the partial result and a PartialWriteError so the caller can queue a
// retry.
func (s *MemoryService) StoreFact(ctx context.Context, userID string, candidate models.FactCandidate) (*models.StorageResult, error) {
	started := time.Now()

	// 1. Ownership first: nothing proceeds for a malformed user id.
	if err := s.guard.ValidateAccess(userID, "store"); err != nil {
		return nil, err
	}

	// 2. Validate the candidate before building anything.
	if !candidate.Category.IsValid() {
		return nil, &models.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", candidate.Category)}
	}
	value, err := models.ValidateValue(candidate.Value)
	if err != nil {
		return nil, err
	}
	source := candidate.Source
	if !source.IsValid() {
		source = models.SourceUnknown
	}

	now := time.Now()
	fact := &models.Fact{
		ID:             uuid.New().String(),
		Category:       candidate.Category,
		Value:          value,
		Source:         source,
		OriginalText:   candidate.OriginalText,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
		Version:        1,
	}
	if err := s.guard.Scope(userID, fact); err != nil {
		return nil, err
	}

	// 3. Score. Confidence and importance are never trusted from input.
	s.scorer.Enrich(fact)
	if fact.Confidence < s.minConfidence {
		result := &models.StorageResult{
			FactID:     fact.ID,
			Status:     models.StatusRejectedLowConfidence,
			Reason:     fmt.Sprintf("confidence %.2f below storage threshold %.2f", fact.Confidence, s.minConfidence),
			Confidence: fact.Confidence,
		}
		s.traceWrite(userID, started, result)
		return result, nil
	}

	// Resolution and the commit run under the per-(user, category)
	// lock so concurrent writers cannot both miss the duplicate check.
	lockKey := userID + ":" + string(fact.Category)
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	// 4. Resolve against the user's existing facts in this category.
	existing, err := s.findExisting(ctx, userID, fact.Category)
	if err != nil {
		s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error()}).Warn(
			"duplicate check unavailable, treating candidate as unrelated")
	}
	resolution := s.resolver.Resolve(fact, existing)

	result, err := s.applyResolution(ctx, userID, fact, resolution)
	s.traceWrite(userID, started, result)
	return result, err
}

// StoreFactsBatch stores every candidate of an extraction batch
// independently: one candidate's failure never aborts its siblings.
// The returned slice is index-aligned with the batch's candidates.
func (s *MemoryService) StoreFactsBatch(ctx context.Context, batch *models.ExtractionBatch) ([]*models.StorageResult, error) {
	if err := s.guard.ValidateAccess(batch.UserID, "store_batch"); err != nil {
		return nil, err
	}

	results := make([]*models.StorageResult, 0, len(batch.Candidates))
	for _, candidate := range batch.Candidates {
		result, err := s.StoreFact(ctx, batch.UserID, candidate)
		if err != nil && result == nil {
			result = &models.StorageResult{
				Status: models.StatusFailed,
				Reason: err.Error(),
			}
		}
		if err != nil && result.Reason == "" {
			result.Reason = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// findExisting loads the user's facts in the candidate's category for
// the duplicate check. The document store is the source of truth.
func (s *MemoryService) findExisting(ctx context.Context, userID string, category models.Category) ([]*models.Fact, error) {
	findCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.stores.Documents.Find(findCtx, userID, store.FactFilter{Category: category, Limit: 20})
}

// applyResolution turns the resolver's verdict into store writes.
func (s *MemoryService) applyResolution(ctx context.Context, userID string, fact *models.Fact, resolution models.Resolution) (*models.StorageResult, error) {
	switch resolution.Strategy {
	case models.MergeKeepExisting:
		// The existing fact wins; a contradiction that tripped the
		// downgrade guard still weakens nothing and writes nothing.
		return &models.StorageResult{
			FactID:     resolution.Matched.ID,
			Status:     models.StatusKeptExisting,
			Reason:     fmt.Sprintf("existing value %q kept over %q", resolution.Matched.Value, fact.Value),
			Resolution: &resolution,
			Confidence: resolution.Matched.Confidence,
		}, nil

	case models.MergeStrengthenExisting:
		return s.strengthenExisting(ctx, userID, resolution)

	case models.MergeReplaceWithNew:
		return s.replaceWithNew(ctx, userID, fact, resolution)

	default: // MergeAppend
		status := models.StatusStored
		if resolution.Verdict == models.VerdictUpdate {
			status = models.StatusMerged
		}
		return s.commitFact(ctx, fact, resolution, status)
	}
}

// strengthenExisting bumps the matched fact's verification counters and
// persists it instead of writing a duplicate.
func (s *MemoryService) strengthenExisting(ctx context.Context, userID string, resolution models.Resolution) (*models.StorageResult, error) {
	matched := resolution.Matched
	s.scorer.Strengthen(matched, scoring.StrengthenVerify)
	matched.UpdatedAt = time.Now()
	matched.Version++

	upsertCtx, cancel := s.storeCtx(ctx)
	err := s.stores.Documents.Upsert(upsertCtx, matched)
	cancel()
	if err != nil {
		result := &models.StorageResult{
			FactID:     matched.ID,
			Status:     models.StatusFailed,
			Reason:     "failed to persist strengthened fact",
			Failed:     []models.StorageTarget{models.TargetDocument},
			Resolution: &resolution,
			Confidence: matched.Confidence,
		}
		return result, &models.PartialWriteError{
			FactID: matched.ID,
			Failed: []models.StorageTarget{models.TargetDocument},
			Cause:  err,
		}
	}
	s.refreshCache(ctx, matched)

	return &models.StorageResult{
		FactID:     matched.ID,
		Status:     models.StatusStrengthened,
		Reason:     fmt.Sprintf("identical fact confirmed, verification count now %d", matched.VerifyCount),
		Succeeded:  []models.StorageTarget{models.TargetDocument},
		Resolution: &resolution,
		Confidence: matched.Confidence,
	}, nil
}

// replaceWithNew supersedes a contradicted fact: the old copy is
// removed from every store first, then the new fact commits normally.
func (s *MemoryService) replaceWithNew(ctx context.Context, userID string, fact *models.Fact, resolution models.Resolution) (*models.StorageResult, error) {
	matched := resolution.Matched
	s.scorer.Weaken(matched, scoring.WeakenContradicted)
	if err := s.deleteFact(ctx, matched); err != nil {
		// The old fact survived somewhere; keep it authoritative rather
		// than leaving two contradicting copies behind.
		result := &models.StorageResult{
			FactID:     fact.ID,
			Status:     models.StatusFailed,
			Reason:     fmt.Sprintf("could not retire contradicted fact %s", matched.ID),
			Resolution: &resolution,
			Confidence: fact.Confidence,
		}
		return result, err
	}

	fact.Version = matched.Version + 1
	result, err := s.commitFact(ctx, fact, resolution, models.StatusReplaced)
	if result != nil {
		// The superseded value must stay discoverable in the debug
		// trace, not only in the log.
		reason := fmt.Sprintf("contradiction resolved: %q superseded by %q", matched.Value, fact.Value)
		if result.Reason != "" {
			reason += "; " + result.Reason
		}
		result.Reason = reason
	}
	return result, err
}

// commitFact writes the fact to every routed store in the fixed commit
// order. A non-primary failure is downgraded to a warning and the
// sequence continues; a primary failure aborts the remaining writes and
// surfaces a PartialWriteError. The cache refresh is skipped unless
// everything before it succeeded, so a degraded write can never pin a
// fact in cache that the document store does not hold.
func (s *MemoryService) commitFact(ctx context.Context, fact *models.Fact, resolution models.Resolution, status models.StorageStatus) (*models.StorageResult, error) {
	targets := s.router.TargetsFor(fact.Category, fact.Importance)
	primary := primaryTarget(targets)

	var succeeded, failed []models.StorageTarget
	for _, target := range commitOrder {
		if !containsTarget(targets, target) {
			continue
		}
		if target == models.TargetCache && target != primary && len(failed) > 0 {
			break
		}

		err := s.writeTarget(ctx, target, fact)
		if err == nil {
			succeeded = append(succeeded, target)
			continue
		}
		failed = append(failed, target)

		if target == primary {
			result := &models.StorageResult{
				FactID:     fact.ID,
				Status:     models.StatusFailed,
				Reason:     fmt.Sprintf("primary store %s refused the write", target),
				Succeeded:  succeeded,
				Failed:     failed,
				Resolution: &resolution,
				Confidence: fact.Confidence,
			}
			return result, &models.PartialWriteError{
				FactID:    fact.ID,
				Succeeded: succeeded,
				Failed:    failed,
				Cause:     err,
			}
		}
		s.logger.WithUser(fact.UserID).WithError(models.ErrorInfo{Message: err.Error()}).Warn(
			fmt.Sprintf("non-primary store %s failed, fact %s degraded", target, fact.ID))
	}

	result := &models.StorageResult{
		FactID:     fact.ID,
		Status:     status,
		Succeeded:  succeeded,
		Failed:     failed,
		Resolution: &resolution,
		Confidence: fact.Confidence,
	}
	if len(failed) > 0 {
		result.Reason = "stored with degraded replication, retry will reconcile"
	}
	return result, nil
}

// writeTarget performs one store write with the per-store timeout.
func (s *MemoryService) writeTarget(ctx context.Context, target models.StorageTarget, fact *models.Fact) error {
	writeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	switch target {
	case models.TargetGraph:
		relation, ok := s.router.RelationFor(fact)
		if !ok {
			return nil
		}
		return s.stores.Graph.MergeRelation(writeCtx, relation)
	case models.TargetVector:
		return s.stores.Vectors.Upsert(writeCtx, fact)
	case models.TargetDocument:
		return s.stores.Documents.Upsert(writeCtx, fact)
	case models.TargetCache:
		return s.stores.Cache.SetFact(writeCtx, fact, cacheTTL(fact.Importance))
	}
	return nil
}

// refreshCache writes the fact into the fast cache when its category is
// allowed there. Failures only cost the next read a cache miss.
func (s *MemoryService) refreshCache(ctx context.Context, fact *models.Fact) {
	targets := s.router.TargetsFor(fact.Category, fact.Importance)
	if !containsTarget(targets, models.TargetCache) {
		return
	}
	cacheCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.stores.Cache.SetFact(cacheCtx, fact, cacheTTL(fact.Importance)); err != nil {
		s.logger.WithUser(fact.UserID).WithError(models.ErrorInfo{Message: err.Error()}).Warn("cache refresh failed")
	}
}

// traceWrite records the outcome of a write in the user's debug trace.
func (s *MemoryService) traceWrite(userID string, started time.Time, result *models.StorageResult) {
	if result == nil {
		return
	}
	reason := result.Reason
	if reason == "" && result.Resolution != nil {
		reason = fmt.Sprintf("verdict %s", result.Resolution.Verdict)
	}
	s.recordTrace(userID, []models.TraceEntry{{
		Timestamp: time.Now(),
		Operation: "store",
		Reason:    reason,
		Latency:   time.Since(started),
		Hit:       result.Status != models.StatusFailed && result.Status != models.StatusRejectedLowConfidence,
		Decision:  string(result.Status),
	}})
}

// primaryTarget picks the category's source of truth: the document
// store when routed there, otherwise the cache (session-scoped
// categories live nowhere else).
func primaryTarget(targets []models.StorageTarget) models.StorageTarget {
	if containsTarget(targets, models.TargetDocument) {
		return models.TargetDocument
	}
	return models.TargetCache
}

func cacheTTL(importance models.Importance) time.Duration {
	if ttl, ok := cacheTTLs[importance]; ok {
		return ttl
	}
	return time.Hour
}
