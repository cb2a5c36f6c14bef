package service

import (
	"Jarvis_Memory/backend/go/internal/config"
	"Jarvis_Memory/backend/go/internal/memory/guard"
	"Jarvis_Memory/backend/go/internal/memory/resolver"
	"Jarvis_Memory/backend/go/internal/memory/router"
	"Jarvis_Memory/backend/go/internal/memory/scoring"
	"Jarvis_Memory/backend/go/internal/memory/store"
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/keylock"
	"Jarvis_Memory/backend/go/pkg/logger"
	"Jarvis_Memory/backend/go/pkg/util"
	"context"
	"fmt"
	"sync"
	"time"
)

// Stores bundles the four backing store adapters the engine writes to
// and reads from.
type Stores struct {
	Cache     store.CacheStore
	Documents store.DocumentStore
	Graph     store.GraphStore
	Vectors   store.VectorStore
}

// commitOrder is the fixed write sequence. Graph and vector stores are
// the hardest to reconcile after a partial failure, so they commit
// first while the operation can still be abandoned cheaply; the
// document store is the source of truth; the cache is refreshed last.
var commitOrder = []models.StorageTarget{
	models.TargetGraph,
	models.TargetVector,
	models.TargetDocument,
	models.TargetCache,
}

// cacheTTLs maps importance to cache lifetime.
var cacheTTLs = map[models.Importance]time.Duration{
	models.ImportanceCritical:  24 * time.Hour,
	models.ImportanceHigh:      6 * time.Hour,
	models.ImportanceMedium:    time.Hour,
	models.ImportanceLow:       15 * time.Minute,
	models.ImportanceEphemeral: 5 * time.Minute,
}

// MemoryService is the memory resolution engine: it owns the write
// path (validate, score, resolve duplicates, route, ordered multi-store
// commit), the read path (stop-on-hit cascade), user erasure, expiry
// sweeps and the per-user debug trace.
type MemoryService struct {
	stores   Stores
	guard    *guard.Guard
	scorer   *scoring.Scorer
	resolver *resolver.Resolver
	router   *router.Router
	locks    *keylock.KeyLock

	minConfidence   float64
	simThreshold    float64
	storeTimeout    time.Duration
	traceBufferSize int

	// traceMu guards traces: the LRU reorders its list on Get, so
	// reads need the lock as much as the lookup-or-create on writes.
	traceMu sync.Mutex
	traces  *util.LRUCache[string, *traceRing]
	logger  *logger.Logger
}

// NewMemoryService creates the engine on top of the given store
// adapters. Engine tunables come from cfg; zero values fall back to
// the documented defaults.
func NewMemoryService(stores Stores, cfg config.EngineConfig, log *logger.Logger) *MemoryService {
	minConfidence := cfg.MinStorageConfidence
	if minConfidence <= 0 {
		minConfidence = 0.40
	}
	simThreshold := cfg.VectorSimilarityThreshold
	if simThreshold <= 0 {
		simThreshold = 0.75
	}
	bufferSize := cfg.TraceBufferSize
	if bufferSize <= 0 {
		bufferSize = 100
	}
	userCapacity := cfg.TraceUserCapacity
	if userCapacity <= 0 {
		userCapacity = 1024
	}
	traces, _ := util.NewLRU[string, *traceRing](userCapacity)

	return &MemoryService{
		stores:          stores,
		guard:           guard.New(log),
		scorer:          scoring.New(log),
		resolver:        resolver.New(log),
		router:          router.New(),
		locks:           keylock.New(),
		minConfidence:   minConfidence,
		simThreshold:    simThreshold,
		storeTimeout:    cfg.StoreTimeoutDuration(),
		traceBufferSize: bufferSize,
		traces:          traces,
		logger:          log,
	}
}

// GetDebugTrace returns the most recent trace entries recorded for the
// user, oldest first.
func (s *MemoryService) GetDebugTrace(ctx context.Context, userID string) ([]models.TraceEntry, error) {
	if err := s.guard.ValidateAccess(userID, "trace"); err != nil {
		return nil, err
	}
	s.traceMu.Lock()
	ring, ok := s.traces.Get(userID)
	s.traceMu.Unlock()
	if !ok {
		return nil, nil
	}
	return ring.snapshot(), nil
}

// EraseUser removes every copy of the user's facts from every store.
// Deletes follow the same fixed order as the commit sequence; the first
// failing store aborts the remaining deletes so the caller can retry
// without wondering which stores were reached.
func (s *MemoryService) EraseUser(ctx context.Context, userID string) error {
	if err := s.guard.ValidateAccess(userID, "erase"); err != nil {
		return err
	}

	steps := []struct {
		target models.StorageTarget
		delete func(context.Context) error
	}{
		{models.TargetGraph, func(ctx context.Context) error { return s.stores.Graph.DeleteUser(ctx, userID) }},
		{models.TargetVector, func(ctx context.Context) error { return s.stores.Vectors.DeleteUser(ctx, userID) }},
		{models.TargetDocument, func(ctx context.Context) error { return s.stores.Documents.DeleteUser(ctx, userID) }},
		{models.TargetCache, func(ctx context.Context) error { return s.stores.Cache.DeleteUser(ctx, userID) }},
	}
	for _, step := range steps {
		stepCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		err := step.delete(stepCtx)
		cancel()
		if err != nil {
			s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error()}).Error(
				fmt.Sprintf("user erasure aborted at %s", step.target))
			return &models.StoreUnavailableError{Store: step.target, Err: err}
		}
	}

	s.traceMu.Lock()
	s.traces.Remove(userID)
	s.traceMu.Unlock()
	s.logger.WithUser(userID).Info("erased all stored facts for user")
	return nil
}

// PruneExpired sweeps the user's document-store facts, recomputes each
// score and deletes the ones that have decayed past usefulness. It
// returns how many facts were removed. Deletion errors are logged and
// the sweep continues; a fact left behind is swept again next run.
func (s *MemoryService) PruneExpired(ctx context.Context, userID string) (int, error) {
	if err := s.guard.ValidateAccess(userID, "prune"); err != nil {
		return 0, err
	}

	facts, err := s.stores.Documents.Find(ctx, userID, store.FactFilter{})
	if err != nil {
		return 0, &models.StoreUnavailableError{Store: models.TargetDocument, Err: err}
	}

	pruned := 0
	for _, fact := range facts {
		if !s.guard.VerifyOwnership(userID, fact) {
			continue
		}
		fact.Confidence = s.scorer.Score(fact)
		if !s.scorer.ShouldExpire(fact) {
			continue
		}
		if err := s.deleteFact(ctx, fact); err != nil {
			s.logger.WithUser(userID).WithError(models.ErrorInfo{Message: err.Error()}).Warn(
				fmt.Sprintf("failed to prune fact %s", fact.ID))
			continue
		}
		pruned++
	}
	if pruned > 0 {
		s.logger.WithUser(userID).WithPayload(map[string]interface{}{"pruned": pruned}).Info("expired facts pruned")
	}
	return pruned, nil
}

// deleteFact removes a single fact from every store its category routes
// to, in commit order.
func (s *MemoryService) deleteFact(ctx context.Context, fact *models.Fact) error {
	targets := s.router.TargetsFor(fact.Category, fact.Importance)
	for _, target := range commitOrder {
		if !containsTarget(targets, target) {
			continue
		}
		stepCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		var err error
		switch target {
		case models.TargetGraph:
			err = s.stores.Graph.DeleteFact(stepCtx, fact.UserID, fact.ID)
		case models.TargetVector:
			err = s.stores.Vectors.Delete(stepCtx, fact.ID)
		case models.TargetDocument:
			err = s.stores.Documents.Delete(stepCtx, fact.UserID, fact.ID)
		case models.TargetCache:
			err = s.stores.Cache.DeleteFact(stepCtx, fact.UserID, fact.Category)
		}
		cancel()
		if err != nil {
			return &models.StoreUnavailableError{Store: target, Err: err}
		}
	}
	return nil
}

// recordTrace appends entries to the user's debug trace ring.
func (s *MemoryService) recordTrace(userID string, entries []models.TraceEntry) {
	if len(entries) == 0 {
		return
	}
	s.traceMu.Lock()
	ring, ok := s.traces.Get(userID)
	if !ok {
		ring = newTraceRing(s.traceBufferSize)
		s.traces.Put(userID, ring)
	}
	s.traceMu.Unlock()
	ring.append(entries)
}

// storeCtx derives a per-store-operation timeout context.
func (s *MemoryService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func containsTarget(targets []models.StorageTarget, t models.StorageTarget) bool {
	for _, have := range targets {
		if have == t {
			return true
		}
	}
	return false
}

// traceRing is a fixed-capacity ring of trace entries for one user.
type traceRing struct {
	mu      sync.Mutex
	entries []models.TraceEntry
	cap     int
}

func newTraceRing(capacity int) *traceRing {
	return &traceRing{cap: capacity}
}

func (r *traceRing) append(entries []models.TraceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	if overflow := len(r.entries) - r.cap; overflow > 0 {
		r.entries = r.entries[overflow:]
	}
}

func (r *traceRing) snapshot() []models.TraceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TraceEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
