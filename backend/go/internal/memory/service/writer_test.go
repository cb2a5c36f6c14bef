package service

import (
	"Jarvis_Memory/backend/go/internal/config"
	"Jarvis_Memory/backend/go/internal/memory/store"
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	cache *store.MemCache
	docs  *store.MemDocuments
	graph *store.MemGraph
	vecs  *store.MemVectors
	svc   *MemoryService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		cache: store.NewMemCache(),
		docs:  store.NewMemDocuments(),
		graph: store.NewMemGraph(),
		vecs:  store.NewMemVectors(),
	}
	cfg := config.EngineConfig{
		MinStorageConfidence:      0.40,
		VectorSimilarityThreshold: 0.75,
		StoreTimeout:              "300ms",
		TraceBufferSize:           100,
		TraceUserCapacity:         16,
	}
	env.svc = NewMemoryService(Stores{
		Cache:     env.cache,
		Documents: env.docs,
		Graph:     env.graph,
		Vectors:   env.vecs,
	}, cfg, logger.New("service_test", "", ""))
	return env
}

func candidate(category models.Category, value string) models.FactCandidate {
	return models.FactCandidate{
		Category: category,
		Value:    value,
		Source:   models.SourceUserExplicit,
	}
}

func TestStoreFactRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Paris"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusStored, result.Status)
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []models.StorageTarget{
		models.TargetGraph, models.TargetVector,
		models.TargetDocument, models.TargetCache,
	}, result.Succeeded)

	// The very next read must hit the cache with full provenance.
	fetched, err := env.svc.FetchContext(ctx, "u-1", "", models.CategoryLocation)
	require.NoError(t, err)
	require.NotNil(t, fetched.Fact)
	assert.Equal(t, models.TargetCache, fetched.Source)
	assert.Equal(t, "Paris", fetched.Fact.Value)
	assert.Equal(t, "u-1", fetched.Fact.UserID)
	assert.Equal(t, models.SourceUserExplicit, fetched.Fact.Source)
}

func TestStoreFactIdempotentDoubleStore(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Paris"))
	require.NoError(t, err)
	require.Equal(t, models.StatusStored, first.Status)

	second, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "paris."))
	require.NoError(t, err)
	assert.Equal(t, models.StatusStrengthened, second.Status)
	assert.Equal(t, first.FactID, second.FactID)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{Category: models.CategoryLocation})
	require.NoError(t, err)
	require.Len(t, facts, 1, "a duplicate must never produce a second document")
	assert.Equal(t, 1, facts[0].VerifyCount)
}

func TestStoreFactContradictionReplaces(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Paris"))
	require.NoError(t, err)

	second, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Lyon"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusReplaced, second.Status)
	require.NotNil(t, second.Resolution)
	assert.Equal(t, models.VerdictContradiction, second.Resolution.Verdict)
	assert.NotEqual(t, first.FactID, second.FactID)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{Category: models.CategoryLocation})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "Lyon", facts[0].Value)
	assert.Equal(t, 2, facts[0].Version)

	fetched, err := env.svc.FetchContext(ctx, "u-1", "", models.CategoryLocation)
	require.NoError(t, err)
	require.NotNil(t, fetched.Fact)
	assert.Equal(t, "Lyon", fetched.Fact.Value)
}

func TestDebugTraceKeepsSupersededValue(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Paris"))
	require.NoError(t, err)
	_, err = env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Lyon"))
	require.NoError(t, err)

	trace, err := env.svc.GetDebugTrace(ctx, "u-1")
	require.NoError(t, err)

	var replaced *models.TraceEntry
	for i := range trace {
		if trace[i].Decision == string(models.StatusReplaced) {
			replaced = &trace[i]
		}
	}
	require.NotNil(t, replaced, "the contradiction must leave a trace entry")
	assert.Contains(t, replaced.Reason, "Paris", "the superseded value stays discoverable in the trace")
	assert.Contains(t, replaced.Reason, "Lyon")
}

func TestStoreFactDowngradeGuardKeepsExisting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryName, "John Smith"))
	require.NoError(t, err)

	result, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryName, "Dave"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusKeptExisting, result.Status)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{Category: models.CategoryName})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "John Smith", facts[0].Value)
}

func TestStoreFactOverlappingPreferenceMerges(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryPreference, "hiking in the alps"))
	require.NoError(t, err)

	result, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryPreference, "hiking in the dolomites"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusMerged, result.Status)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{Category: models.CategoryPreference})
	require.NoError(t, err)
	assert.Len(t, facts, 2, "merge-append keeps both values")
}

func TestStoreFactRejectsLowConfidence(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.StoreFact(ctx, "u-1", models.FactCandidate{
		Category: models.CategoryPreference,
		Value:    "hm",
		Source:   models.SourceUnknown,
	})
	require.NoError(t, err, "a low-confidence rejection is an outcome, not an error")
	assert.Equal(t, models.StatusRejectedLowConfidence, result.Status)
	assert.NotEmpty(t, result.Reason)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{})
	require.NoError(t, err)
	assert.Empty(t, facts, "a rejected fact must touch no store")
}

func TestStoreFactValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var validationErr *models.ValidationError
	var ownershipErr *models.OwnershipError

	_, err := env.svc.StoreFact(ctx, "u-1", candidate("made_up", "whatever"))
	assert.ErrorAs(t, err, &validationErr)

	_, err = env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "x"))
	assert.ErrorAs(t, err, &validationErr)

	_, err = env.svc.StoreFact(ctx, "../root", candidate(models.CategoryLocation, "Paris"))
	assert.ErrorAs(t, err, &ownershipErr)
}

func TestStoreFactSensitiveCategoryStaysInDocuments(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryHealth, "allergic to penicillin"))
	require.NoError(t, err)
	assert.Equal(t, []models.StorageTarget{models.TargetDocument}, result.Succeeded)

	_, err = env.cache.GetFact(ctx, "u-1", models.CategoryHealth)
	assert.ErrorIs(t, err, store.ErrNotFound, "sensitive facts must never reach the cache")
	matches, err := env.vecs.Search(ctx, "u-1", "allergic to penicillin", 5)
	require.NoError(t, err)
	assert.Empty(t, matches, "sensitive facts must never reach the semantic index")
}

func TestStoreFactNonPrimaryFailureDegrades(t *testing.T) {
	env := newTestEnv()
	env.graph.FailWith = errors.New("neo4j down")
	ctx := context.Background()

	result, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Paris"))
	require.NoError(t, err, "a failing non-primary store must not fail the write")
	assert.Equal(t, models.StatusStored, result.Status)
	assert.Equal(t, []models.StorageTarget{models.TargetGraph}, result.Failed)
	assert.Contains(t, result.Succeeded, models.TargetDocument)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{Category: models.CategoryLocation})
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}

func TestStoreFactPrimaryFailureReportsPartialWrite(t *testing.T) {
	env := newTestEnv()
	env.docs.FailWith = errors.New("mongo down")
	ctx := context.Background()

	result, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryPreference, "jazz music"))
	require.Error(t, err)

	var partialErr *models.PartialWriteError
	require.ErrorAs(t, err, &partialErr)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Failed, models.TargetDocument)
	assert.ElementsMatch(t, []models.StorageTarget{models.TargetGraph, models.TargetVector}, result.Succeeded,
		"already-committed stores are reported, not rolled back")
}

func TestStoreFactsBatchIsolatesFailures(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	batch := &models.ExtractionBatch{
		UserID: "u-1",
		Candidates: []models.FactCandidate{
			candidate(models.CategoryLocation, "Paris"),
			candidate("made_up", "whatever"),
			candidate(models.CategoryOccupation, "baker"),
		},
		ExtractedAt: time.Now(),
	}
	results, err := env.svc.StoreFactsBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, models.StatusStored, results[0].Status)
	assert.Equal(t, models.StatusFailed, results[1].Status)
	assert.NotEmpty(t, results[1].Reason)
	assert.Equal(t, models.StatusStored, results[2].Status)
}

func TestStoreFactsBatchRejectsBadUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.StoreFactsBatch(context.Background(), &models.ExtractionBatch{
		UserID:     "",
		Candidates: []models.FactCandidate{candidate(models.CategoryLocation, "Paris")},
	})
	var ownershipErr *models.OwnershipError
	assert.ErrorAs(t, err, &ownershipErr)
}

func TestEraseUserRemovesEverythingForThatUserOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryLocation, "Paris"))
	require.NoError(t, err)
	_, err = env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryPreference, "jazz music"))
	require.NoError(t, err)
	_, err = env.svc.StoreFact(ctx, "u-2", candidate(models.CategoryLocation, "Berlin"))
	require.NoError(t, err)

	require.NoError(t, env.svc.EraseUser(ctx, "u-1"))

	gone, err := env.svc.FetchContext(ctx, "u-1", "jazz music", "")
	require.NoError(t, err)
	assert.Nil(t, gone.Fact)
	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{})
	require.NoError(t, err)
	assert.Empty(t, facts)

	kept, err := env.svc.FetchContext(ctx, "u-2", "", models.CategoryLocation)
	require.NoError(t, err)
	require.NotNil(t, kept.Fact)
	assert.Equal(t, "Berlin", kept.Fact.Value)
}

func TestEraseUserAbortsOnStoreFailure(t *testing.T) {
	env := newTestEnv()
	env.vecs.FailWith = errors.New("milvus down")

	err := env.svc.EraseUser(context.Background(), "u-1")
	var unavailableErr *models.StoreUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
	assert.Equal(t, models.TargetVector, unavailableErr.Store)
}

func TestPruneExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	old := time.Now().AddDate(-2, 0, 0)
	decayed := &models.Fact{
		ID:             "stale-1",
		UserID:         "u-1",
		Category:       models.CategoryPreference,
		Value:          "liked flip phones",
		Source:         models.SourceUnknown,
		Importance:     models.ImportanceMedium,
		CreatedAt:      old,
		UpdatedAt:      old,
		LastAccessedAt: old,
		Version:        1,
	}
	require.NoError(t, env.docs.Upsert(ctx, decayed))

	_, err := env.svc.StoreFact(ctx, "u-1", candidate(models.CategoryPreference, "jazz music"))
	require.NoError(t, err)

	pruned, err := env.svc.PruneExpired(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	facts, err := env.docs.Find(ctx, "u-1", store.FactFilter{Category: models.CategoryPreference})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "jazz music", facts[0].Value)
}
