package router

import (
	"Jarvis_Memory/backend/go/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetsForIdentityClass(t *testing.T) {
	r := New()
	for _, category := range []models.Category{
		models.CategoryIdentity, models.CategoryName,
		models.CategoryLocation, models.CategoryOccupation,
	} {
		targets := r.TargetsFor(category, models.ImportanceCritical)
		assert.ElementsMatch(t, []models.StorageTarget{
			models.TargetCache, models.TargetDocument,
			models.TargetGraph, models.TargetVector,
		}, targets, "category %s", category)
	}
}

func TestSensitiveCategoriesNeverLeaveDocumentStore(t *testing.T) {
	r := New()
	for _, category := range []models.Category{models.CategoryHealth, models.CategoryContact} {
		// Even critical importance must not pull sensitive data into
		// the cache or the semantic index.
		targets := r.TargetsFor(category, models.ImportanceCritical)
		assert.Equal(t, []models.StorageTarget{models.TargetDocument}, targets,
			"category %s", category)
	}
}

func TestHighImportanceAddsCache(t *testing.T) {
	r := New()

	medium := r.TargetsFor(models.CategoryPreference, models.ImportanceMedium)
	assert.NotContains(t, medium, models.TargetCache)

	high := r.TargetsFor(models.CategoryPreference, models.ImportanceHigh)
	assert.Contains(t, high, models.TargetCache)
}

func TestSessionScopedCategoriesAreCacheOnly(t *testing.T) {
	r := New()
	for _, category := range []models.Category{models.CategorySchedule, models.CategorySession} {
		targets := r.TargetsFor(category, models.ImportanceLow)
		assert.Equal(t, []models.StorageTarget{models.TargetCache}, targets)
	}
}

func TestEveryCategoryHasTargets(t *testing.T) {
	r := New()
	for _, category := range models.AllCategories {
		targets := r.TargetsFor(category, models.ImportanceMedium)
		require.NotEmpty(t, targets, "category %s has no storage targets", category)
	}
}

func TestCascadeOrderIsFixed(t *testing.T) {
	r := New()
	assert.Equal(t, []models.StorageTarget{
		models.TargetCache, models.TargetDocument,
		models.TargetGraph, models.TargetVector,
	}, r.CascadeOrder())
}

func TestReadPreference(t *testing.T) {
	r := New()
	assert.Equal(t, models.TargetCache, r.ReadPreference(models.CategoryIdentity))
	assert.Equal(t, models.TargetDocument, r.ReadPreference(models.CategoryPreference))
	assert.Equal(t, models.TargetDocument, r.ReadPreference(models.CategoryHealth))
	assert.Equal(t, models.TargetCache, r.ReadPreference(models.CategorySession))
}

func TestRelationForClosedMapping(t *testing.T) {
	r := New()
	fact := &models.Fact{
		ID:       "f-1",
		UserID:   "u-1",
		Category: models.CategoryLocation,
		Value:    "Paris",
	}

	relation, ok := r.RelationFor(fact)
	require.True(t, ok)
	assert.Equal(t, models.RelLivesIn, relation.Type)
	assert.Equal(t, models.LabelPlace, relation.TargetLabel)
	assert.Equal(t, "Paris", relation.TargetValue)
	assert.Equal(t, "f-1", relation.FactID)

	// Categories with no graph projection report ok=false rather than
	// falling back to an improvised relationship type.
	_, ok = r.RelationFor(&models.Fact{Category: models.CategoryHealth})
	assert.False(t, ok)
}

func TestTargetsForReturnsACopy(t *testing.T) {
	r := New()
	first := r.TargetsFor(models.CategoryPreference, models.ImportanceMedium)
	first[0] = models.TargetCache

	second := r.TargetsFor(models.CategoryPreference, models.ImportanceMedium)
	assert.Equal(t, models.TargetDocument, second[0])
}
