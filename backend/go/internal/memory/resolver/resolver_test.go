package resolver

import (
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	return New(logger.New("resolver_test", "", ""))
}

func fact(user string, category models.Category, value string) *models.Fact {
	return &models.Fact{
		ID:       "fact-" + value,
		UserID:   user,
		Category: category,
		Value:    value,
	}
}

func TestResolveIdenticalAfterNormalization(t *testing.T) {
	r := newTestResolver()
	existing := fact("u-1", models.CategoryLocation, "Paris")
	newFact := fact("u-1", models.CategoryLocation, "  paris.  ")

	res := r.Resolve(newFact, []*models.Fact{existing})
	assert.Equal(t, models.VerdictIdentical, res.Verdict)
	assert.Equal(t, models.MergeStrengthenExisting, res.Strategy)
	assert.Equal(t, existing, res.Matched)
	assert.Equal(t, 1.0, res.Similarity)
}

func TestResolveLocationContradiction(t *testing.T) {
	r := newTestResolver()
	existing := fact("u-1", models.CategoryLocation, "Paris")
	newFact := fact("u-1", models.CategoryLocation, "Lyon")

	res := r.Resolve(newFact, []*models.Fact{existing})
	assert.Equal(t, models.VerdictContradiction, res.Verdict)
	assert.Equal(t, models.MergeReplaceWithNew, res.Strategy)
	assert.Equal(t, existing, res.Matched)
}

func TestResolveIdentityEnrichmentIsAnUpdate(t *testing.T) {
	r := newTestResolver()
	existing := fact("u-1", models.CategoryName, "John")
	newFact := fact("u-1", models.CategoryName, "John Smith")

	res := r.Resolve(newFact, []*models.Fact{existing})
	assert.Equal(t, models.VerdictUpdate, res.Verdict)
	assert.Equal(t, models.MergeReplaceWithNew, res.Strategy)
}

func TestResolveDowngradeGuardKeepsFullName(t *testing.T) {
	r := newTestResolver()
	existing := fact("u-1", models.CategoryName, "John Smith")

	// A single ambiguous token must not replace the full name.
	single := fact("u-1", models.CategoryName, "Dave")
	res := r.Resolve(single, []*models.Fact{existing})
	require.Equal(t, models.VerdictContradiction, res.Verdict)
	assert.Equal(t, models.MergeKeepExisting, res.Strategy)

	// Neither may a strict subset of the stored tokens.
	subset := fact("u-1", models.CategoryName, "Smith John Extra")
	res = r.Resolve(subset, []*models.Fact{existing})
	assert.NotEqual(t, models.MergeKeepExisting, res.Strategy,
		"a superset of the old tokens is an enrichment, not a downgrade")
}

func TestResolveNonIdentityOverlapMergesAppend(t *testing.T) {
	r := newTestResolver()
	existing := fact("u-1", models.CategoryPreference, "hiking in the alps")
	newFact := fact("u-1", models.CategoryPreference, "hiking in the dolomites")

	res := r.Resolve(newFact, []*models.Fact{existing})
	assert.Equal(t, models.VerdictUpdate, res.Verdict)
	assert.Equal(t, models.MergeAppend, res.Strategy)
	assert.Equal(t, existing, res.Matched)
	assert.GreaterOrEqual(t, res.Similarity, 0.5)
}

func TestResolveDisjointValuesAreUnrelated(t *testing.T) {
	r := newTestResolver()
	existing := fact("u-1", models.CategoryPreference, "jazz music")
	newFact := fact("u-1", models.CategoryPreference, "thai cooking")

	res := r.Resolve(newFact, []*models.Fact{existing})
	assert.Equal(t, models.VerdictUnrelated, res.Verdict)
	assert.Equal(t, models.MergeAppend, res.Strategy)
	assert.Nil(t, res.Matched)
}

func TestResolveSkipsOtherUsersAndCategories(t *testing.T) {
	r := newTestResolver()
	otherUser := fact("u-2", models.CategoryLocation, "Paris")
	otherCategory := fact("u-1", models.CategoryOccupation, "Paris")
	newFact := fact("u-1", models.CategoryLocation, "Paris")

	res := r.Resolve(newFact, []*models.Fact{otherUser, otherCategory, nil})
	assert.Equal(t, models.VerdictUnrelated, res.Verdict)
	assert.Nil(t, res.Matched)
}

func TestResolveEmptyCandidateSet(t *testing.T) {
	r := newTestResolver()
	newFact := fact("u-1", models.CategoryGoal, "run a marathon")

	res := r.Resolve(newFact, nil)
	assert.Equal(t, models.VerdictUnrelated, res.Verdict)
	assert.Equal(t, models.MergeAppend, res.Strategy)
}
