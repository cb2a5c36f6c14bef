package scoring

import (
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer() *Scorer {
	return New(logger.New("scorer_test", "", ""))
}

func freshFact(category models.Category, source models.Source, value string) *models.Fact {
	now := time.Now()
	return &models.Fact{
		ID:             "f-1",
		UserID:         "u-1",
		Category:       category,
		Value:          value,
		Source:         source,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
		Version:        1,
	}
}

func TestScoreUserExplicitFloor(t *testing.T) {
	s := newTestScorer()
	fact := freshFact(models.CategoryLocation, models.SourceUserExplicit, "Paris")

	score := s.Score(fact)
	assert.GreaterOrEqual(t, score, 0.85, "an explicit user statement must score high")
	assert.LessOrEqual(t, score, 1.0)
}

func TestScoreUnknownSourceScoresLow(t *testing.T) {
	s := newTestScorer()
	explicit := freshFact(models.CategoryPreference, models.SourceUserExplicit, "jazz music")
	unknown := freshFact(models.CategoryPreference, models.SourceUnknown, "jazz music")

	assert.Greater(t, s.Score(explicit), s.Score(unknown))
}

func TestCriticalNeverDecays(t *testing.T) {
	s := newTestScorer()
	old := freshFact(models.CategoryName, models.SourceUserExplicit, "Ada Lovelace")
	old.Importance = models.ImportanceCritical
	old.UpdatedAt = time.Now().AddDate(-3, 0, 0)
	old.LastAccessedAt = time.Time{}

	current := freshFact(models.CategoryName, models.SourceUserExplicit, "Ada Lovelace")
	current.Importance = models.ImportanceCritical
	current.LastAccessedAt = time.Time{}

	assert.InDelta(t, s.Score(current), s.Score(old), 1e-9,
		"age must not change the score of a critical fact")
}

func TestMediumImportanceDecaysPastRetention(t *testing.T) {
	s := newTestScorer()
	stale := freshFact(models.CategoryPreference, models.SourceUserConfirmed, "hiking")
	stale.Importance = models.ImportanceMedium
	stale.UpdatedAt = time.Now().AddDate(-1, 0, 0) // past the 120 day window
	stale.LastAccessedAt = time.Time{}

	current := freshFact(models.CategoryPreference, models.SourceUserConfirmed, "hiking")
	current.Importance = models.ImportanceMedium
	current.LastAccessedAt = time.Time{}

	assert.Less(t, s.Score(stale), s.Score(current))
}

func TestVerificationBonusIsCapped(t *testing.T) {
	s := newTestScorer()
	four := freshFact(models.CategoryOccupation, models.SourceExtractionInferred, "engineer")
	four.VerifyCount = 4
	ten := freshFact(models.CategoryOccupation, models.SourceExtractionInferred, "engineer")
	ten.VerifyCount = 10

	assert.InDelta(t, s.Score(four), s.Score(ten), 1e-9)
}

func TestEnrichOverwritesCallerValues(t *testing.T) {
	s := newTestScorer()
	fact := freshFact(models.CategorySession, models.SourceSystemGenerated, "viewing dashboard")
	fact.Confidence = 0.99
	fact.Importance = models.ImportanceCritical

	s.Enrich(fact)
	assert.Equal(t, models.ImportanceEphemeral, fact.Importance)
	assert.NotEqual(t, 0.99, fact.Confidence)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		category models.Category
		source   models.Source
		want     models.Importance
	}{
		{models.CategoryName, models.SourceUserExplicit, models.ImportanceCritical},
		{models.CategoryName, models.SourceExtractionInferred, models.ImportanceHigh},
		{models.CategoryHealth, models.SourceUserConfirmed, models.ImportanceCritical},
		{models.CategoryLocation, models.SourceUnknown, models.ImportanceHigh},
		{models.CategoryPreference, models.SourceUserExplicit, models.ImportanceMedium},
		{models.CategorySchedule, models.SourceUserExplicit, models.ImportanceLow},
		{models.CategorySession, models.SourceSystemGenerated, models.ImportanceEphemeral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.category, tc.source),
			"category %s source %s", tc.category, tc.source)
	}
}

func TestStrengthenVerifyUpgradesInferredSource(t *testing.T) {
	s := newTestScorer()
	fact := freshFact(models.CategoryOccupation, models.SourceExtractionInferred, "violinist")
	s.Enrich(fact)
	before := fact.Confidence

	s.Strengthen(fact, StrengthenVerify)
	assert.Equal(t, models.SourceUserConfirmed, fact.Source)
	assert.Equal(t, 1, fact.VerifyCount)
	assert.Greater(t, fact.Confidence, before)
}

func TestStrengthenAccessBumpsCounter(t *testing.T) {
	s := newTestScorer()
	fact := freshFact(models.CategoryInterest, models.SourceUserExplicit, "astronomy")
	s.Strengthen(fact, StrengthenAccess)
	s.Strengthen(fact, StrengthenAccess)

	assert.Equal(t, 2, fact.AccessCount)
	assert.Equal(t, 0, fact.VerifyCount)
	assert.Equal(t, models.SourceUserExplicit, fact.Source)
}

func TestWeakenContradicted(t *testing.T) {
	s := newTestScorer()
	fact := freshFact(models.CategoryLocation, models.SourceUserExplicit, "Paris")
	fact.Confidence = 0.90

	s.Weaken(fact, WeakenContradicted)
	require.InDelta(t, 0.70, fact.Confidence, 1e-9)

	s.Weaken(fact, WeakenStale)
	assert.InDelta(t, 0.60, fact.Confidence, 1e-9)
}

func TestShouldExpire(t *testing.T) {
	s := newTestScorer()

	critical := freshFact(models.CategoryName, models.SourceUserExplicit, "Ada Lovelace")
	critical.Importance = models.ImportanceCritical
	critical.UpdatedAt = time.Now().AddDate(-5, 0, 0)
	assert.False(t, s.ShouldExpire(critical))

	session := freshFact(models.CategorySession, models.SourceSystemGenerated, "viewing dashboard")
	session.Importance = models.ImportanceEphemeral
	session.CreatedAt = time.Now().Add(-48 * time.Hour)
	assert.True(t, s.ShouldExpire(session))

	fresh := freshFact(models.CategoryPreference, models.SourceUserExplicit, "jazz music")
	fresh.Importance = models.ImportanceMedium
	assert.False(t, s.ShouldExpire(fresh))
}
