package scoring

import (
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"math"
	"strings"
	"time"
	"unicode"
)

// StrengthenKind selects what a Strengthen call represents.
type StrengthenKind string

const (
	// StrengthenAccess - the fact was read and used in a conversation.
	StrengthenAccess StrengthenKind = "access"
	// StrengthenVerify - the user independently confirmed the fact.
	StrengthenVerify StrengthenKind = "verify"
)

// WeakenReason selects the penalty applied by Weaken.
type WeakenReason string

const (
	// WeakenStale - the fact went unused past its retention window.
	WeakenStale WeakenReason = "stale"
	// WeakenContradicted - a newer fact contradicted this one.
	WeakenContradicted WeakenReason = "contradicted"
)

// Base confidence per source. Explicit statements score highest; facts
// of unknown provenance start barely above the storage threshold.
var sourceBase = map[models.Source]float64{
	models.SourceUserExplicit:       0.95,
	models.SourceUserConfirmed:      0.90,
	models.SourceExtractionInferred: 0.60,
	models.SourceSystemGenerated:    0.50,
	models.SourceUnknown:            0.30,
}

// retentionDays is the per-category window within which no decay
// penalty applies.
var retentionDays = map[models.Category]float64{
	models.CategoryIdentity:           365,
	models.CategoryName:               365,
	models.CategoryHealth:             365,
	models.CategoryContact:            365,
	models.CategoryLocation:           180,
	models.CategoryOccupation:         180,
	models.CategoryRelationship:       180,
	models.CategoryLanguage:           180,
	models.CategoryPreference:         120,
	models.CategoryDislike:            120,
	models.CategoryGoal:               120,
	models.CategoryProject:            120,
	models.CategorySkill:              120,
	models.CategoryInterest:           120,
	models.CategoryCommunicationStyle: 120,
	models.CategorySchedule:           7,
	models.CategorySession:            1,
}

const (
	verificationBonusStep = 0.05
	verificationBonusCap  = 0.20
	recencyBonusMax       = 0.10
	recencyFullHours      = 1.0
	recencyZeroHours      = 168.0 // one week
	accessBonusStep       = 0.02
	accessBonusCap        = 0.10
	decayPerDay           = 0.01
	decayCap              = 0.30

	penaltyStale        = 0.1
	penaltyContradicted = 0.2

	// ExpireThreshold is the confidence below which a non-critical fact
	// becomes eligible for expiry.
	ExpireThreshold = 0.15
)

// Scorer derives confidence and importance for facts. It is the only
// component allowed to set those two fields: values arriving from
// callers or adapters are always overwritten.
type Scorer struct {
	logger *logger.Logger
}

// New creates a Scorer.
func New(l *logger.Logger) *Scorer {
	return &Scorer{logger: l}
}

// Enrich recomputes fact.Importance and fact.Confidence in place.
func (s *Scorer) Enrich(fact *models.Fact) {
	fact.Importance = Classify(fact.Category, fact.Source)
	fact.Confidence = s.Score(fact)
}

// Score computes the confidence of fact from its source, counters, age
// and content, clamped to [0, 1]. It does not mutate the fact.
func (s *Scorer) Score(fact *models.Fact) float64 {
	now := time.Now()

	base, ok := sourceBase[fact.Source]
	if !ok {
		base = sourceBase[models.SourceUnknown]
	}

	score := base
	score += verificationBonus(fact.VerifyCount)
	score += recencyBonus(fact.LastAccessedAt, now)
	score += accessBonus(fact.AccessCount)
	score += contentQuality(fact.Value)
	score -= s.decayPenalty(fact, now)

	return clamp01(score)
}

func verificationBonus(verifyCount int) float64 {
	bonus := verificationBonusStep * float64(verifyCount)
	return math.Min(bonus, verificationBonusCap)
}

func recencyBonus(lastAccessed time.Time, now time.Time) float64 {
	if lastAccessed.IsZero() {
		return 0
	}
	hours := now.Sub(lastAccessed).Hours()
	if hours <= recencyFullHours {
		return recencyBonusMax
	}
	if hours >= recencyZeroHours {
		return 0
	}
	// Linear falloff between one hour and one week.
	return recencyBonusMax * (recencyZeroHours - hours) / (recencyZeroHours - recencyFullHours)
}

func accessBonus(accessCount int) float64 {
	bonus := accessBonusStep * math.Log(1+float64(accessCount))
	return math.Min(bonus, accessBonusCap)
}

// contentQuality rewards values that carry real information (numbers,
// proper nouns) and penalizes near-empty ones.
func contentQuality(value string) float64 {
	runes := []rune(strings.TrimSpace(value))
	hasAlnum := false
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasAlnum = true
			break
		}
	}
	if len(runes) < 3 || !hasAlnum {
		return -0.10
	}

	quality := 0.0
	if strings.ContainsFunc(value, unicode.IsDigit) {
		quality += 0.03
	}
	for _, tok := range strings.Fields(value) {
		first := []rune(tok)[0]
		if unicode.IsUpper(first) {
			quality += 0.03
			break
		}
	}
	return quality
}

// decayPenalty grows linearly once a fact outlives its category's
// retention window. Critical facts never decay.
func (s *Scorer) decayPenalty(fact *models.Fact, now time.Time) float64 {
	if fact.Importance == models.ImportanceCritical {
		return 0
	}
	window, ok := retentionDays[fact.Category]
	if !ok || fact.UpdatedAt.IsZero() {
		return 0
	}
	ageDays := now.Sub(fact.UpdatedAt).Hours() / 24
	overageDays := ageDays - window
	if overageDays <= 0 {
		return 0
	}
	return math.Min(overageDays*decayPerDay, decayCap)
}

// Classify derives the importance class from the category and source.
// User-stated identity, health and contact facts are critical; the rest
// follow the category's retention bucket.
func Classify(category models.Category, source models.Source) models.Importance {
	userStated := source == models.SourceUserExplicit || source == models.SourceUserConfirmed

	switch category {
	case models.CategoryIdentity, models.CategoryName,
		models.CategoryHealth, models.CategoryContact:
		if userStated {
			return models.ImportanceCritical
		}
		return models.ImportanceHigh
	case models.CategoryLocation, models.CategoryOccupation,
		models.CategoryRelationship:
		return models.ImportanceHigh
	case models.CategorySchedule:
		return models.ImportanceLow
	case models.CategorySession:
		return models.ImportanceEphemeral
	default:
		return models.ImportanceMedium
	}
}

// Strengthen bumps the fact's counters for an access or an independent
// confirmation and recomputes the score. A verification of an inferred
// fact upgrades its source: the user has now vouched for it.
func (s *Scorer) Strengthen(fact *models.Fact, kind StrengthenKind) {
	now := time.Now()
	switch kind {
	case StrengthenVerify:
		fact.VerifyCount++
		if fact.Source == models.SourceExtractionInferred || fact.Source == models.SourceUnknown {
			fact.Source = models.SourceUserConfirmed
		}
	default:
		fact.AccessCount++
	}
	fact.LastAccessedAt = now
	s.Enrich(fact)
}

// Weaken applies a flat penalty and logs the reason. Weakening never
// changes counters: it records doubt, not usage.
func (s *Scorer) Weaken(fact *models.Fact, reason WeakenReason) {
	penalty := penaltyStale
	if reason == WeakenContradicted {
		penalty = penaltyContradicted
	}
	fact.Confidence = clamp01(fact.Confidence - penalty)
	s.logger.WithPayload(map[string]interface{}{
		"fact_id":  fact.ID,
		"user_id":  fact.UserID,
		"category": fact.Category,
		"reason":   reason,
		"penalty":  penalty,
	}).Warn("fact weakened")
}

// ShouldExpire reports whether a fact is eligible for removal: its
// confidence collapsed, it is an ephemeral fact past one day, or a
// low-importance fact outlived its retention window while barely used.
func (s *Scorer) ShouldExpire(fact *models.Fact) bool {
	if fact.Importance == models.ImportanceCritical {
		return false
	}
	now := time.Now()

	if s.Score(fact) < ExpireThreshold {
		return true
	}
	age := now.Sub(fact.CreatedAt)
	if fact.Importance == models.ImportanceEphemeral && age > 24*time.Hour {
		return true
	}
	if fact.Importance == models.ImportanceLow {
		window := retentionDays[fact.Category]
		if window > 0 && age.Hours()/24 > window && fact.AccessCount < 3 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
