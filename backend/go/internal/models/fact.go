package models

import (
	"strings"
	"time"
	"unicode"
)

// Category classifies a fact. The set is closed per deployment: routing,
// retention and graph mapping tables are keyed by it, so an unknown
// category is a validation failure, not a passthrough.
type Category string

const (
	CategoryIdentity           Category = "identity"
	CategoryName               Category = "name"
	CategoryLocation           Category = "location"
	CategoryOccupation         Category = "occupation"
	CategoryPreference         Category = "preference"
	CategoryDislike            Category = "dislike"
	CategoryRelationship       Category = "relationship"
	CategoryProject            Category = "project"
	CategoryGoal               Category = "goal"
	CategorySkill              Category = "skill"
	CategoryInterest           Category = "interest"
	CategoryLanguage           Category = "language"
	CategorySchedule           Category = "schedule"
	CategoryCommunicationStyle Category = "communication_style"
	CategoryContact            Category = "contact"
	CategoryHealth             Category = "health"
	CategorySession            Category = "session"
)

// AllCategories lists every category known to this deployment.
var AllCategories = []Category{
	CategoryIdentity, CategoryName, CategoryLocation, CategoryOccupation,
	CategoryPreference, CategoryDislike, CategoryRelationship,
	CategoryProject, CategoryGoal, CategorySkill, CategoryInterest,
	CategoryLanguage, CategorySchedule, CategoryCommunicationStyle,
	CategoryContact, CategoryHealth, CategorySession,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// identityLike categories describe a single-valued attribute of the user.
// A second, different value for one of these is a contradiction, not an
// addition.
var identityLike = map[Category]bool{
	CategoryIdentity:   true,
	CategoryName:       true,
	CategoryLocation:   true,
	CategoryOccupation: true,
}

// IsIdentityLike reports whether holding two different values of c at
// once is a contradiction for a single user.
func (c Category) IsIdentityLike() bool {
	return identityLike[c]
}

// sensitive categories are confined to the document store by the router.
var sensitive = map[Category]bool{
	CategoryHealth:  true,
	CategoryContact: true,
}

// IsSensitive reports whether facts of this category must stay in the
// primary document store only.
func (c Category) IsSensitive() bool {
	return sensitive[c]
}

// Source records how a fact entered the system. The confidence scorer
// derives its base score from it; callers can never set confidence
// directly.
type Source string

const (
	SourceUserExplicit       Source = "user_explicit"
	SourceUserConfirmed      Source = "user_confirmed"
	SourceExtractionInferred Source = "extraction_inferred"
	SourceSystemGenerated    Source = "system_generated"
	SourceUnknown            Source = "unknown"
)

// IsValid reports whether s is a known source. An empty source is
// normalized to SourceUnknown by validation rather than rejected.
func (s Source) IsValid() bool {
	switch s {
	case SourceUserExplicit, SourceUserConfirmed, SourceExtractionInferred,
		SourceSystemGenerated, SourceUnknown:
		return true
	}
	return false
}

// Importance is the retention-policy bucket of a fact. It controls the
// cache TTL, the decay rate and expiry eligibility.
type Importance string

const (
	ImportanceCritical  Importance = "critical"
	ImportanceHigh      Importance = "high"
	ImportanceMedium    Importance = "medium"
	ImportanceLow       Importance = "low"
	ImportanceEphemeral Importance = "ephemeral"
)

// Fact is a single user-scoped piece of extracted knowledge with
// provenance and derived confidence.
//
// UserID is immutable once set; Confidence and Importance are always
// recomputed by the scorer and never trusted from input.
type Fact struct {
	ID             string     `json:"id" bson:"_id"`
	UserID         string     `json:"user_id" bson:"user_id"`
	Category       Category   `json:"category" bson:"category"`
	Value          string     `json:"value" bson:"value"`
	Source         Source     `json:"source" bson:"source"`
	OriginalText   string     `json:"original_text,omitempty" bson:"original_text,omitempty"`
	Confidence     float64    `json:"confidence" bson:"confidence"`
	Importance     Importance `json:"importance" bson:"importance"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at" bson:"last_accessed_at"`
	AccessCount    int        `json:"access_count" bson:"access_count"`
	VerifyCount    int        `json:"verification_count" bson:"verification_count"`
	Version        int        `json:"version" bson:"version"`
}

const (
	// MinValueLength and MaxValueLength bound a fact value in runes,
	// measured after whitespace trimming.
	MinValueLength = 2
	MaxValueLength = 200
)

// ValidateValue checks a fact value against the length and content rules.
// The returned string is the trimmed value that should be stored.
func ValidateValue(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	runes := []rune(trimmed)
	if len(runes) < MinValueLength {
		return "", &ValidationError{Field: "value", Reason: "value too short"}
	}
	if len(runes) > MaxValueLength {
		return "", &ValidationError{Field: "value", Reason: "value too long"}
	}
	for _, r := range runes {
		if unicode.IsControl(r) {
			return "", &ValidationError{Field: "value", Reason: "value contains control characters"}
		}
	}
	return trimmed, nil
}

// NormalizedValue returns the canonical form of a value used for
// duplicate matching: lower-cased, whitespace collapsed, terminal
// punctuation stripped.
func NormalizedValue(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.TrimRight(v, ".!?,;:")
	return strings.Join(strings.Fields(v), " ")
}
