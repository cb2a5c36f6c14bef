package resolver

import (
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"strings"
	"time"
)

// sameSubjectThreshold is the minimum token overlap (Jaccard) at which
// two values of the same non-identity category are considered the same
// subject, making the new fact an update rather than a separate fact.
const sameSubjectThreshold = 0.5

// Resolver classifies how a new fact relates to a user's existing facts
// and recommends a merge strategy. It never raises: every outcome is a
// verdict, and every contradiction is logged for the audit trail.
type Resolver struct {
	logger *logger.Logger
}

// New creates a Resolver.
func New(l *logger.Logger) *Resolver {
	return &Resolver{logger: l}
}

// Resolve compares newFact against the candidate set. Candidates are
// expected to be pre-filtered to the same user; any candidate from a
// different user is skipped outright as a second line of defense.
func (r *Resolver) Resolve(newFact *models.Fact, existing []*models.Fact) models.Resolution {
	best := models.Resolution{
		Verdict:  models.VerdictUnrelated,
		Strategy: models.MergeAppend,
	}

	newNorm := models.NormalizedValue(newFact.Value)

	for _, candidate := range existing {
		if candidate == nil || candidate.UserID != newFact.UserID {
			continue
		}
		if candidate.Category != newFact.Category {
			continue
		}

		candNorm := models.NormalizedValue(candidate.Value)

		// Exact normalized equality wins immediately.
		if candNorm == newNorm {
			return models.Resolution{
				Verdict:    models.VerdictIdentical,
				Matched:    candidate,
				Similarity: 1.0,
				Strategy:   models.MergeStrengthenExisting,
			}
		}

		similarity := jaccard(tokens(candNorm), tokens(newNorm))

		if newFact.Category.IsIdentityLike() {
			res := r.resolveIdentityConflict(newFact, candidate, similarity)
			if res.Verdict != models.VerdictUnrelated && similarity >= best.Similarity {
				best = res
			}
			continue
		}

		if similarity >= sameSubjectThreshold && similarity > best.Similarity {
			best = models.Resolution{
				Verdict:    models.VerdictUpdate,
				Matched:    candidate,
				Similarity: similarity,
				Strategy:   models.MergeAppend,
			}
		}
	}

	return best
}

// resolveIdentityConflict handles a differing value in a single-valued
// category. An enrichment of the old value (old tokens fully contained
// in the new) is an update; anything else is a contradiction. Either
// way the new value replaces the old, unless it looks like a downgrade,
// in which case the existing fact is kept.
//
// The downgrade guard (never overwrite a fuller value with a single
// ambiguous token) is a product policy choice, kept swappable here.
func (r *Resolver) resolveIdentityConflict(newFact, candidate *models.Fact, similarity float64) models.Resolution {
	newToks := tokens(models.NormalizedValue(newFact.Value))
	oldToks := tokens(models.NormalizedValue(candidate.Value))

	verdict := models.VerdictContradiction
	if containsAll(newToks, oldToks) {
		// "John" -> "John Smith": the old value is still plausible
		// inside the new one, so this is an update, not a conflict.
		verdict = models.VerdictUpdate
	}

	strategy := models.MergeReplaceWithNew
	if looksLikeDowngrade(oldToks, newToks) {
		strategy = models.MergeKeepExisting
	}

	if verdict == models.VerdictContradiction {
		// Contradictions are always logged with both values, whichever
		// branch wins, so support can answer "what did we overwrite".
		r.logger.WithPayload(map[string]interface{}{
			"user_id":   newFact.UserID,
			"category":  newFact.Category,
			"old_value": candidate.Value,
			"new_value": newFact.Value,
			"old_fact":  candidate.ID,
			"strategy":  strategy,
			"at":        time.Now().UTC().Format(time.RFC3339),
		}).Warn("contradiction detected")
	}

	return models.Resolution{
		Verdict:    verdict,
		Matched:    candidate,
		Similarity: similarity,
		Strategy:   strategy,
	}
}

// looksLikeDowngrade reports whether replacing old with new would lose
// information: a multi-token value collapsing to a single token, or a
// new value that is a strict subset of the old one.
func looksLikeDowngrade(oldToks, newToks []string) bool {
	if len(oldToks) > 1 && len(newToks) == 1 {
		return true
	}
	if len(newToks) < len(oldToks) && containsAll(oldToks, newToks) {
		return true
	}
	return false
}

func tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// containsAll reports whether every member of subset occurs in set.
func containsAll(set, subset []string) bool {
	if len(subset) == 0 {
		return false
	}
	members := make(map[string]bool, len(set))
	for _, t := range set {
		members[t] = true
	}
	for _, t := range subset {
		if !members[t] {
			return false
		}
	}
	return true
}

// jaccard computes |A∩B| / |A∪B| over the two token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
