package guard

import (
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"strings"
	"unicode"
)

// MaxUserIDLength bounds the opaque user identifier.
const MaxUserIDLength = 128

// Guard enforces user-level isolation. Every document that enters or
// leaves the engine passes through it: writes are stamped with the
// owning user, reads are verified against the requesting user before
// anything is returned to a caller.
type Guard struct {
	logger *logger.Logger
}

// New creates a Guard.
func New(l *logger.Logger) *Guard {
	return &Guard{logger: l}
}

// ValidateAccess checks that userID is well formed before any store is
// touched. It returns an OwnershipError for an empty, oversized, or
// suspicious identifier.
func (g *Guard) ValidateAccess(userID, operation string) error {
	if strings.TrimSpace(userID) == "" {
		return &models.OwnershipError{UserID: userID, Reason: "user id is empty"}
	}
	if len(userID) > MaxUserIDLength {
		return &models.OwnershipError{UserID: userID, Reason: "user id too long"}
	}
	if strings.Contains(userID, "..") {
		return &models.OwnershipError{UserID: userID, Reason: "user id contains path traversal"}
	}
	for _, r := range userID {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' || r == '\\' {
			return &models.OwnershipError{UserID: userID, Reason: "user id contains forbidden characters"}
		}
	}
	return nil
}

// Scope stamps fact with the owning user. A fact that already carries a
// different UserID is rejected: ownership is immutable once set.
func (g *Guard) Scope(userID string, fact *models.Fact) error {
	if fact.UserID == "" {
		fact.UserID = userID
		return nil
	}
	if fact.UserID != userID {
		g.logger.WithPayload(map[string]interface{}{
			"requested_user": userID,
			"fact_user":      fact.UserID,
			"fact_id":        fact.ID,
		}).Error("refusing to re-scope fact to a different user")
		return &models.OwnershipError{UserID: userID, Reason: "fact belongs to a different user"}
	}
	return nil
}

// VerifyOwnership reports whether fact belongs to userID. It is called
// defensively on every read result: a false return means an adapter
// leaked data across users, which is logged and the document dropped.
func (g *Guard) VerifyOwnership(userID string, fact *models.Fact) bool {
	if fact == nil {
		return false
	}
	if fact.UserID != userID {
		g.logger.WithPayload(map[string]interface{}{
			"requested_user": userID,
			"fact_user":      fact.UserID,
			"fact_id":        fact.ID,
		}).Error("cross-user document intercepted on read path")
		return false
	}
	return true
}
