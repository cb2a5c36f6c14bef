package guard

import (
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard() *Guard {
	return New(logger.New("guard_test", "", ""))
}

func TestValidateAccess(t *testing.T) {
	g := newTestGuard()

	cases := []struct {
		name   string
		userID string
		ok     bool
	}{
		{"plain id", "user-42", true},
		{"uuid style", "8f14e45f-ceea-4677-a1b0-6a2f7c9b9a01", true},
		{"at max length", strings.Repeat("a", MaxUserIDLength), true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"over max length", strings.Repeat("a", MaxUserIDLength+1), false},
		{"path traversal", "../etc/passwd", false},
		{"forward slash", "tenant/user", false},
		{"backslash", `tenant\user`, false},
		{"embedded space", "user 42", false},
		{"control character", "user\x00id", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.ValidateAccess(tc.userID, "test")
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var ownershipErr *models.OwnershipError
			assert.ErrorAs(t, err, &ownershipErr)
		})
	}
}

func TestScopeStampsUnownedFact(t *testing.T) {
	g := newTestGuard()
	fact := &models.Fact{ID: "f-1", Category: models.CategoryLocation, Value: "Paris"}

	require.NoError(t, g.Scope("u-1", fact))
	assert.Equal(t, "u-1", fact.UserID)

	// Re-scoping to the same user is a no-op.
	assert.NoError(t, g.Scope("u-1", fact))
}

func TestScopeRejectsForeignFact(t *testing.T) {
	g := newTestGuard()
	fact := &models.Fact{ID: "f-1", UserID: "u-1"}

	err := g.Scope("u-2", fact)
	var ownershipErr *models.OwnershipError
	require.ErrorAs(t, err, &ownershipErr)
	assert.Equal(t, "u-1", fact.UserID, "ownership must stay untouched on rejection")
}

func TestVerifyOwnership(t *testing.T) {
	g := newTestGuard()

	assert.True(t, g.VerifyOwnership("u-1", &models.Fact{ID: "f-1", UserID: "u-1"}))
	assert.False(t, g.VerifyOwnership("u-1", &models.Fact{ID: "f-1", UserID: "u-2"}))
	assert.False(t, g.VerifyOwnership("u-1", nil))
}
