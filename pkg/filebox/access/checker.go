// Package access decides whether a caller may act on an organization's files.
package access

import (
	"context"
	"strings"

	"github.com/mikepea/filebox/pkg/filebox/models"
	"github.com/mikepea/filebox/pkg/filebox/users"
)

// Decision is the outcome of an access check. User is set whenever the
// caller resolved, granted or not.
type Decision struct {
	User    *models.User
	Granted bool
}

// Checker grants access to members of an organization and to the owner of
// a personal namespace.
type Checker struct {
	users           *users.Service
	legacySubstring bool
}

// NewChecker creates a checker. With legacySubstring set, a caller whose
// token identifier contains the org id anywhere is granted access, as older
// clients relied on; otherwise only an exact match against the subject part
// of the token identifier counts as a personal namespace.
func NewChecker(users *users.Service, legacySubstring bool) *Checker {
	return &Checker{users: users, legacySubstring: legacySubstring}
}

// Check resolves the caller and decides access to orgID. An unknown caller
// is an error (NotFound); denial is reported through the Decision.
func (c *Checker) Check(ctx context.Context, tokenIdentifier, orgID string) (Decision, error) {
	user, err := c.users.Resolve(ctx, tokenIdentifier)
	if err != nil {
		return Decision{}, err
	}
	return Decision{User: user, Granted: c.allowed(user, orgID)}, nil
}

func (c *Checker) allowed(user *models.User, orgID string) bool {
	if orgID == "" {
		return false
	}
	if user.BelongsTo(orgID) {
		return true
	}
	if c.legacySubstring {
		return strings.Contains(user.TokenIdentifier, orgID)
	}
	return PersonalNamespace(user.TokenIdentifier) == orgID
}

// PersonalNamespace returns the org id under which a user without an
// organization stores files: the subject part of "issuer|subject".
func PersonalNamespace(tokenIdentifier string) string {
	if i := strings.LastIndex(tokenIdentifier, "|"); i >= 0 {
		return tokenIdentifier[i+1:]
	}
	return tokenIdentifier
}
