package auth

import (
	"context"
	"errors"

	"mentorhub/pkg/models"
)

// ErrUnauthenticated is returned by ResolveIdentity for missing, malformed,
// forged or revoked tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityProvider resolves a session token into an identity and derives the
// entitlement for an identity. The production implementation is backed by the
// local identity store; tests substitute fakes.
type IdentityProvider interface {
	// ResolveIdentity verifies token and returns the identity it names.
	ResolveIdentity(ctx context.Context, token string) (models.Identity, error)
	// ResolveEntitlement derives the entitlement for id. forceRefresh
	// bypasses any cached claims so a just-granted claim is visible
	// immediately.
	ResolveEntitlement(ctx context.Context, id models.Identity, forceRefresh bool) (models.Entitlement, error)
}
