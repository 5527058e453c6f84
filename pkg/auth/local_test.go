package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mentorhub/pkg/config"
	"mentorhub/pkg/models"
	"mentorhub/pkg/store"
)

func setupStore(t *testing.T) {
	t.Helper()
	config.SetRuntime(&config.RuntimeConfig{
		BackendKeys: map[string]struct{}{"backend-key": {}},
		SigningKeys: map[string]struct{}{"signing-key": {}},
	})
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func TestIssueAndResolve(t *testing.T) {
	setupStore(t)
	p := NewLocalProvider(0)
	token, err := p.IssueToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	id, err := p.ResolveIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id.UID != "user-1" || !id.Authenticated {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestResolveRejectsForgedTokens(t *testing.T) {
	setupStore(t)
	p := NewLocalProvider(0)
	token, err := p.IssueToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	cases := []string{
		"",
		"garbage",
		"a.b",
		token + "tampered",
		strings.Replace(token, "user-1", "user-2", 1),
	}
	for _, tok := range cases {
		if _, err := p.ResolveIdentity(context.Background(), tok); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("token %q: expected ErrUnauthenticated, got %v", tok, err)
		}
	}
}

func TestRevocationInvalidatesOldTokens(t *testing.T) {
	setupStore(t)
	p := NewLocalProvider(0)
	old, err := p.IssueToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := store.SetRevocation("user-1", time.Now().UnixNano()); err != nil {
		t.Fatalf("revocation failed: %v", err)
	}
	if _, err := p.ResolveIdentity(context.Background(), old); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("revoked token should be rejected, got %v", err)
	}
	// a token issued after the watermark is accepted
	fresh, err := p.IssueToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := p.ResolveIdentity(context.Background(), fresh); err != nil {
		t.Fatalf("fresh token should resolve: %v", err)
	}
}

func TestEntitlementDerivation(t *testing.T) {
	setupStore(t)
	p := NewLocalProvider(0)
	id := models.Identity{UID: "user-1", Authenticated: true}

	ent, err := p.ResolveEntitlement(context.Background(), id, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ent.Entitled {
		t.Fatalf("no claims should mean no entitlement")
	}

	if err := store.SaveClaims("user-1", models.Claims{FreeAccess: true}); err != nil {
		t.Fatalf("save claims failed: %v", err)
	}
	ent, err = p.ResolveEntitlement(context.Background(), id, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !ent.Entitled || ent.Source != "free_access" {
		t.Fatalf("expected free_access entitlement, got %+v", ent)
	}

	if err := store.SaveClaims("user-1", models.Claims{SubscriptionActive: true, FreeAccess: true}); err != nil {
		t.Fatalf("save claims failed: %v", err)
	}
	ent, err = p.ResolveEntitlement(context.Background(), id, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ent.Source != "subscription" {
		t.Fatalf("subscription should win over free access, got %+v", ent)
	}
}

func TestForcedRefreshBypassesCache(t *testing.T) {
	setupStore(t)
	p := NewLocalProvider(time.Hour)
	id := models.Identity{UID: "user-1", Authenticated: true}

	// prime the cache with no entitlement
	if _, err := p.ResolveEntitlement(context.Background(), id, false); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if err := store.SaveClaims("user-1", models.Claims{FreeAccess: true}); err != nil {
		t.Fatalf("save claims failed: %v", err)
	}

	// cached path still reports the stale claims
	ent, err := p.ResolveEntitlement(context.Background(), id, false)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ent.Entitled {
		t.Fatalf("cached read should not see the new claim yet")
	}

	// forced refresh reads through
	ent, err = p.ResolveEntitlement(context.Background(), id, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !ent.Entitled {
		t.Fatalf("forced refresh should see the new claim")
	}
}

func TestUnauthenticatedIdentityHasNoEntitlement(t *testing.T) {
	setupStore(t)
	p := NewLocalProvider(0)
	ent, err := p.ResolveEntitlement(context.Background(), models.Identity{}, true)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ent.Entitled {
		t.Fatalf("unauthenticated identity should not be entitled")
	}
}
