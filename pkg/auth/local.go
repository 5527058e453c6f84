package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"mentorhub/pkg/config"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
	"mentorhub/pkg/store"
)

// LocalProvider is the store-backed IdentityProvider. Session tokens have
// the form `uid.issued_ns.hexsig` where hexsig is HMAC-SHA256 over
// `uid.issued_ns` with any configured signing key. Claims are cached for a
// short window; forced refresh reads through to the store.
type LocalProvider struct {
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cachedClaims
}

type cachedClaims struct {
	claims models.Claims
	at     time.Time
}

// NewLocalProvider returns a provider with the given claims-cache TTL.
// A non-positive TTL disables caching entirely.
func NewLocalProvider(cacheTTL time.Duration) *LocalProvider {
	return &LocalProvider{cacheTTL: cacheTTL, cache: map[string]cachedClaims{}}
}

// IssueToken mints a session token for uid signed with a configured signing
// key. Fails when no signing keys are configured.
func (p *LocalProvider) IssueToken(uid string) (string, error) {
	keys := config.GetSigningKeys()
	if len(keys) == 0 {
		return "", fmt.Errorf("no signing keys configured")
	}
	var key string
	for k := range keys {
		key = k
		break
	}
	issued := time.Now().UTC().UnixNano()
	payload := uid + "." + strconv.FormatInt(issued, 10)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(mac.Sum(nil)), nil
}

// ResolveIdentity verifies the token signature against all configured
// signing keys and rejects tokens issued at or before the uid's revocation
// watermark.
func (p *LocalProvider) ResolveIdentity(ctx context.Context, token string) (models.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Identity{}, ErrUnauthenticated
	}
	// uid may not contain dots; issued and sig never do.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		logger.Warn("malformed_session_token")
		return models.Identity{}, ErrUnauthenticated
	}
	uid, issuedStr, sig := parts[0], parts[1], parts[2]
	issued, err := strconv.ParseInt(issuedStr, 10, 64)
	if err != nil || uid == "" {
		return models.Identity{}, ErrUnauthenticated
	}

	payload := uid + "." + issuedStr
	ok := false
	for k := range config.GetSigningKeys() {
		mac := hmac.New(sha256.New, []byte(k))
		mac.Write([]byte(payload))
		expected := hex.EncodeToString(mac.Sum(nil))
		if hmac.Equal([]byte(expected), []byte(sig)) {
			ok = true
			break
		}
	}
	if !ok {
		logger.Warn("invalid_session_signature", "uid", uid)
		return models.Identity{}, ErrUnauthenticated
	}

	watermark, err := store.GetRevocation(uid)
	if err != nil {
		return models.Identity{}, err
	}
	if watermark > 0 && issued <= watermark {
		logger.Info("revoked_session_rejected", "uid", uid)
		return models.Identity{}, ErrUnauthenticated
	}
	return models.Identity{UID: uid, Authenticated: true, IssuedTS: issued}, nil
}

// ResolveEntitlement reads the identity's claims and derives the entitlement.
// forceRefresh bypasses the cache so a just-granted claim takes effect
// without re-login.
func (p *LocalProvider) ResolveEntitlement(ctx context.Context, id models.Identity, forceRefresh bool) (models.Entitlement, error) {
	if !id.Authenticated {
		return models.Entitlement{}, nil
	}
	var claims models.Claims
	if !forceRefresh && p.cacheTTL > 0 {
		p.mu.Lock()
		if c, ok := p.cache[id.UID]; ok && time.Since(c.at) < p.cacheTTL {
			claims = c.claims
			p.mu.Unlock()
			return deriveEntitlement(claims), nil
		}
		p.mu.Unlock()
	}
	claims, err := store.GetClaims(id.UID)
	if err != nil {
		return models.Entitlement{}, err
	}
	if p.cacheTTL > 0 {
		p.mu.Lock()
		p.cache[id.UID] = cachedClaims{claims: claims, at: time.Now()}
		p.mu.Unlock()
	}
	return deriveEntitlement(claims), nil
}

func deriveEntitlement(c models.Claims) models.Entitlement {
	switch {
	case c.SubscriptionActive:
		return models.Entitlement{Entitled: true, Source: "subscription"}
	case c.FreeAccess:
		return models.Entitlement{Entitled: true, Source: "free_access"}
	default:
		return models.Entitlement{}
	}
}
