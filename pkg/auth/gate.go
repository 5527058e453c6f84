package auth

import (
	"context"
	"net/http"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
	"mentorhub/pkg/telemetry"
)

// Redirect targets for gate decisions.
const (
	SignInPath  = "/signin"
	UpgradePath = "/upgrade"
)

type ctxIdentityKey struct{}

// IdentityFromContext returns the gate-verified identity, or the zero value.
func IdentityFromContext(ctx context.Context) models.Identity {
	if v := ctx.Value(ctxIdentityKey{}); v != nil {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

// RequireEntitled gates a handler behind the access decision table:
// unauthenticated callers are redirected to sign-in, authenticated but
// unentitled callers to the upgrade page, and entitled callers pass through
// with their identity in the request context. Both resolutions complete
// before anything is written, and entitlement is always re-derived with a
// forced refresh so a just-granted claim is honored.
func RequireEntitled(p IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Session-Token")
			if token == "" {
				if c, err := r.Cookie("session"); err == nil {
					token = c.Value
				}
			}
			id, err := p.ResolveIdentity(r.Context(), token)
			if err != nil || !id.Authenticated {
				if err != nil && err != ErrUnauthenticated {
					logger.Error("identity_resolution_failed", "error", err)
				}
				logger.Info("gate_redirect_signin", "path", r.URL.Path)
				telemetry.CountGateDecision("signin")
				http.Redirect(w, r, SignInPath, http.StatusSeeOther)
				return
			}
			ent, err := p.ResolveEntitlement(r.Context(), id, true)
			if err != nil {
				logger.Error("entitlement_resolution_failed", "uid", id.UID, "error", err)
				telemetry.CountGateDecision("upgrade")
				http.Redirect(w, r, UpgradePath, http.StatusSeeOther)
				return
			}
			if !ent.Entitled {
				logger.Info("gate_redirect_upgrade", "uid", id.UID, "path", r.URL.Path)
				telemetry.CountGateDecision("upgrade")
				http.Redirect(w, r, UpgradePath, http.StatusSeeOther)
				return
			}
			telemetry.CountGateDecision("serve")
			ctx := context.WithValue(r.Context(), ctxIdentityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
