package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/store"
	"mentorhub/pkg/utils"
)

// TokenIssuer mints session tokens. Satisfied by auth.LocalProvider.
type TokenIssuer interface {
	IssueToken(uid string) (string, error)
}

type grantRequest struct {
	UID string `json:"uid"`
}

type sessionRequest struct {
	UID string `json:"uid"`
}

// RegisterAccess wires the free-access grant, session issuing and the
// on-demand housekeeping trigger. The request gateway restricts the grant
// and sweep routes to admin keys.
func RegisterAccess(r *mux.Router, d Deps) {
	r.HandleFunc("/access/grant", func(w http.ResponseWriter, req *http.Request) {
		handleGrant(w, req, d)
	}).Methods(http.MethodPost)
	r.HandleFunc("/session", func(w http.ResponseWriter, req *http.Request) {
		handleIssueSession(w, req, d)
	}).Methods(http.MethodPost)
	if d.Sweep != nil {
		r.HandleFunc("/housekeeping/sweep", func(w http.ResponseWriter, req *http.Request) {
			d.Sweep()
			logger.Info("sweep_triggered", "actor", actorFrom(req))
			utils.JSONWrite(w, http.StatusOK, map[string]string{"message": "sweep completed"})
		}).Methods(http.MethodPost)
	}
}

// handleGrant marks an allow-listed account as having free access and
// revokes its existing sessions so the claim takes effect on the next
// request rather than at cache expiry.
func handleGrant(w http.ResponseWriter, r *http.Request, d Deps) {
	var body grantRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	uid := strings.TrimSpace(body.UID)
	if uid == "" {
		utils.JSONError(w, http.StatusBadRequest, "uid is required")
		return
	}

	if len(d.AuthorizedUIDs) == 0 {
		logger.Error("grant_allowlist_missing")
		utils.JSONError(w, http.StatusInternalServerError, "server configuration error")
		return
	}
	if _, ok := d.AuthorizedUIDs[uid]; !ok {
		logger.Warn("grant_rejected", "uid", uid)
		_ = store.AppendGrantAudit(store.GrantAuditEntry{
			UID: uid, Actor: actorFrom(r), Outcome: "rejected", TS: time.Now().UnixNano(),
		})
		utils.JSONError(w, http.StatusForbidden, "account not authorized for free access")
		return
	}

	claims, err := store.GetClaims(uid)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot read account claims")
		return
	}
	claims.FreeAccess = true
	claims.UpdatedTS = time.Now().UnixNano()
	if err := store.SaveClaims(uid, claims); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot save account claims")
		return
	}
	if err := store.SetRevocation(uid, time.Now().UnixNano()); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "cannot revoke sessions")
		return
	}
	_ = store.AppendGrantAudit(store.GrantAuditEntry{
		UID: uid, Actor: actorFrom(r), Outcome: "granted", TS: claims.UpdatedTS,
	})
	logger.Info("grant_applied", "uid", uid)
	utils.JSONWrite(w, http.StatusOK, map[string]string{"message": "free access granted", "uid": uid})
}

// handleIssueSession mints a signed session token for uid. Claims are
// seeded from the request so a subscription state set by the billing
// system upstream can be carried in.
func handleIssueSession(w http.ResponseWriter, r *http.Request, d Deps) {
	issuer, ok := d.Provider.(TokenIssuer)
	if !ok {
		utils.JSONError(w, http.StatusInternalServerError, "session issuing unavailable")
		return
	}
	var body struct {
		sessionRequest
		SubscriptionActive bool `json:"subscription_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	uid := strings.TrimSpace(body.UID)
	if uid == "" {
		utils.JSONError(w, http.StatusBadRequest, "uid is required")
		return
	}
	if body.SubscriptionActive {
		claims, err := store.GetClaims(uid)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "cannot read account claims")
			return
		}
		claims.SubscriptionActive = true
		claims.UpdatedTS = time.Now().UnixNano()
		if err := store.SaveClaims(uid, claims); err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "cannot save account claims")
			return
		}
	}
	token, err := issuer.IssueToken(uid)
	if err != nil {
		logger.Error("session_issue_failed", "uid", uid, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "cannot issue session")
		return
	}
	logger.Info("session_issued", "uid", uid)
	utils.JSONWrite(w, http.StatusOK, map[string]string{"token": token, "uid": uid})
}

func actorFrom(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" && len(k) > 8 {
		return k[:8]
	}
	return r.RemoteAddr
}
