package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mentorhub/pkg/auth"
	"mentorhub/pkg/config"
	"mentorhub/pkg/store"
)

func setupClaimsStore(t *testing.T) {
	t.Helper()
	config.SetRuntime(&config.RuntimeConfig{
		BackendKeys: map[string]struct{}{"bk": {}},
		SigningKeys: map[string]struct{}{"signing-key": {}},
	})
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGrantAllowListed(t *testing.T) {
	setupClaimsStore(t)
	r := BuildRouter(testDeps(t, nil))

	rec := postJSON(t, r, "/v1/access/grant", `{"uid":"vip-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	claims, err := store.GetClaims("vip-1")
	if err != nil {
		t.Fatalf("get claims failed: %v", err)
	}
	if !claims.FreeAccess {
		t.Fatalf("free access claim should be set, got %+v", claims)
	}
	watermark, err := store.GetRevocation("vip-1")
	if err != nil {
		t.Fatalf("get revocation failed: %v", err)
	}
	if watermark == 0 {
		t.Fatalf("existing sessions should be revoked")
	}
	audit, err := store.ListGrantAudit(0)
	if err != nil || len(audit) == 0 {
		t.Fatalf("expected an audit row: %v %+v", err, audit)
	}
	if audit[len(audit)-1].Outcome != "granted" {
		t.Fatalf("unexpected audit outcome %+v", audit[len(audit)-1])
	}
}

func TestGrantNotAllowListed(t *testing.T) {
	setupClaimsStore(t)
	r := BuildRouter(testDeps(t, nil))

	rec := postJSON(t, r, "/v1/access/grant", `{"uid":"stranger"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	claims, err := store.GetClaims("stranger")
	if err != nil {
		t.Fatalf("get claims failed: %v", err)
	}
	if claims.FreeAccess {
		t.Fatalf("claim must not be set for rejected grants")
	}
}

func TestGrantAllowListUnconfigured(t *testing.T) {
	setupClaimsStore(t)
	d := testDeps(t, nil)
	d.AuthorizedUIDs = nil
	r := BuildRouter(d)

	rec := postJSON(t, r, "/v1/access/grant", `{"uid":"vip-1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when no allow-list is configured, got %d", rec.Code)
	}
	claims, err := store.GetClaims("vip-1")
	if err != nil {
		t.Fatalf("get claims failed: %v", err)
	}
	if claims.FreeAccess {
		t.Fatalf("claim must not be set when the allow-list is missing")
	}
}

func TestGrantValidation(t *testing.T) {
	setupClaimsStore(t)
	r := BuildRouter(testDeps(t, nil))

	for name, body := range map[string]string{
		"missing uid": `{}`,
		"blank uid":   `{"uid":"   "}`,
		"malformed":   `{`,
	} {
		rec := postJSON(t, r, "/v1/access/grant", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestGrantTakesEffectOnNextRequest(t *testing.T) {
	setupClaimsStore(t)
	d := testDeps(t, nil)
	provider := auth.NewLocalProvider(0)
	d.Provider = provider
	r := BuildRouter(d)

	// issue a session, then grant: the old session must die and a new one
	// must carry the entitlement
	rec := postJSON(t, r, "/v1/session", `{"uid":"vip-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("session issue failed: %d %s", rec.Code, rec.Body.String())
	}
	oldToken := tokenFrom(t, rec)

	if rec := postJSON(t, r, "/v1/access/grant", `{"uid":"vip-1"}`); rec.Code != http.StatusOK {
		t.Fatalf("grant failed: %d", rec.Code)
	}

	if _, err := provider.ResolveIdentity(context.Background(), oldToken); err == nil {
		t.Fatalf("pre-grant session should be revoked")
	}

	rec = postJSON(t, r, "/v1/session", `{"uid":"vip-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-issue failed: %d", rec.Code)
	}
	id, err := provider.ResolveIdentity(context.Background(), tokenFrom(t, rec))
	if err != nil {
		t.Fatalf("new session should resolve: %v", err)
	}
	ent, err := provider.ResolveEntitlement(context.Background(), id, true)
	if err != nil {
		t.Fatalf("entitlement failed: %v", err)
	}
	if !ent.Entitled || ent.Source != "free_access" {
		t.Fatalf("expected free_access entitlement, got %+v", ent)
	}
}

func TestSessionIssue(t *testing.T) {
	setupClaimsStore(t)
	d := testDeps(t, nil)
	provider := auth.NewLocalProvider(0)
	d.Provider = provider
	r := BuildRouter(d)

	rec := postJSON(t, r, "/v1/session", `{"uid":"user-9","subscription_active":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	id, err := provider.ResolveIdentity(context.Background(), tokenFrom(t, rec))
	if err != nil || id.UID != "user-9" {
		t.Fatalf("token should resolve to user-9: %v %+v", err, id)
	}
	ent, err := provider.ResolveEntitlement(context.Background(), id, true)
	if err != nil || !ent.Entitled || ent.Source != "subscription" {
		t.Fatalf("expected subscription entitlement: %v %+v", err, ent)
	}

	if rec := postJSON(t, r, "/v1/session", `{"uid":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing uid, got %d", rec.Code)
	}
}

func TestSweepTrigger(t *testing.T) {
	d := testDeps(t, nil)
	calls := 0
	d.Sweep = func() { calls++ }
	r := BuildRouter(d)

	rec := postJSON(t, r, "/v1/housekeeping/sweep", ``)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("sweep should run once, ran %d times", calls)
	}

	d.Sweep = nil
	r = BuildRouter(d)
	if rec := postJSON(t, r, "/v1/housekeeping/sweep", ``); rec.Code != http.StatusNotFound {
		t.Fatalf("route should be absent without a sweeper, got %d", rec.Code)
	}
}

func tokenFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := rec.Body.String()
	i := strings.Index(body, `"token":"`)
	if i < 0 {
		t.Fatalf("no token in %s", body)
	}
	rest := body[i+len(`"token":"`):]
	j := strings.Index(rest, `"`)
	if j < 0 {
		t.Fatalf("unterminated token in %s", body)
	}
	return rest[:j]
}
