package store

import (
	"testing"
	"time"

	"mentorhub/pkg/models"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestClaimsRoundtrip(t *testing.T) {
	openTestStore(t)
	if err := SaveClaims("u1", models.Claims{FreeAccess: true}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	c, err := GetClaims("u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !c.FreeAccess || c.UpdatedTS == 0 {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestGetClaimsUnknownUID(t *testing.T) {
	openTestStore(t)
	c, err := GetClaims("nobody")
	if err != nil {
		t.Fatalf("unknown uid should not error: %v", err)
	}
	if c.FreeAccess || c.SubscriptionActive {
		t.Fatalf("unknown uid should have zero claims, got %+v", c)
	}
}

func TestRevocationRoundtrip(t *testing.T) {
	openTestStore(t)
	ts, err := GetRevocation("u1")
	if err != nil || ts != 0 {
		t.Fatalf("unrevoked uid should have zero watermark: %v %d", err, ts)
	}
	now := time.Now().UnixNano()
	if err := SetRevocation("u1", now); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	ts, err = GetRevocation("u1")
	if err != nil || ts != now {
		t.Fatalf("watermark mismatch: %v %d != %d", err, ts, now)
	}
}

func TestGrantAuditOrder(t *testing.T) {
	openTestStore(t)
	base := time.Now().UnixNano()
	for i := 0; i < 3; i++ {
		if err := AppendGrantAudit(GrantAuditEntry{UID: "u1", Outcome: "granted", TS: base + int64(i)}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	rows, err := ListGrantAudit(0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].TS < rows[i-1].TS {
			t.Fatalf("rows out of order: %+v", rows)
		}
	}
	limited, err := ListGrantAudit(2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limit not honored: %v %d", err, len(limited))
	}
}

func TestListKeys(t *testing.T) {
	openTestStore(t)
	if err := SaveClaims("a", models.Claims{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := SaveClaims("b", models.Claims{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := SetRevocation("a", 1); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	keys, err := ListKeys("claims:")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 claims keys, got %v", keys)
	}
}

func TestNotOpened(t *testing.T) {
	// no Open call: operations must fail loudly, not panic
	prev := db
	db = nil
	t.Cleanup(func() { db = prev })
	if err := SaveClaims("u", models.Claims{}); err == nil {
		t.Fatalf("expected error when store is closed")
	}
	if Ready() {
		t.Fatalf("closed store must not report ready")
	}
}
