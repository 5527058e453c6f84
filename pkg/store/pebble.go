package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string
)

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package. The store carries identity
// claims, revocation watermarks and the grant audit trail; article content
// never lives here.
func Open(path string) error {
	var err error
	logger.Info("opening_identity_store", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("identity_store_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("identity_store_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("identity_store_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// SaveClaims stores the claim set for a uid.
func SaveClaims(uid string, c models.Claims) error {
	if db == nil {
		return fmt.Errorf("store not opened; call store.Open first")
	}
	c.UpdatedTS = time.Now().UTC().UnixNano()
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal claims: %w", err)
	}
	key := []byte("claims:" + uid)
	if err := db.Set(key, b, pebble.Sync); err != nil {
		logger.Error("save_claims_failed", "uid", uid, "error", err)
		return err
	}
	logger.Info("claims_saved", "uid", uid)
	return nil
}

// GetClaims returns the stored claim set for a uid. A uid with no stored
// claims resolves to the zero claim set, not an error.
func GetClaims(uid string) (models.Claims, error) {
	var c models.Claims
	if db == nil {
		return c, fmt.Errorf("store not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte("claims:" + uid))
	if err == pebble.ErrNotFound {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &c); err != nil {
		return models.Claims{}, fmt.Errorf("invalid stored claims: %w", err)
	}
	return c, nil
}

// SetRevocation records a revocation watermark for a uid. Tokens issued at or
// before the watermark stop resolving.
func SetRevocation(uid string, ts int64) error {
	if db == nil {
		return fmt.Errorf("store not opened; call store.Open first")
	}
	key := []byte("revoke:" + uid)
	if err := db.Set(key, []byte(strconv.FormatInt(ts, 10)), pebble.Sync); err != nil {
		logger.Error("set_revocation_failed", "uid", uid, "error", err)
		return err
	}
	logger.Info("revocation_set", "uid", uid, "ts", ts)
	return nil
}

// GetRevocation returns the revocation watermark for a uid, or zero when the
// uid has never been revoked.
func GetRevocation(uid string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("store not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte("revoke:" + uid))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	ts, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid revocation watermark: %w", err)
	}
	return ts, nil
}

// GrantAuditEntry is one row of the append-only grant audit trail.
type GrantAuditEntry struct {
	UID     string `json:"uid"`
	Actor   string `json:"actor,omitempty"`
	Outcome string `json:"outcome"`
	TS      int64  `json:"ts"`
}

// AppendGrantAudit appends an audit row for a grant attempt.
func AppendGrantAudit(e GrantAuditEntry) error {
	if db == nil {
		return fmt.Errorf("store not opened; call store.Open first")
	}
	if e.TS == 0 {
		e.TS = time.Now().UTC().UnixNano()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("grant:audit:%020d", e.TS)
	if err := db.Set([]byte(key), b, pebble.Sync); err != nil {
		logger.Error("append_grant_audit_failed", "uid", e.UID, "error", err)
		return err
	}
	return nil
}

// ListGrantAudit returns grant audit rows in chronological order, newest
// last. A non-positive limit returns everything.
func ListGrantAudit(limit int) ([]GrantAuditEntry, error) {
	if db == nil {
		return nil, fmt.Errorf("store not opened; call store.Open first")
	}
	prefix := []byte("grant:audit:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []GrantAuditEntry
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var e GrantAuditEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, iter.Error()
}

// ListKeys returns all keys (as strings) that start with the given prefix.
// Used by admin tooling and tests.
func ListKeys(prefix string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("store not opened; call store.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		out = append(out, string(k))
	}
	return out, iter.Error()
}
