package models

// Identity is the resolved caller identity for a request. UID is opaque.
type Identity struct {
	UID           string `json:"uid"`
	Authenticated bool   `json:"authenticated"`
	IssuedTS      int64  `json:"issued_ts,omitempty"`
}

// Claims is the per-identity claim set read from the identity store.
// SubscriptionActive is owned by the billing integration; FreeAccess by the
// operator grant endpoint.
type Claims struct {
	SubscriptionActive bool  `json:"subscription_active,omitempty"`
	FreeAccess         bool  `json:"free_access,omitempty"`
	UpdatedTS          int64 `json:"updated_ts,omitempty"`
}

// Entitlement is the gate decision input derived from Claims.
type Entitlement struct {
	Entitled bool   `json:"entitled"`
	Source   string `json:"source,omitempty"` // "subscription" or "free_access"
}
