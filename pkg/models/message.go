package models

// Roles allowed on the chat wire. The system role is reserved for the
// injected instruction that opens every conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Conversations are append-only and
// live only for the duration of a session; nothing here is persisted.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether r is one of the three wire roles.
func ValidRole(r string) bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}
