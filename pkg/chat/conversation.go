// Package chat holds the client-side conversation state machine used by the
// terminal client and exercised by the stream handler tests.
package chat

import (
	"errors"
	"strings"
	"sync"

	"mentorhub/pkg/models"
)

// State is the composer lifecycle for one exchange.
type State string

const (
	StateIdle      State = "idle"
	StateSending   State = "sending"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrBusy is returned by Submit while a previous exchange is in flight.
var ErrBusy = errors.New("conversation busy")

// Conversation accumulates the message transcript for one chat session.
// The system instruction is pinned as the first message and never shown.
type Conversation struct {
	mu       sync.Mutex
	messages []models.Message
	state    State
	pending  int // index of the assistant message being streamed, -1 when none
}

// NewConversation starts a conversation carrying the given system
// instruction. An empty instruction is allowed and simply omitted.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{state: StateIdle, pending: -1}
	if systemPrompt != "" {
		c.messages = append(c.messages, models.Message{Role: models.RoleSystem, Content: systemPrompt})
	}
	return c
}

// State returns the current lifecycle state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visible returns the transcript without the system instruction.
func (c *Conversation) Visible() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Message
	for _, m := range c.messages {
		if m.Role == models.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// History returns the full transcript, system instruction included, for
// sending upstream.
func (c *Conversation) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Submit appends the user's text and moves to sending. Whitespace-only
// input is a no-op returning false; a second submit while an exchange is
// in flight returns ErrBusy.
func (c *Conversation) Submit(text string) (bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSending || c.state == StateStreaming {
		return false, ErrBusy
	}
	c.messages = append(c.messages, models.Message{Role: models.RoleUser, Content: trimmed})
	c.state = StateSending
	return true, nil
}

// Feed appends a reply fragment. The first fragment of an exchange creates
// the pending assistant message and moves to streaming.
func (c *Conversation) Feed(fragment string) {
	if fragment == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending < 0 {
		c.messages = append(c.messages, models.Message{Role: models.RoleAssistant})
		c.pending = len(c.messages) - 1
		c.state = StateStreaming
	}
	c.messages[c.pending].Content += fragment
}

// Complete finalizes the pending assistant message and returns to a state
// from which Submit is accepted again.
func (c *Conversation) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = -1
	c.state = StateCompleted
}

// Fail records an aborted exchange. Fragments already fed stay in the
// transcript; the pending message is finalized as-is.
func (c *Conversation) Fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = -1
	c.state = StateFailed
}
