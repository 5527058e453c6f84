package relay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mentorhub/pkg/logger"
)

// DoneSentinel terminates every stream, successful or not.
const DoneSentinel = "[DONE]"

// Fragment is one SSE data payload carrying a piece of the reply.
type Fragment struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SSEWriter emits the relay wire format onto an HTTP response. It sets the
// event-stream headers on first write and flushes after every event so
// fragments reach the browser as they arrive.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewSSEWriter wraps w; it returns an error when w cannot flush, since a
// buffered stream defeats incremental delivery.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	return &SSEWriter{w: w, flusher: f}, nil
}

// Started reports whether any event has been written. Before the first
// event the handler can still fall back to a plain error response.
func (s *SSEWriter) Started() bool { return s.started }

func (s *SSEWriter) begin() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

// WriteFragment sends one content fragment event.
func (s *SSEWriter) WriteFragment(content string) error {
	return s.writeEvent(Fragment{Content: content})
}

// WriteError sends an error event. Used when the upstream breaks after
// fragments have already been delivered.
func (s *SSEWriter) WriteError(msg string) error {
	return s.writeEvent(Fragment{Error: msg})
}

func (s *SSEWriter) writeEvent(f Fragment) error {
	s.begin()
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteDone sends the terminal sentinel.
func (s *SSEWriter) WriteDone() error {
	s.begin()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", DoneSentinel); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Event is one parsed client-side stream event.
type Event struct {
	Content string
	Error   string
	Done    bool
}

// ReadStream parses the relay wire format from r and invokes fn for each
// event until the done sentinel, EOF, or a callback error. Malformed data
// lines are logged and dropped rather than aborting the stream.
func ReadStream(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == DoneSentinel {
			return fn(Event{Done: true})
		}
		var f Fragment
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			logger.Warn("sse_fragment_malformed", "payload", payload)
			continue
		}
		if err := fn(Event{Content: f.Content, Error: f.Error}); err != nil {
			return err
		}
	}
	return sc.Err()
}
