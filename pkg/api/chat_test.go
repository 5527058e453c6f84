package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mentorhub/pkg/relay"
)

func postChat(t *testing.T, d Deps, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := BuildRouter(d)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const chatBody = `{"messages":[{"role":"user","content":"hello"}]}`

func TestChatStreamRelaysFragments(t *testing.T) {
	d := testDeps(t, scriptStreamer{frags: []string{"Hel", "lo", " world"}})
	rec := postChat(t, d, chatBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event-stream, got %q", ct)
	}
	body := rec.Body.String()

	// concatenating the fragments in order reconstructs the reply
	var got strings.Builder
	if err := relay.ReadStream(strings.NewReader(body), func(ev relay.Event) error {
		if ev.Error != "" {
			t.Fatalf("unexpected error event %q", ev.Error)
		}
		if !ev.Done {
			got.WriteString(ev.Content)
		}
		return nil
	}); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.String() != "Hello world" {
		t.Fatalf("expected reply Hello world, got %q", got.String())
	}
	if strings.Count(body, "[DONE]") != 1 {
		t.Fatalf("expected exactly one sentinel in %q", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Fatalf("stream must end with the sentinel: %q", body)
	}
}

func TestChatStreamUpstreamDownBeforeFirstFragment(t *testing.T) {
	d := testDeps(t, scriptStreamer{err: errors.New("connection refused")})
	rec := postChat(t, d, chatBody)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "upstream unavailable") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestChatStreamMidStreamFailure(t *testing.T) {
	d := testDeps(t, scriptStreamer{frags: []string{"partial "}, err: errors.New("broken pipe")})
	rec := postChat(t, d, chatBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("headers were already sent, expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `{"content":"partial "}`) {
		t.Fatalf("delivered fragments must be kept: %q", body)
	}
	if !strings.Contains(body, `{"error":"stream interrupted"}`) {
		t.Fatalf("expected an error event: %q", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Fatalf("stream must still terminate with the sentinel: %q", body)
	}
}

func TestChatStreamValidation(t *testing.T) {
	d := testDeps(t, nil)
	for name, body := range map[string]string{
		"malformed":    `{"messages":`,
		"empty":        `{"messages":[]}`,
		"invalid role": `{"messages":[{"role":"wizard","content":"hi"}]}`,
	} {
		rec := postChat(t, d, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestChatStreamGated(t *testing.T) {
	d := testDeps(t, scriptStreamer{frags: []string{"never"}})
	d.Provider = blockedProvider{}
	rec := postChat(t, d, chatBody)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/upgrade" {
		t.Fatalf("expected upgrade redirect, got %s", loc)
	}
	if strings.Contains(rec.Body.String(), "never") {
		t.Fatalf("no fragments may leak past the gate")
	}
}
