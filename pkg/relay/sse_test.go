package relay

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSSEWriterFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	if err != nil {
		t.Fatalf("failed to wrap recorder: %v", err)
	}
	if err := w.WriteFragment("Hel"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.WriteFragment("lo"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.WriteDone(); err != nil {
		t.Fatalf("done failed: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}
	body := rec.Body.String()
	want := "data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n\ndata: [DONE]\n\n"
	if body != want {
		t.Fatalf("wire format mismatch:\n got %q\nwant %q", body, want)
	}
	if strings.Count(body, "[DONE]") != 1 {
		t.Fatalf("expected exactly one sentinel")
	}
}

func TestSSEWriterErrorEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	if err != nil {
		t.Fatalf("failed to wrap recorder: %v", err)
	}
	if err := w.WriteError("stream interrupted"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := rec.Body.String(); got != "data: {\"error\":\"stream interrupted\"}\n\n" {
		t.Fatalf("unexpected error event %q", got)
	}
}

func TestReadStreamConcatenates(t *testing.T) {
	stream := "data: {\"content\":\"Hel\"}\n\n" +
		"data: {\"content\":\"lo\"}\n\n" +
		"data: [DONE]\n\n"
	var out strings.Builder
	done := false
	err := ReadStream(strings.NewReader(stream), func(ev Event) error {
		if ev.Done {
			done = true
			return nil
		}
		out.WriteString(ev.Content)
		return nil
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !done {
		t.Fatalf("sentinel not observed")
	}
	if out.String() != "Hello" {
		t.Fatalf("fragments should concatenate to the full reply, got %q", out.String())
	}
}

func TestReadStreamDropsMalformed(t *testing.T) {
	stream := "data: {\"content\":\"ok\"}\n\n" +
		"data: not json at all\n\n" +
		": a comment line\n\n" +
		"data: {\"content\":\" fine\"}\n\n" +
		"data: [DONE]\n\n"
	var out strings.Builder
	err := ReadStream(strings.NewReader(stream), func(ev Event) error {
		if !ev.Done {
			out.WriteString(ev.Content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out.String() != "ok fine" {
		t.Fatalf("malformed fragments should be dropped, got %q", out.String())
	}
}

func TestReadStreamSurfacesErrorEvent(t *testing.T) {
	stream := "data: {\"content\":\"partial\"}\n\n" +
		"data: {\"error\":\"stream interrupted\"}\n\n" +
		"data: [DONE]\n\n"
	var got string
	var errMsg string
	err := ReadStream(strings.NewReader(stream), func(ev Event) error {
		if ev.Error != "" {
			errMsg = ev.Error
			return nil
		}
		if !ev.Done {
			got = ev.Content
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "partial" || errMsg != "stream interrupted" {
		t.Fatalf("got content %q error %q", got, errMsg)
	}
}
