package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIGenerator_StreamsDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", tok)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator("test-key", srv.URL, "gpt-4")
	var out strings.Builder
	err := gen.Generate(context.Background(), "system", []Message{{Role: RoleUser, Content: "hi"}}, func(tok string) error {
		out.WriteString(tok)
		return nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.String() != "Hello" {
		t.Fatalf("streamed %q", out.String())
	}
}

func TestOpenAIGenerator_UpstreamErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator("test-key", srv.URL, "gpt-4")
	err := gen.Generate(context.Background(), "system", nil, func(string) error { return nil })
	if !errors.Is(err, ErrGenerate) {
		t.Fatalf("expected ErrGenerate, got %v", err)
	}
}
