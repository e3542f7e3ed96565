package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// chatHandler answers /api/chat with content and records the decoded request.
func chatHandler(t *testing.T, content string, got *ollamaChatRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": content},
			"prompt_eval_count": 12,
			"eval_count":        5,
		})
	}
}

var question = []Message{{Role: "user", Content: "Which region has the highest renewable share?"}}

func TestOllamaGenerateSuccess(t *testing.T) {
	srv := newIPv4Server(t, chatHandler(t, "Sub-Saharan Africa", nil))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "llama3.1:8b", Messages: question, MaxTokens: 16})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "Sub-Saharan Africa" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.RequestID, "ollama_") {
		t.Fatalf("expected minted request id, got %q", resp.RequestID)
	}
}

func TestOllamaGenerateBadRequest(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid options"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.1:8b", Messages: question})
	var bad *BadRequestError
	if !errors.As(err, &bad) || bad.Message != "invalid options" {
		t.Fatalf("expected bad request error, got %v", err)
	}
}

func TestOllamaRejectsEmptyRequest(t *testing.T) {
	c := NewOllamaClient("", 0, 0, 0, 0)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.1:8b"}); !errors.Is(err, errEmptyMessages) {
		t.Fatalf("Generate: %v", err)
	}
	err := c.GenerateStream(context.Background(), GenerateRequest{Messages: question}, func(string) {})
	if !errors.Is(err, errEmptyModel) {
		t.Fatalf("GenerateStream: %v", err)
	}
}

func TestOllamaKeepsConversationOrder(t *testing.T) {
	var got ollamaChatRequest
	srv := newIPv4Server(t, chatHandler(t, "ok", &got))
	defer srv.Close()

	msgs := []Message{
		{Role: "system", Content: "You analyze sustainability data."},
		{Role: "user", Content: "Summarize Brazil."},
		{Role: "assistant", Content: "Emissions fell."},
		{Role: "user", Content: "And Germany?"},
	}
	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.1:8b", Messages: msgs, Temperature: 0.2}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(got.Messages) != len(msgs) {
		t.Fatalf("expected %d messages, got %d", len(msgs), len(got.Messages))
	}
	for i, m := range msgs {
		if got.Messages[i].Role != m.Role || got.Messages[i].Content != m.Content {
			t.Fatalf("message %d: got %+v want %+v", i, got.Messages[i], m)
		}
	}
	if got.Stream {
		t.Fatalf("Generate must not request streaming")
	}
}

func TestOllamaMissingModelClassified(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'nope' not found, try pulling it first"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "nope", Messages: []Message{{Role: "user", Content: "hi"}}})
	var nf *ModelNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

func TestOllamaStream(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			http.Error(w, "expected stream", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Brazil "},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"leads"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", 2*time.Second, 1, 0, 0)
	var out strings.Builder
	err := c.GenerateStream(context.Background(), GenerateRequest{Model: "llama3.1:8b", Messages: []Message{{Role: "user", Content: "hi"}}}, func(s string) { out.WriteString(s) })
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if out.String() != "Brazil leads" {
		t.Fatalf("stream=%q", out.String())
	}
}
