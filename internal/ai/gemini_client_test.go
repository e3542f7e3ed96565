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

func TestGeminiGenerate(t *testing.T) {
	var got geminiRequest
	var key, path string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, path = r.URL.Query().Get("key"), r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": `{"summary":`}, map[string]any{"text": `"ok"}`}},
			}}},
			"usageMetadata": map[string]any{"promptTokenCount": 12, "candidatesTokenCount": 3, "totalTokenCount": 15},
			"responseId":    "resp-1",
		})
	}))
	defer srv.Close()

	c := NewGeminiClient("g-key", srv.URL, 2*time.Second, 1, 0, 0)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model: "gemini-1.5-flash",
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "summarize"},
		},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if key != "g-key" || path != "/models/gemini-1.5-flash:generateContent" {
		t.Fatalf("key=%q path=%q", key, path)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "be brief" {
		t.Fatalf("system instruction not mapped: %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 3 || got.Contents[1].Role != "model" || got.GenerationConfig.MaxOutputTokens != 64 {
		t.Fatalf("contents=%+v config=%+v", got.Contents, got.GenerationConfig)
	}
	if resp.Text() != `{"summary":"ok"}` || resp.Usage.TotalTokens != 15 || resp.RequestID != "resp-1" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestGeminiQuotaError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
			"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED",
		}})
	}))
	defer srv.Close()

	c := NewGeminiClient("g-key", srv.URL, 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gemini-1.5-flash", Messages: []Message{{Role: "user", Content: "hi"}}})
	var qe *QuotaExceededError
	if !errors.As(err, &qe) || qe.Code != "RESOURCE_EXHAUSTED" {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestGeminiRequiresKeyAndUserTurn(t *testing.T) {
	c := NewGeminiClient("", "", time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	c = NewGeminiClient("k", "", time.Second, 1, 0, 0)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "system", Content: "only system"}}})
	if err == nil || !strings.Contains(err.Error(), "user message") {
		t.Fatalf("expected user message error, got %v", err)
	}
}

func TestGeminiStream(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "sse" || !strings.HasSuffix(r.URL.Path, ":streamGenerateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"carbon \"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"falls\"}]}}]}\n\n")
	}))
	defer srv.Close()

	c := NewGeminiClient("k", srv.URL, 2*time.Second, 1, 0, 0)
	var out string
	err := c.GenerateStream(context.Background(), GenerateRequest{Model: "gemini-1.5-flash", Messages: []Message{{Role: "user", Content: "hi"}}}, func(s string) { out += s })
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if out != "carbon falls" {
		t.Fatalf("stream=%q", out)
	}
}
