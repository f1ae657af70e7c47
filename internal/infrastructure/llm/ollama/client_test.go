package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

func TestEmbedReturnsVectorsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Fatalf("model = %s", req.Model)
		}
		out := make([][]float32, len(req.Input))
		for i := range req.Input {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3.1:8b", "nomic-embed-text"))
	vectors, err := embedder.Embed(context.Background(), []string{"vata", "pitta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 0 || vectors[1][0] != 1 {
		t.Fatalf("vectors = %v", vectors)
	}
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	embedder := NewEmbedder(New("http://localhost:0", "g", "e"))

	if _, err := embedder.Embed(context.Background(), nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Embed(nil) error = %v, want ErrInvalidInput", err)
	}
	if _, err := embedder.Embed(context.Background(), []string{"ok", "  "}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Embed(blank) error = %v, want ErrInvalidInput", err)
	}
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1}}})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "g", "e"))
	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected error for vector count mismatch")
	}
}

func TestEmbedServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "g", "e"))
	_, err := embedder.Embed(context.Background(), []string{"a"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("Embed() error = %v, want ErrTemporary", err)
	}
}

func TestGenerateTrimsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatalf("expected stream=false")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  Vata governs movement.  \n"})
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "llama3.1:8b", "e"))
	text, err := generator.Generate(context.Background(), "What does Vata govern?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Vata governs movement." {
		t.Fatalf("Generate() = %q", text)
	}
}

func TestGenerateUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "g", "e"))
	_, err := generator.Generate(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("Generate() error = %v, want ErrUnauthorized", err)
	}
}

func TestGenerateConnectionErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	generator := NewGenerator(New(server.URL, "g", "e"))
	_, err := generator.Generate(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("Generate() error = %v, want ErrTemporary", err)
	}
}
