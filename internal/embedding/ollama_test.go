package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newMockOllamaServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var count int
		switch v := req.Input.(type) {
		case string:
			count = 1
		case []any:
			count = len(v)
		default:
			http.Error(w, "unexpected input type", http.StatusBadRequest)
			return
		}
		embeddings := make([][]float32, count)
		for i := range embeddings {
			vec := make([]float32, dims)
			for j := range vec {
				vec[j] = float32(j) * 0.001
			}
			embeddings[i] = vec
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: embeddings})
	}))
}

func TestOllamaProviderDimensions(t *testing.T) {
	p := NewOllamaProvider("http://unused", "test-model", 1024)
	if p.Dimensions() != 1024 {
		t.Errorf("expected 1024, got %d", p.Dimensions())
	}
}

func TestOllamaProviderEmbedSingle(t *testing.T) {
	server := newMockOllamaServer(t, 1024)
	defer server.Close()

	p := NewOllamaProvider(server.URL, "test-model", 1024)
	vec, err := p.Embed("test text")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 1024 {
		t.Fatalf("expected 1024-dim vector, got %d", len(vec))
	}
	if vec[100] != 0.1 {
		t.Errorf("expected vec[100] == 0.1, got %f", vec[100])
	}
}

func TestOllamaProviderEmbedBatch(t *testing.T) {
	server := newMockOllamaServer(t, 8)
	defer server.Close()

	p := NewOllamaProvider(server.URL, "test-model", 8)
	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	for _, v := range vecs {
		if len(v) != 8 {
			t.Errorf("expected 8-dim vector, got %d", len(v))
		}
	}
}

func TestOllamaProviderEmbedBatchEmpty(t *testing.T) {
	p := NewOllamaProvider("http://unused", "test-model", 8)
	vecs, err := p.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if vecs != nil {
		t.Errorf("expected nil result for empty input, got %v", vecs)
	}
}

func TestOllamaProviderEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "test-model", 8)
	if _, err := p.Embed("x"); err == nil {
		t.Fatal("expected error from failing server")
	}
}
