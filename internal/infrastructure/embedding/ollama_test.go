package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
)

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/embeddings":
			var req ollamaEmbedReq
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			if req.Model != "mini" || req.Prompt != "red sock" {
				t.Errorf("request = %+v", req)
			}
			_ = json.NewEncoder(w).Encode(ollamaEmbedRes{Embedding: []float64{0.1, 0.2}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	load := OllamaLoader(&cfg.OllamaCfg{BaseURL: srv.URL + "/", Model: "mini", Timeout: time.Second})
	m, err := load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer m.Close()

	vec, err := m.Embed(context.Background(), "red sock")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[1] != 0.2 {
		t.Fatalf("vec = %v", vec)
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	m := NewOllamaModel(&cfg.OllamaCfg{BaseURL: srv.URL, Model: "x", Timeout: time.Second})
	if _, err := m.Embed(context.Background(), "a"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := OllamaLoader(&cfg.OllamaCfg{BaseURL: srv.URL, Timeout: time.Second})(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
}
