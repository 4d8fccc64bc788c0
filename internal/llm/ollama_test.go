package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerateResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "pong", Done: true})
	}))
	defer srv.Close()

	p, err := newOllamaProvider(Options{BaseURL: srv.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("newOllamaProvider failed: %v", err)
	}

	reply, err := p.GenerateResponse(context.Background(), "ping", nil)
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if reply != "pong" {
		t.Errorf("expected pong, got %q", reply)
	}
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, _ := newOllamaProvider(Options{BaseURL: srv.URL})
	if _, err := p.GenerateResponse(context.Background(), "ping", nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestOllamaValidateCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response: `{"safe":false,"confidence":0.8,"risks":["deletes files"],"recommendations":["use --dry-run first"]}`,
			Done:     true,
		})
	}))
	defer srv.Close()

	p, _ := newOllamaProvider(Options{BaseURL: srv.URL})
	v, err := p.ValidateCommand(context.Background(), "rm -rf /data", nil)
	if err != nil {
		t.Fatalf("ValidateCommand failed: %v", err)
	}
	if v.Safe {
		t.Error("expected safe=false")
	}
	if len(v.Risks) != 1 {
		t.Errorf("risks lost: %+v", v)
	}
}
