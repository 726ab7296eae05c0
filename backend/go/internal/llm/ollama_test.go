package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"country_facts/backend/go/internal/models"
)

func TestOllama_GenerateContent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"llama3.2","created_at":"2024-01-01T00:00:00Z","response":"1. Volcanoes: Iceland sits on a ridge.","done":true}` + "\n"))
	}))
	defer srv.Close()

	o, err := NewOllama("llama3.2", srv.URL, &http.Client{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewOllama() error = %v", err)
	}
	resp, err := o.GenerateContent(context.Background(), models.NewTextRequest("facts about Iceland", 0.8, 300))
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if resp.Text() != "1. Volcanoes: Iceland sits on a ridge." {
		t.Errorf("unexpected text %q", resp.Text())
	}
	if resp.ModelVersion != "llama3.2" {
		t.Errorf("unexpected model version %q", resp.ModelVersion)
	}
	if got["prompt"] != "facts about Iceland" || got["stream"] != false {
		t.Errorf("unexpected request body %v", got)
	}
	opts, _ := got["options"].(map[string]interface{})
	if opts["num_predict"] != float64(300) {
		t.Errorf("expected num_predict 300, got %v", opts["num_predict"])
	}
}

func TestOllama_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.2' not found"}`))
	}))
	defer srv.Close()

	o, _ := NewOllama("llama3.2", srv.URL, srv.Client())
	if _, err := o.GenerateContent(context.Background(), models.NewTextRequest("x", 0, 0)); err == nil {
		t.Errorf("expected error for missing model")
	}
}

func TestNewOllama_InvalidURL(t *testing.T) {
	if _, err := NewOllama("m", "://bad", nil); err == nil {
		t.Errorf("expected error for invalid base URL")
	}
}
