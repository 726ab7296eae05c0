package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"country_facts/backend/go/internal/models"
)

func TestOpenAI_GenerateContent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "local-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "1. Carnival: Brazil hosts the largest."}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	o := NewOpenAI("local-model", "lm-studio", srv.URL+"/v1", srv.Client())
	resp, err := o.GenerateContent(context.Background(), models.NewTextRequest("facts about Brazil", 0.8, 300))
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if resp.Text() != "1. Carnival: Brazil hosts the largest." {
		t.Errorf("unexpected text %q", resp.Text())
	}
	if resp.ResponseID != "chatcmpl-1" {
		t.Errorf("unexpected response id %q", resp.ResponseID)
	}
	if got["model"] != "local-model" || got["max_tokens"] != float64(300) {
		t.Errorf("unexpected request body %v", got)
	}
	msgs, _ := got["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", got["messages"])
	}
	if m := msgs[0].(map[string]interface{}); m["role"] != "user" || m["content"] != "facts about Brazil" {
		t.Errorf("unexpected message %v", m)
	}
}

func TestOpenAI_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	o := NewOpenAI("gpt-4o-mini", "bad", srv.URL+"/v1", srv.Client())
	if _, err := o.GenerateContent(context.Background(), models.NewTextRequest("x", 0, 0)); err == nil {
		t.Errorf("expected error for 401")
	}
}
