package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(req.Messages))
		}
		if req.MaxTokens != 2000 {
			t.Errorf("expected default max_tokens 2000, got %d", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "analysis result"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	messages := []Message{
		{Role: "system", Content: "You are an SRE."},
		{Role: "user", Content: "Analyze this incident."},
	}
	got, err := client.Complete(context.Background(), messages, Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "analysis result" {
		t.Errorf("Complete() = %q, want %q", got, "analysis result")
	}
}

func TestCompleteOpenAIAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	if err == nil {
		t.Fatal("expected error from API failure, got nil")
	}
}
