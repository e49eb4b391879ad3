package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applog "finadvisor/internal/log"
)

func testClient(baseURL, key string) *Client {
	return NewClient(Config{
		APIKey:  key,
		BaseURL: baseURL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, applog.Setup())
}

func TestChatCompletion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk_test" {
			t.Errorf("Authorization = %q", got)
		}

		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %s, want test-model", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Here is some advice."}},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL, "gsk_test")
	got, err := c.ChatCompletion(context.Background(), "you are an advisor", "analyze this", 0.7, 1500)
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if got != "Here is some advice." {
		t.Errorf("content = %q", got)
	}
}

func TestChatCompletion_NotConfigured(t *testing.T) {
	c := testClient("http://localhost:0", "")
	if c.Configured() {
		t.Error("Configured() should be false without a key")
	}
	_, err := c.ChatCompletion(context.Background(), "s", "u", 0.7, 100)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestChatCompletion_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL, "gsk_bad")
	_, err := c.ChatCompletion(context.Background(), "s", "u", 0.7, 100)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestChatCompletion_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := testClient(srv.URL, "gsk_test")
	_, err := c.ChatCompletion(context.Background(), "s", "u", 0.7, 100)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
