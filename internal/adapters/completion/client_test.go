package completion_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotel_enricher/internal/adapters/completion"
)

func chatReply(w http.ResponseWriter, content string) {
	w.WriteHeader(200)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
}

func TestChatClient_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header: %q", got)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role, Content string
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Model != "sonar" || len(req.Messages) != 2 || req.Messages[1].Content != "hello" {
				t.Errorf("unexpected body: %+v", req)
			}
			chatReply(w, `{"email":"a@b.com"}`)
		}
	}))
	defer ts.Close()

	cl, err := completion.NewChatClient(ts.URL+"/", "test-key", "sonar", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.Complete(ctx, "system", "hello")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != `{"email":"a@b.com"}` {
		t.Fatalf("unexpected content: %q", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestChatClient_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := completion.NewChatClient(ts.URL, "bad", "sonar", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.Complete(ctx, "s", "u")
	if !errors.Is(err, completion.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestChatClient_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	cl, _ := completion.NewChatClient(ts.URL, "k", "sonar", 100)
	_, err := cl.Complete(context.Background(), "s", "u")
	if !errors.Is(err, completion.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestChatClient_RequiresKey(t *testing.T) {
	if _, err := completion.NewChatClient("http://x", "", "sonar", 1); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestChatClient_DefaultModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		chatReply(w, req.Model)
	}))
	defer ts.Close()

	cl, err := completion.NewChatClient(ts.URL, "k", "", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := cl.Complete(context.Background(), "s", "u")
	if err != nil || got != completion.DefaultChatModel {
		t.Fatalf("expected default model echoed, got %q (%v)", got, err)
	}
}
