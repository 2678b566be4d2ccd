package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spigell/jobai/internal/ai"
)

func TestClientGenerate(t *testing.T) {
	t.Parallel()

	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" ---SUBJECT---\nHi "}}]}`))
	}))
	defer server.Close()

	client, err := New("key", server.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := client.Generate(context.Background(), "llama-3.3-70b-versatile", ai.GenerateRequest{Prompt: "write", Temperature: 0.6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "---SUBJECT---\nHi" {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "llama-3.3-70b-versatile" || len(got.Messages) != 1 || got.Messages[0].Content != "write" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestClientGenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		expectStatus int
		notFound     bool
	}{
		{
			name:         "model not found",
			status:       http.StatusNotFound,
			body:         `{"error":{"message":"The model does not exist","type":"invalid_request_error","code":"model_not_found"}}`,
			expectStatus: http.StatusNotFound,
			notFound:     true,
		},
		{
			name:         "rate limited",
			status:       http.StatusTooManyRequests,
			body:         `{"error":{"message":"Rate limit reached","type":"tokens"}}`,
			expectStatus: http.StatusTooManyRequests,
		},
		{
			name:         "no choices",
			status:       http.StatusOK,
			body:         `{"choices":[]}`,
			expectStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := New("key", server.URL, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = client.Generate(context.Background(), "m", ai.GenerateRequest{Prompt: "p"})

			var perr *ai.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.StatusCode != tt.expectStatus {
				t.Fatalf("expected status %d, got %d", tt.expectStatus, perr.StatusCode)
			}
			if ai.IsModelNotFound(err) != tt.notFound {
				t.Fatalf("unexpected not-found classification for %v", err)
			}
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := New("  ", "", nil); err == nil {
		t.Fatal("expected error for empty key")
	}
}
