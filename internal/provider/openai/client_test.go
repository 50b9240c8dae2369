package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/intellichat/intellichat/internal/provider"
)

func TestGenerateText_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gemini-test" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "key-1", "gemini-test", srv.Client())
	got, err := c.GenerateText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if got != "hi there" {
		t.Errorf("GenerateText() = %q, want %q", got, "hi there")
	}
}

func TestGenerateText_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non-2xx",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"quota"}}`,
			check: func(t *testing.T, err error) {
				var se *provider.StatusError
				if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
					t.Errorf("error = %v, want StatusError 429", err)
				}
			},
		},
		{
			name:   "empty choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyCompletion) {
					t.Errorf("error = %v, want ErrEmptyCompletion", err)
				}
			},
		},
		{
			name:   "error in body",
			status: http.StatusOK,
			body:   `{"error":{"message":"blocked"}}`,
			check: func(t *testing.T, err error) {
				if err == nil || err.Error() != "openai: blocked" {
					t.Errorf("error = %v", err)
				}
			},
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("expected decode error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "k", "m", srv.Client()).GenerateText(context.Background(), "p")
			tt.check(t, err)
		})
	}
}

func TestGenerateText_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := New("", "", "m", nil).GenerateText(context.Background(), "p")
	if !errors.Is(err, provider.ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestGenerateText_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := New(srv.URL, "k", "m", srv.Client()).GenerateText(ctx, "p"); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	c := New("", "k", "m", nil)
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.HTTP == nil {
		t.Error("HTTP client should default")
	}
}
