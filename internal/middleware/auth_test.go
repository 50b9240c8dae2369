package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/service"
)

type stubAuthenticator struct {
	users map[string]*model.User
	err   error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[token]
	if !ok {
		return nil, fmt.Errorf("%w: bad token", service.ErrUnauthorized)
	}
	return user, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProtect(t *testing.T) {
	t.Parallel()

	alice := &model.User{ID: "user-1", Name: "Alice", Credits: 20}

	tests := []struct {
		name        string
		header      string
		authErr     error
		wantStatus  int
		wantMessage string
	}{
		{"bearer token", "Bearer good", nil, http.StatusOK, ""},
		{"lowercase scheme", "bearer good", nil, http.StatusOK, ""},
		{"raw token", "good", nil, http.StatusOK, ""},
		{"missing header", "", nil, http.StatusUnauthorized, msgNoToken},
		{"bearer without token", "Bearer ", nil, http.StatusUnauthorized, msgNoToken},
		{"unknown token", "Bearer forged", nil, http.StatusUnauthorized, msgTokenFailed},
		{"deleted user", "Bearer good", service.ErrUserNotFound, http.StatusUnauthorized, msgUserNotFound},
		{"store failure", "Bearer good", fmt.Errorf("db down"), http.StatusUnauthorized, msgTokenFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			authn := &stubAuthenticator{users: map[string]*model.User{"good": alice}, err: tt.authErr}

			var gotUser *model.User
			handler := Protect(AuthConfig{Logger: discardLogger(), Authenticator: authn})(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					gotUser = auth.UserFromContext(r.Context())
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest(http.MethodGet, "/api/user/data", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				if gotUser == nil || gotUser.ID != alice.ID {
					t.Errorf("user in context = %+v, want %s", gotUser, alice.ID)
				}
				return
			}

			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Error("success = true on auth failure")
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"  Bearer   abc  ", "abc"},
		{"abc.def.ghi", "abc.def.ghi"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		if got := extractToken(req); got != tt.want {
			t.Errorf("extractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
