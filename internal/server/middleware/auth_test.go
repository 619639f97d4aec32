package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
	"github.com/sproutapp/sprout/internal/store"
)

func newTestAuth(t *testing.T) (*service.AuthService, *store.Store) {
	t.Helper()
	st, err := store.Open("") // in-memory
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewAuthService(st, logger), st
}

func authedHandler(t *testing.T, gotUser *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := service.IdentityFromContext(r.Context()); user != nil {
			*gotUser = user.ID
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateValidToken(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	raw, _, err := auth.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotUser string
	handler := Authenticate(auth, nil)(authedHandler(t, &gotUser))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if gotUser != u.ID {
		t.Errorf("got identity %q, want %q", gotUser, u.ID)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	auth, _ := newTestAuth(t)

	var gotUser string
	handler := Authenticate(auth, nil)(authedHandler(t, &gotUser))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc"},
		{"unknown token", "Bearer sprout_0000000000000000000000000000000000000000000000000000000000000000"},
		{"garbage token", "Bearer nonsense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("got status %d, want 401", rec.Code)
			}
			if gotUser != "" {
				t.Errorf("handler ran with identity %q", gotUser)
			}

			var resp model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error.Code != http.StatusUnauthorized || resp.Error.Message == "" {
				t.Errorf("error body = %+v, want code 401 with a message", resp.Error)
			}
		})
	}
}

func TestAuthenticateExemptPath(t *testing.T) {
	auth, _ := newTestAuth(t)

	var gotUser string
	handler := Authenticate(auth, []string{"/health"})(authedHandler(t, &gotUser))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("got status %d, want 200 for exempt path", rec.Code)
	}

	// Exemption is exact-path: a sub-path still needs credentials.
	req = httptest.NewRequest(http.MethodGet, "/health/x", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401 for non-exempt sub-path", rec.Code)
	}
}
