package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/model"
)

type stubVerifier struct {
	ctx *model.AuthContext
	err error
}

func (s stubVerifier) Verify(string) (*model.AuthContext, error) {
	return s.ctx, s.err
}

func TestAuth_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{"missing", auth.ErrMissingToken, "No token provided"},
		{"malformed", auth.ErrMalformedHeader, "Invalid or expired token"},
		{"expired", auth.ErrExpiredToken, "Invalid or expired token"},
		{"invalid", auth.ErrInvalidToken, "Invalid or expired token"},
		{"wrapped", fmt.Errorf("verify: %w", auth.ErrInvalidToken), "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Auth(AuthConfig{Verifier: stubVerifier{err: tt.err}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))

			if called {
				t.Error("protected handler must not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
			if body.Code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestAuth_InjectsCaller(t *testing.T) {
	want := &model.AuthContext{UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}

	var got string
	handler := Auth(AuthConfig{Verifier: stubVerifier{ctx: want}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got != "user-1" {
		t.Errorf("user id = %q, want user-1", got)
	}
}

func TestAuth_WithTokenManager(t *testing.T) {
	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, _, err := tokens.Issue("user-7")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got string
	handler := Auth(AuthConfig{Verifier: tokens})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || got != "user-7" {
		t.Fatalf("status = %d user = %q, want 200 user-7", rec.Code, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("tampered token status = %d, want 401", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"remote addr without port", "192.0.2.1", nil, "192.0.2.1"},
		{"forwarded for first hop", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "198.51.100.7"},
		{"forwarded for wins", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "198.51.100.7"}, "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
