package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result := extractBearerToken(req)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	if GetAuthContext(context.Background()) != nil {
		t.Error("expected nil for context without auth")
	}

	authCtx := &domain.AuthContext{UserID: "user-1", Role: domain.RoleAnalyst}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)
	if got := GetAuthContext(ctx); got != authCtx {
		t.Errorf("expected stored auth context, got %v", got)
	}

	ctx = context.WithValue(context.Background(), authContextKey, "not an auth context")
	if GetAuthContext(ctx) != nil {
		t.Error("expected nil for wrong value type")
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	auth := &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			switch token {
			case "good":
				return &domain.AuthContext{UserID: "user-1", Role: domain.RoleViewer}, nil
			case "expired":
				return nil, domain.ErrTokenExpired
			case "revoked":
				return nil, domain.ErrSessionNotFound
			default:
				return nil, domain.ErrTokenInvalid
			}
		},
	}
	m := NewAuthMiddleware(auth)

	var seen *domain.AuthContext
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"missing token", "", http.StatusUnauthorized, "missing authorization token"},
		{"expired token", "Bearer expired", http.StatusUnauthorized, "token expired"},
		{"revoked session", "Bearer revoked", http.StatusUnauthorized, "session not found"},
		{"invalid token", "Bearer forged", http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %q, got %s", tt.wantBody, rec.Body.String())
			}
		})
	}

	if seen == nil || seen.UserID != "user-1" {
		t.Errorf("expected auth context to reach the handler, got %v", seen)
	}
}

func TestAuthMiddleware_RoleChecks(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{})

	tests := []struct {
		role       domain.Role
		wantAdmin  int
		wantWriter int
	}{
		{domain.RoleAdmin, http.StatusOK, http.StatusOK},
		{domain.RoleAnalyst, http.StatusForbidden, http.StatusOK},
		{domain.RoleViewer, http.StatusForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := context.WithValue(context.Background(), authContextKey, &domain.AuthContext{UserID: "u", Role: tt.role})

			rec := httptest.NewRecorder()
			m.RequireAdmin(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
			if rec.Code != tt.wantAdmin {
				t.Errorf("RequireAdmin: expected %d, got %d", tt.wantAdmin, rec.Code)
			}

			rec = httptest.NewRecorder()
			m.RequireWriter(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
			if rec.Code != tt.wantWriter {
				t.Errorf("RequireWriter: expected %d, got %d", tt.wantWriter, rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_RequireWithoutContext(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{})
	rec := httptest.NewRecorder()

	m.RequireAdmin(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/competitors", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	recorder := &mockRecorder{}
	handler := NewLoggingMiddleware(testLogger(), mux, recorder).Handler(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/competitors", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(recorder.requests) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recorder.requests))
	}
	got := recorder.requests[0]
	if got.method != http.MethodPost || got.route != "POST /api/v1/competitors" || got.status != http.StatusCreated {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestLoggingMiddleware_NilRecorder(t *testing.T) {
	handler := NewLoggingMiddleware(testLogger(), nil, nil).Handler(okHandler())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := NewRecoveryMiddleware(testLogger()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("nil map write"))
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "nil map") {
		t.Error("panic details must not leak")
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.acme.com"}).Handler(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed origin", http.MethodGet, "https://app.acme.com", http.StatusOK, "https://app.acme.com"},
		{"disallowed origin", http.MethodGet, "https://evil.example", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://app.acme.com", http.StatusNoContent, "https://app.acme.com"},
		{"no origin", http.MethodGet, "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/metrics", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected allow-origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	handler := NewCORSMiddleware([]string{"*"}).Handler(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected origin echoed, got %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Error("expected Vary: Origin")
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	handler := NewLoggingMiddleware(testLogger(), nil, nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("expected a generated request id echoed in the response, got %q and %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "upstream-42" {
		t.Errorf("expected caller-supplied id to be kept, got %q", seen)
	}
}
