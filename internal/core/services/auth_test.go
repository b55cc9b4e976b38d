package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven/mocks"
)

func newTestAuthService() (*mocks.MockUserStore, *mocks.MockSessionStore, *mocks.MockAuthAdapter, *authService) {
	userStore := mocks.NewMockUserStore()
	sessionStore := mocks.NewMockSessionStore()
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(userStore, sessionStore, authAdapter, time.Hour).(*authService)
	return userStore, sessionStore, authAdapter, svc
}

func seedAnalyst(t *testing.T, store *mocks.MockUserStore) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           "user-123",
		Email:        "analyst@acme.test",
		PasswordHash: "plain:password123",
		Name:         "Ana Lyst",
		Role:         domain.RoleAnalyst,
		BrandName:    "AcmeCRM",
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := store.Save(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAuthService_Authenticate(t *testing.T) {
	userStore, sessions, _, svc := newTestAuthService()
	seedAnalyst(t, userStore)

	tests := []struct {
		name    string
		req     domain.LoginRequest
		wantErr error
	}{
		{"valid credentials", domain.LoginRequest{Email: "analyst@acme.test", Password: "password123"}, nil},
		{"email is case-insensitive", domain.LoginRequest{Email: " Analyst@ACME.test ", Password: "password123"}, nil},
		{"empty email", domain.LoginRequest{Password: "password123"}, domain.ErrInvalidInput},
		{"empty password", domain.LoginRequest{Email: "analyst@acme.test"}, domain.ErrInvalidInput},
		{"wrong password", domain.LoginRequest{Email: "analyst@acme.test", Password: "nope"}, domain.ErrInvalidCredentials},
		{"unknown user", domain.LoginRequest{Email: "who@acme.test", Password: "password123"}, domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Authenticate(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Token == "" || resp.RefreshToken == "" {
				t.Error("expected token and refresh token")
			}
			if resp.User.BrandName != "AcmeCRM" {
				t.Errorf("expected brand in summary, got %q", resp.User.BrandName)
			}
		})
	}

	if sessions.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", sessions.Len())
	}
}

func TestAuthService_Authenticate_InactiveUser(t *testing.T) {
	userStore, _, _, svc := newTestAuthService()
	user := seedAnalyst(t, userStore)
	user.Active = false

	_, err := svc.Authenticate(context.Background(), domain.LoginRequest{Email: user.Email, Password: "password123"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	userStore, _, authAdapter, svc := newTestAuthService()
	user := seedAnalyst(t, userStore)
	ctx := context.Background()

	resp, err := svc.Authenticate(ctx, domain.LoginRequest{Email: user.Email, Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	authCtx, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if authCtx.UserID != user.ID || authCtx.Role != domain.RoleAnalyst || !authCtx.CanWrite() {
		t.Errorf("unexpected auth context %+v", authCtx)
	}

	if _, err := svc.ValidateToken(ctx, ""); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for empty token, got %v", err)
	}
	if _, err := svc.ValidateToken(ctx, "%%%"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for garbage, got %v", err)
	}

	expired, _ := authAdapter.GenerateToken(&domain.TokenClaims{
		UserID: user.ID, SessionID: "s", ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	if _, err := svc.ValidateToken(ctx, expired); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	orphan, _ := authAdapter.GenerateToken(&domain.TokenClaims{
		UserID: user.ID, SessionID: "gone", ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if _, err := svc.ValidateToken(ctx, orphan); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	// Role downgrade is visible on the next request
	user.Role = domain.RoleViewer
	authCtx, err = svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("validate after role change: %v", err)
	}
	if authCtx.CanWrite() {
		t.Error("viewer must not be able to write")
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	userStore, sessions, _, svc := newTestAuthService()
	user := seedAnalyst(t, userStore)
	ctx := context.Background()

	first, _ := svc.Authenticate(ctx, domain.LoginRequest{Email: user.Email, Password: "password123"})

	second, err := svc.RefreshToken(ctx, domain.RefreshRequest{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("expected a rotated refresh token")
	}
	if sessions.Len() != 1 {
		t.Errorf("expected old session to be replaced, got %d sessions", sessions.Len())
	}

	// A spent refresh token cannot be reused
	if _, err := svc.RefreshToken(ctx, domain.RefreshRequest{RefreshToken: first.RefreshToken}); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.RefreshToken(ctx, domain.RefreshRequest{}); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for empty token, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	userStore, sessions, _, svc := newTestAuthService()
	user := seedAnalyst(t, userStore)
	ctx := context.Background()

	resp, _ := svc.Authenticate(ctx, domain.LoginRequest{Email: user.Email, Password: "password123"})
	if err := svc.Logout(ctx, resp.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.Len() != 0 {
		t.Errorf("expected session to be removed, got %d", sessions.Len())
	}
	if _, err := svc.ValidateToken(ctx, resp.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after logout, got %v", err)
	}

	if err := svc.Logout(ctx, ""); err != nil {
		t.Errorf("empty token logout should be a no-op: %v", err)
	}
	if err := svc.Logout(ctx, "garbage!"); err != nil {
		t.Errorf("invalid token logout should be a no-op: %v", err)
	}
}

func TestAuthService_DeactivatedUserLosesAccess(t *testing.T) {
	userStore, _, _, svc := newTestAuthService()
	user := seedAnalyst(t, userStore)
	ctx := context.Background()

	resp, err := svc.Authenticate(ctx, domain.LoginRequest{Email: "  " + user.Email + " ", Password: "password123"})
	if err != nil {
		t.Fatalf("login with padded email: %v", err)
	}

	user.Active = false
	if _, err := svc.ValidateToken(ctx, resp.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for token, got %v", err)
	}
	if _, err := svc.RefreshToken(ctx, domain.RefreshRequest{RefreshToken: resp.RefreshToken}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for refresh, got %v", err)
	}
}

func TestAuthService_SessionRecordsClient(t *testing.T) {
	userStore, sessions, authAdapter, svc := newTestAuthService()
	user := seedAnalyst(t, userStore)
	ctx := context.Background()

	resp, err := svc.Authenticate(ctx, domain.LoginRequest{
		Email:     user.Email,
		Password:  "password123",
		UserAgent: "dashboard/1.0",
		IPAddress: "10.0.0.7",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, _ := authAdapter.ParseToken(resp.Token)
	session, err := sessions.Get(ctx, claims.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.UserAgent != "dashboard/1.0" || session.IPAddress != "10.0.0.7" {
		t.Errorf("unexpected client details %q %q", session.UserAgent, session.IPAddress)
	}

	refreshed, err := svc.RefreshToken(ctx, domain.RefreshRequest{RefreshToken: resp.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, _ = authAdapter.ParseToken(refreshed.Token)
	session, _ = sessions.Get(ctx, claims.SessionID)
	if session.IPAddress != "10.0.0.7" {
		t.Error("expected client details to survive a refresh")
	}
}
