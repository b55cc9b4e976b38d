package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

var _ driving.AuthService = (*authService)(nil)

type authService struct {
	userStore    driven.UserStore
	sessionStore driven.SessionStore
	authAdapter  driven.AuthAdapter
	tokenTTL     time.Duration
	refreshTTL   time.Duration
}

// NewAuthService creates a new AuthService. Access tokens live for tokenTTL
// (default 24h); the session, and with it the refresh token, for 7 days.
func NewAuthService(
	userStore driven.UserStore,
	sessionStore driven.SessionStore,
	authAdapter driven.AuthAdapter,
	tokenTTL time.Duration,
) driving.AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		userStore:    userStore,
		sessionStore: sessionStore,
		authAdapter:  authAdapter,
		tokenTTL:     tokenTTL,
		refreshTTL:   7 * 24 * time.Hour,
	}
}

// Authenticate checks credentials and opens a session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !s.authAdapter.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrUnauthorized
	}

	resp, err := s.openSession(ctx, user, req.UserAgent, req.IPAddress)
	if err != nil {
		return nil, err
	}
	_ = s.userStore.UpdateLastLogin(ctx, user.ID)
	return resp, nil
}

// openSession signs an access token and stores the session that backs it
// and its refresh token.
func (s *authService) openSession(ctx context.Context, user *domain.User, userAgent, ip string) (*domain.LoginResponse, error) {
	now := time.Now()
	sessionID := domain.GenerateID()

	token, err := s.authAdapter.GenerateToken(&domain.TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenTTL).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	session := &domain.Session{
		ID:           sessionID,
		UserID:       user.ID,
		Token:        token,
		RefreshToken: generateRefreshToken(),
		ExpiresAt:    now.Add(s.refreshTTL),
		CreatedAt:    now,
		UserAgent:    userAgent,
		IPAddress:    ip,
	}
	if err := s.sessionStore.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &domain.LoginResponse{
		Token:        token,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    now.Add(s.tokenTTL),
		User:         user.ToSummary(),
	}, nil
}

// activeUser reloads the session owner so role changes and deactivation take
// effect without a new login.
func (s *authService) activeUser(ctx context.Context, session *domain.Session) (*domain.User, error) {
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}
	user, err := s.userStore.Get(ctx, session.UserID)
	if err != nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// ValidateToken resolves a bearer token to the caller's identity.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	session, err := s.sessionStore.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	user, err := s.activeUser(ctx, session)
	if err != nil {
		return nil, err
	}

	return &domain.AuthContext{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		SessionID: session.ID,
	}, nil
}

// RefreshToken swaps a refresh token for a new session. The old session and
// its refresh token are spent.
func (s *authService) RefreshToken(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error) {
	if req.RefreshToken == "" {
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessionStore.GetByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	user, err := s.activeUser(ctx, session)
	if err != nil {
		return nil, err
	}

	_ = s.sessionStore.Delete(ctx, session.ID)
	return s.openSession(ctx, user, session.UserAgent, session.IPAddress)
}

// Logout ends the session behind token. Unparseable tokens are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil
	}
	return s.sessionStore.Delete(ctx, claims.SessionID)
}

func generateRefreshToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
