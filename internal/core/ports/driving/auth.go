package driving

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// AuthService handles dashboard login sessions
type AuthService interface {
	// Authenticate validates credentials and opens a session
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken resolves a bearer token to the caller's auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// RefreshToken rotates a session using its refresh token
	RefreshToken(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error)

	Logout(ctx context.Context, token string) error
}
