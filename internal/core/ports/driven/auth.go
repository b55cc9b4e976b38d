package driven

import "github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"

// AuthAdapter performs password hashing and token signing.
// Session storage lives in SessionStore.
type AuthAdapter interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool

	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
