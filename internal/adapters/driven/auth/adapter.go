package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure Adapter implements AuthAdapter
var _ driven.AuthAdapter = (*Adapter)(nil)

// Issuer is stamped into every token and required on parse
const Issuer = "acme-insight"

// claims is the JWT body. Registered claims carry iat/exp/iss.
type claims struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	SessionID string      `json:"session_id"`
	jwt.RegisteredClaims
}

// Adapter hashes passwords with bcrypt and signs HS256 JWTs
type Adapter struct {
	secret []byte
	cost   int
	parser *jwt.Parser
}

// NewAdapter creates an adapter with the default bcrypt cost
func NewAdapter(jwtSecret string) *Adapter {
	return NewAdapterWithCost(jwtSecret, bcrypt.DefaultCost)
}

// NewAdapterWithCost creates an adapter with a custom bcrypt cost.
// Tests use bcrypt.MinCost.
func NewAdapterWithCost(jwtSecret string, cost int) *Adapter {
	return &Adapter{
		secret: []byte(jwtSecret),
		cost:   cost,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// HashPassword generates a bcrypt hash from a plaintext password
func (a *Adapter) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the bcrypt hash
func (a *Adapter) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken signs the domain claims
func (a *Adapter) GenerateToken(tc *domain.TokenClaims) (string, error) {
	body := claims{
		UserID:    tc.UserID,
		Email:     tc.Email,
		Role:      tc.Role,
		SessionID: tc.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   tc.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Unix(tc.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(tc.ExpiresAt, 0)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString(a.secret)
}

// ParseToken validates a JWT. Expired tokens yield domain.ErrTokenExpired,
// anything else unusable yields domain.ErrTokenInvalid.
func (a *Adapter) ParseToken(tokenString string) (*domain.TokenClaims, error) {
	var body claims
	_, err := a.parser.ParseWithClaims(tokenString, &body, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if body.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", domain.ErrTokenInvalid)
	}

	tc := &domain.TokenClaims{
		UserID:    body.UserID,
		Email:     body.Email,
		Role:      body.Role,
		SessionID: body.SessionID,
		ExpiresAt: body.ExpiresAt.Unix(),
	}
	if body.IssuedAt != nil {
		tc.IssuedAt = body.IssuedAt.Unix()
	}
	return tc, nil
}
