package driven

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// SessionStore handles session persistence (Redis).
// Sessions expire with their ExpiresAt.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error

	Get(ctx context.Context, id string) (*domain.Session, error)

	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)

	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every session of a user
	DeleteByUser(ctx context.Context, userID string) error
}
