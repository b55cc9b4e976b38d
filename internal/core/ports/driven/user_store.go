package driven

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// UserStore handles user persistence (PostgreSQL)
type UserStore interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *domain.User) error

	Get(ctx context.Context, id string) (*domain.User, error)

	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves every account, ordered by creation time
	List(ctx context.Context) ([]*domain.User, error)

	// Count is used to detect first-run setup
	Count(ctx context.Context) (int, error)

	Delete(ctx context.Context, id string) error

	UpdateLastLogin(ctx context.Context, id string) error
}
