package driving

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// UserService manages accounts and the brand each account tracks
type UserService interface {
	// Setup creates the first admin; fails with ErrForbidden once any user exists
	Setup(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)

	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)

	Get(ctx context.Context, id string) (*domain.User, error)

	List(ctx context.Context) ([]*domain.User, error)

	Delete(ctx context.Context, id string) error

	// UpdateBrand sets the brand name and domains metrics are computed for
	UpdateBrand(ctx context.Context, id string, req domain.UpdateBrandRequest) (*domain.User, error)
}
