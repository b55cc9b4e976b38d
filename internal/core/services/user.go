package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// Ensure userService implements UserService
var _ driving.UserService = (*userService)(nil)

const minPasswordLength = 8

type userService struct {
	userStore    driven.UserStore
	sessionStore driven.SessionStore
	authAdapter  driven.AuthAdapter
	cache        driven.DashboardCache
	logger       *slog.Logger
}

// NewUserService creates a new UserService. The optional cache is dropped when
// a user's brand changes.
func NewUserService(
	userStore driven.UserStore,
	sessionStore driven.SessionStore,
	authAdapter driven.AuthAdapter,
	cache driven.DashboardCache,
	logger *slog.Logger,
) driving.UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		userStore:    userStore,
		sessionStore: sessionStore,
		authAdapter:  authAdapter,
		cache:        cache,
		logger:       logger,
	}
}

// Setup creates the initial admin user (only works if no users exist)
func (s *userService) Setup(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	n, err := s.userStore.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, domain.ErrForbidden
	}
	req.Role = domain.RoleAdmin
	return s.Create(ctx, req)
}

// Create creates a new user (admin only)
func (s *userService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, _ := s.userStore.GetByEmail(ctx, email); existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	passwordHash, err := s.authAdapter.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           domain.GenerateID(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		BrandName:    strings.TrimSpace(req.BrandName),
		BrandDomains: normalizeDomains(req.BrandDomains),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userStore.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.userStore.Get(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.userStore.List(ctx)
}

// Delete removes a user and signs them out everywhere
func (s *userService) Delete(ctx context.Context, id string) error {
	user, err := s.userStore.Get(ctx, id)
	if err != nil {
		return err
	}
	_ = s.sessionStore.DeleteByUser(ctx, user.ID)
	return s.userStore.Delete(ctx, id)
}

// UpdateBrand changes the tracked brand. Stored metrics keep the brand they
// were computed for; the next run uses the new one.
func (s *userService) UpdateBrand(ctx context.Context, id string, req domain.UpdateBrandRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.BrandName)
	if name == "" {
		return nil, fmt.Errorf("%w: brand name is required", domain.ErrInvalidInput)
	}

	user, err := s.userStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.BrandName = name
	user.BrandDomains = normalizeDomains(req.BrandDomains)
	user.UpdatedAt = time.Now()

	if err := s.userStore.Save(ctx, user); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", "owner_id", id, "error", err)
		}
	}
	return user, nil
}

func validateCreateRequest(req domain.CreateUserRequest) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !domain.ValidRole(req.Role) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, req.Role)
	}
	return nil
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	seen := make(map[string]bool, len(domains))
	for _, d := range domains {
		d = domain.NormalizeDomain(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
