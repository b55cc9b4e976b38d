package domain

import "time"

// Role defines user permission level
type Role string

const (
	RoleAdmin   Role = "admin"   // Manage users, competitors, run processing
	RoleAnalyst Role = "analyst" // Upload prompts, trigger metric runs
	RoleViewer  Role = "viewer"  // Read dashboards only
)

// User is a dashboard account. Every prompt, metric and competitor is owned by a user.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	BrandName    string     `json:"brand_name"`
	BrandDomains []string   `json:"brand_domains"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// UserSummary provides a safe view of user data (no password hash)
type UserSummary struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	BrandName    string     `json:"brand_name"`
	BrandDomains []string   `json:"brand_domains"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// ToSummary converts a User to UserSummary
func (u *User) ToSummary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		BrandName:    u.BrandName,
		BrandDomains: u.BrandDomains,
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
	}
}

// IsAdmin checks if the user has admin privileges
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageUsers checks if the user can create/delete other users
func (u *User) CanManageUsers() bool {
	return u.Role == RoleAdmin
}

// CanWrite checks if the user can upload prompts, edit competitors and trigger runs
func (u *User) CanWrite() bool {
	return u.Active && u.Role.CanWrite()
}

// CanView checks if the user can read dashboards
func (u *User) CanView() bool {
	return u.Active && (u.Role == RoleAdmin || u.Role == RoleAnalyst || u.Role == RoleViewer)
}

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// CreateUserRequest represents an admin creating a new account
type CreateUserRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	BrandName    string   `json:"brand_name"`
	BrandDomains []string `json:"brand_domains"`
}

// UpdateBrandRequest sets the brand tracked by the current user
type UpdateBrandRequest struct {
	BrandName    string   `json:"brand_name"`
	BrandDomains []string `json:"brand_domains"`
}
