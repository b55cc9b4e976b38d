package domain

import "time"

// Session backs one access token and its refresh token. It outlives the
// access token: refreshing replaces the session, logout deletes it.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuthContext is the caller identity attached to a request
type AuthContext struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
}

func (a *AuthContext) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a *AuthContext) CanWrite() bool { return a.Role.CanWrite() }

// CanWrite reports whether the role may upload prompts, manage competitors
// and trigger metric runs.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleAnalyst
}

// LoginRequest is a login attempt. UserAgent and IPAddress are filled from
// the HTTP request, never from the body.
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *UserSummary `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims is the signed JWT payload. The role is a hint only: every
// request reloads the user, so role changes apply without a new login.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
