package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.SessionStore = (*SessionStore)(nil)

const sessionColumns = `id, user_id, token, refresh_token, expires_at, created_at, user_agent, ip_address`

// SessionStore keeps login sessions in PostgreSQL when redis is not
// configured. Expired rows stay in the table but are never returned.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

const upsertSession = `
	INSERT INTO sessions (` + sessionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		token = EXCLUDED.token,
		refresh_token = EXCLUDED.refresh_token,
		expires_at = EXCLUDED.expires_at,
		user_agent = EXCLUDED.user_agent,
		ip_address = EXCLUDED.ip_address
`

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, upsertSession,
		session.ID, session.UserID, session.Token, session.RefreshToken,
		session.ExpiresAt, session.CreatedAt, session.UserAgent, session.IPAddress,
	)
	return err
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.lookup(ctx, sessionByID, id)
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	return s.lookup(ctx, sessionByToken, token)
}

func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrNotFound
	}
	return s.lookup(ctx, sessionByRefreshToken, refreshToken)
}

const (
	sessionSelect         = `SELECT ` + sessionColumns + ` FROM sessions WHERE expires_at > NOW() AND `
	sessionByID           = sessionSelect + `id = $1`
	sessionByToken        = sessionSelect + `token = $1`
	sessionByRefreshToken = sessionSelect + `refresh_token = $1`
)

func (s *SessionStore) lookup(ctx context.Context, query, key string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&session.ID, &session.UserID, &session.Token, &session.RefreshToken,
		&session.ExpiresAt, &session.CreatedAt, &session.UserAgent, &session.IPAddress,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// DeleteByUser ends every session of the user when the user is deleted.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
