package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func newTestSession(userID string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:           domain.GenerateID(),
		UserID:       userID,
		Token:        "token-" + domain.GenerateID(),
		RefreshToken: "refresh-" + domain.GenerateID(),
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
		UserAgent:    "test-agent",
		IPAddress:    "127.0.0.1",
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession("user-1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, key := range []string{
		sessionPrefix + session.ID,
		sessionTokenPrefix + session.Token,
		sessionRefreshPrefix + session.RefreshToken,
	} {
		if !mr.Exists(key) {
			t.Errorf("expected key %s", key)
		}
		if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Hour {
			t.Errorf("key %s ttl = %v, want within session lifetime", key, ttl)
		}
	}
	if ok, _ := mr.SIsMember(sessionUserPrefix+"user-1", session.ID); !ok {
		t.Error("session missing from user index")
	}

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != "user-1" || got.Token != session.Token || got.UserAgent != "test-agent" {
		t.Errorf("unexpected session %+v", got)
	}

	byToken, err := store.GetByToken(ctx, session.Token)
	if err != nil || byToken.ID != session.ID {
		t.Errorf("GetByToken = %v, %v", byToken, err)
	}
	byRefresh, err := store.GetByRefreshToken(ctx, session.RefreshToken)
	if err != nil || byRefresh.ID != session.ID {
		t.Errorf("GetByRefreshToken = %v, %v", byRefresh, err)
	}
}

func TestSessionStore_Save_Expired(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession("user-1")
	session.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Get(ctx, session.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expired session should not be stored, got %v", err)
	}
}

func TestSessionStore_NoRefreshToken(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession("user-1")
	session.RefreshToken = ""
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists(sessionRefreshPrefix) {
		t.Error("empty refresh token must not be indexed")
	}
	if _, err := store.GetByRefreshToken(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByToken(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByToken: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByRefreshToken(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByRefreshToken: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of a missing session: %v", err)
	}
}

func TestSessionStore_Get_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)

	_ = mr.Set(sessionPrefix+"broken", "{not json")
	if _, err := store.Get(context.Background(), "broken"); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession("user-1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, key := range []string{
		sessionPrefix + session.ID,
		sessionTokenPrefix + session.Token,
		sessionRefreshPrefix + session.RefreshToken,
	} {
		if mr.Exists(key) {
			t.Errorf("key %s should be deleted", key)
		}
	}
	if ok, _ := mr.SIsMember(sessionUserPrefix+"user-1", session.ID); ok {
		t.Error("session still in user index")
	}
}

func TestSessionStore_DeleteByUser(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	s1 := newTestSession("user-1")
	s2 := newTestSession("user-1")
	other := newTestSession("user-2")
	for _, s := range []*domain.Session{s1, s2, other} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	// One session expires before logout-everywhere
	mr.Del(sessionPrefix + s2.ID)

	if err := store.DeleteByUser(ctx, "user-1"); err != nil {
		t.Fatalf("delete by user: %v", err)
	}

	if _, err := store.Get(ctx, s1.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("s1 should be gone, got %v", err)
	}
	if mr.Exists(sessionUserPrefix + "user-1") {
		t.Error("user index should be removed")
	}
	if _, err := store.Get(ctx, other.ID); err != nil {
		t.Errorf("other user's session must survive: %v", err)
	}
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := newTestSession("user-1")
	session.ExpiresAt = time.Now().Add(2 * time.Second)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(3 * time.Second)

	if _, err := store.GetByToken(ctx, session.Token); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected session to expire, got %v", err)
	}
}
