package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionStore remembers revoked session ids until their tokens would have
// expired anyway.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// ============================================================================
// IN-MEMORY STORE
// ============================================================================

type MemorySessionStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemorySessionStore) Revoke(_ context.Context, sessionID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[sessionID] = until
	return nil
}

func (m *MemorySessionStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.revoked, sessionID)
		return false, nil
	}
	return true, nil
}

// ============================================================================
// REDIS STORE
// ============================================================================

const revokedKeyPrefix = "session:revoked:"

type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (r *RedisSessionStore) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, revokedKeyPrefix+sessionID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

// NewSessionStore picks Redis when a client is available.
func NewSessionStore(rdb *redis.Client) SessionStore {
	if rdb == nil {
		return NewMemorySessionStore()
	}
	return NewRedisSessionStore(rdb)
}

// ============================================================================
// AUTH SERVICE
// ============================================================================

// Session is the verified content of a session cookie.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

// AuthService checks the single admin login and issues sliding session tokens.
type AuthService struct {
	username     string
	passwordHash string
	secret       []byte
	ttl          time.Duration
	store        SessionStore
	now          func() time.Time
}

func NewAuthService(username, passwordHash string, secret []byte, ttl time.Duration, store SessionStore) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		secret:       secret,
		ttl:          ttl,
		store:        store,
		now:          time.Now,
	}
}

// Login returns a signed token for a fresh session.
func (a *AuthService) Login(username, password string) (string, *Session, error) {
	// bcrypt runs even on a wrong username so both failures cost the same
	passwordOK := utils.CheckPassword(password, a.passwordHash)
	if username != a.username || !passwordOK {
		utils.LogAuthAction("login", username, false)
		return "", nil, ErrInvalidCredentials
	}

	token, session, err := a.issue(utils.NewSessionID(), username)
	if err != nil {
		return "", nil, err
	}
	utils.LogAuthAction("login", username, true)
	return token, session, nil
}

// Authenticate verifies a token and rejects revoked sessions.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := utils.ParseSessionToken(a.secret, token, a.now())
	if err != nil {
		return nil, err
	}
	if claims.Subject != a.username {
		return nil, utils.ErrInvalidSession
	}

	revoked, err := a.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, utils.ErrInvalidSession
	}

	return &Session{
		ID:        claims.ID,
		Username:  claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh re-signs the session with a full timeout from now.
func (a *AuthService) Refresh(s *Session) (string, *Session, error) {
	return a.issue(s.ID, s.Username)
}

// Logout revokes the session until the latest token for it would expire.
func (a *AuthService) Logout(ctx context.Context, s *Session) error {
	if err := a.store.Revoke(ctx, s.ID, a.now().Add(a.ttl)); err != nil {
		return err
	}
	utils.LogAuthAction("logout", s.Username, true)
	return nil
}

func (a *AuthService) TTL() time.Duration {
	return a.ttl
}

func (a *AuthService) issue(sessionID, username string) (string, *Session, error) {
	token, expiresAt, err := utils.IssueSessionToken(a.secret, sessionID, username, a.now(), a.ttl)
	if err != nil {
		return "", nil, err
	}
	return token, &Session{ID: sessionID, Username: username, ExpiresAt: expiresAt}, nil
}
