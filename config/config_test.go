package config

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/LovationAdmin/trainer-api/config/migrations"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/trainer?sslmode=disable")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ADMIN_USERNAME", " coach ")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	for _, key := range []string{
		"PORT", "FRONTEND_URL", "SESSION_TIMEOUT", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"RATE_LIMIT", "COOKIE_SECURE", "REVENUE_TARGET", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, "http://localhost:3000", s.FrontendURL)
	assert.Equal(t, "coach", s.AdminUsername)
	assert.Equal(t, 4*time.Hour, s.SessionTimeout)
	assert.Equal(t, 25, s.DBMaxOpenConns)
	assert.Equal(t, 5, s.DBMaxIdleConns)
	assert.Equal(t, 100, s.RateLimit)
	assert.False(t, s.CookieSecure)
	assert.Equal(t, "5000", s.RevenueTarget.String())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_TIMEOUT", "30m")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REVENUE_TARGET", "7500.50")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, s.SessionTimeout)
	assert.Equal(t, 10, s.RateLimit)
	assert.True(t, s.CookieSecure)
	assert.Equal(t, "7500.5", s.RevenueTarget.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"no database", "DATABASE_URL", ""},
		{"short secret", "SESSION_SECRET", "too-short"},
		{"no admin", "ADMIN_USERNAME", "   "},
		{"bad timeout", "SESSION_TIMEOUT", "forever"},
		{"negative timeout", "SESSION_TIMEOUT", "-1h"},
		{"bad rate limit", "RATE_LIMIT", "lots"},
		{"bad target", "REVENUE_TARGET", "five thousand"},
		{"bad bool", "COOKIE_SECURE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RequiresSomePassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_PASSWORD", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	s := &Settings{AdminPasswordHash: "$2a$10$existing"}
	hash, err := s.PasswordHash()
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$existing", hash)

	s = &Settings{AdminPassword: "pw"}
	hash, err = s.PasswordHash()
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("pw", hash))
}

func TestRunMigrations(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("boom")
	}
	err := RunMigrations(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_clients.sql", "00002_client_ledgers.sql"}, names)
}

func TestConnectRedis_UnsetReturnsNil(t *testing.T) {
	assert.Nil(t, ConnectRedis(&Settings{}))
}
