package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/shopspring/decimal"
)

// Settings is everything the server reads from the environment.
type Settings struct {
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	Port        string
	FrontendURL string

	SessionSecret     []byte
	SessionTimeout    time.Duration
	CookieSecure      bool
	AdminUsername     string
	AdminPasswordHash string
	AdminPassword     string

	RedisAddr     string
	RateLimit     int
	RevenueTarget decimal.Decimal
}

const minSecretLength = 32

// Load reads Settings from the environment. Call godotenv.Load before it if a
// .env file should be honored.
func Load() (*Settings, error) {
	s := &Settings{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getEnv("PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		SessionSecret:     []byte(os.Getenv("SESSION_SECRET")),
		AdminUsername:     strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
	}

	if s.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if len(s.SessionSecret) < minSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSecretLength)
	}
	if s.AdminUsername == "" {
		return nil, fmt.Errorf("ADMIN_USERNAME environment variable is required")
	}
	if s.AdminPasswordHash == "" && s.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}

	var err error
	if s.SessionTimeout, err = getDuration("SESSION_TIMEOUT", 4*time.Hour); err != nil {
		return nil, err
	}
	if s.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if s.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if s.RateLimit, err = getInt("RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if s.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}

	target := getEnv("REVENUE_TARGET", "5000")
	if s.RevenueTarget, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("invalid REVENUE_TARGET %q: %w", target, err)
	}

	return s, nil
}

// PasswordHash returns the bcrypt hash of the admin password. A plain
// ADMIN_PASSWORD is hashed once at startup.
func (s *Settings) PasswordHash() (string, error) {
	if s.AdminPasswordHash != "" {
		return s.AdminPasswordHash, nil
	}
	hash, err := utils.HashPassword(s.AdminPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash ADMIN_PASSWORD: %w", err)
	}
	return hash, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
