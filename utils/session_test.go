package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestSessionToken_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	sid := NewSessionID()

	tok, exp, err := IssueSessionToken(testSecret, sid, "coach", now, 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(4*time.Hour), exp)

	claims, err := ParseSessionToken(testSecret, tok, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, sid, claims.ID)
	assert.Equal(t, "coach", claims.Subject)
}

func TestSessionToken_ExpiredAfterInactivityWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tok, _, err := IssueSessionToken(testSecret, NewSessionID(), "coach", now, 4*time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(testSecret, tok, now.Add(4*time.Hour+time.Minute))
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionToken_WrongSecret(t *testing.T) {
	now := time.Now()
	tok, _, err := IssueSessionToken(testSecret, NewSessionID(), "coach", now, time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken([]byte("another-secret-another-secret-xx"), tok, now)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionToken_Garbage(t *testing.T) {
	_, err := ParseSessionToken(testSecret, "not-a-token", time.Now())
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
