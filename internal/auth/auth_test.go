package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewKeysRejectsShortSecret(t *testing.T) {
	_, err := NewKeys("too-short", time.Hour)
	assert.Error(t, err)

	_, err = NewKeys(testSecret, 0)
	assert.Error(t, err)

	_, err = NewKeys(testSecret, time.Hour)
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	k, err := NewKeys(testSecret, time.Hour)
	require.NoError(t, err)

	tok, err := k.GenerateToken("user-1", "an@example.com", false)
	require.NoError(t, err)

	claims, err := k.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "an@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
	assert.Equal(t, RoleUser, claims.Role())
}

func TestAdminRole(t *testing.T) {
	k, err := NewKeys(testSecret, time.Hour)
	require.NoError(t, err)

	tok, err := k.GenerateToken("admin-1", "admin@example.com", true)
	require.NoError(t, err)

	claims, err := k.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role())
}

func TestExpiredTokenRejected(t *testing.T) {
	k, err := NewKeys(testSecret, time.Hour)
	require.NoError(t, err)

	issued := time.Now()
	k.now = func() time.Time { return issued }
	tok, err := k.GenerateToken("user-1", "an@example.com", false)
	require.NoError(t, err)

	// Still valid just before expiry.
	k.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = k.VerifyToken(tok)
	assert.NoError(t, err)

	k.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = k.VerifyToken(tok)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	k, err := NewKeys(testSecret, time.Hour)
	require.NoError(t, err)

	tok, err := k.GenerateToken("user-1", "an@example.com", false)
	require.NoError(t, err)

	tampered := tok[:len(tok)-2] + "xx"
	_, err = k.VerifyToken(tampered)
	assert.Error(t, err)

	other, err := NewKeys("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)
	_, err = other.VerifyToken(tok)
	assert.Error(t, err)
}

func TestParseUserReturnsNilOnFailure(t *testing.T) {
	k, err := NewKeys(testSecret, time.Hour)
	require.NoError(t, err)

	assert.Nil(t, k.ParseUser("not-a-token"))

	tok, err := k.GenerateToken("user-1", "an@example.com", false)
	require.NoError(t, err)
	claims := k.ParseUser(tok)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.Subject)
}
