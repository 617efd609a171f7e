package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/practice-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-secret", 15)

	token, expiresAt, err := tm.GenerateToken("user-1", domain.RoleAttorney, "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleAttorney, claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 15)
	verifier := NewTokenManager("secret-b", 15)

	token, _, err := issuer.GenerateToken("user-1", domain.RoleStaff, "sess-1")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	tm := &TokenManager{secret: []byte("unit-secret"), ttl: -time.Minute}

	token, _, err := tm.GenerateToken("user-1", domain.RoleStaff, "sess-1")
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	tm := NewTokenManager("unit-secret", 15)

	_, err := tm.ParseToken("not-a-jwt")
	assert.Error(t, err)
}
