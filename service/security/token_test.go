package security

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	// Create test data
	id := uuid.New()
	isAdmin := rand.Intn(2) == 1
	tokenType := []TokenType{AccessToken, RefreshToken}[rand.Intn(2)]
	version := rand.Intn(10)

	// Create token
	token, err := service.CreateToken(id, isAdmin, tokenType, version)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Verify token
	result, err := service.VerifyToken(token)
	require.NoError(t, err)
	require.NotEmpty(t, result)

	// Compare the test data with the extract claims
	require.Equal(t, id, result.ID)
	require.Equal(t, isAdmin, result.IsAdmin)
	require.Equal(t, tokenType, result.TokenType)
	require.Equal(t, version, result.Version)
}

func TestToken_InvalidType(t *testing.T) {
	_, err := service.CreateToken(uuid.New(), true, TokenType("session-token"), 0)
	require.Error(t, err)
}

func TestToken_WrongSecret(t *testing.T) {
	other := NewJWTService([]byte("ANOTHER-SECRET"), time.Minute, time.Minute)

	token, err := other.CreateToken(uuid.New(), true, AccessToken, 0)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	// Lifetime shorter than the parser leeway would still verify, so go
	// well past it.
	expired := NewJWTService(secretKey, -2*time.Minute, -2*time.Minute)

	token, err := expired.CreateToken(uuid.New(), false, AccessToken, 0)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.Error(t, err)
}
