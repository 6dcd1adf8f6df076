package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute)

	token, err := manager.GenerateToken("6f1c2a54-0000-4000-8000-000000000001")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a54-0000-4000-8000-000000000001", claims.UserID())
	assert.Equal(t, "noscite", claims.Issuer)
}

func TestJWTManager_RejectsEmptyUser(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)

	_, err := manager.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Minute).GenerateToken("user-1")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager("secret", -time.Minute)

	token, err := manager.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_Garbage(t *testing.T) {
	_, err := NewJWTManager("secret", time.Minute).ValidateToken("not-a-token")
	assert.Error(t, err)
}
