package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken_RoundTrip(t *testing.T) {
	config := JWTConfig{SecretKey: "test-secret", Issuer: "converse"}
	generator, err := NewJWTGenerator(config, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(config)
	require.NoError(t, err)

	token, err := generator.GenerateToken("user-1")
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestValidateToken_Expired(t *testing.T) {
	config := JWTConfig{SecretKey: "test-secret"}
	generator, err := NewJWTGenerator(config, -time.Minute)
	require.NoError(t, err)
	validator, err := NewJWTValidator(config)
	require.NoError(t, err)

	token, err := generator.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongKey(t *testing.T) {
	generator, err := NewJWTGenerator(JWTConfig{SecretKey: "one-secret"}, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "another-secret"})
	require.NoError(t, err)

	token, err := generator.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	generator, err := NewJWTGenerator(JWTConfig{SecretKey: "test-secret", Issuer: "someone-else"}, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "converse"})
	require.NoError(t, err)

	token, err := generator.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	config := JWTConfig{SecretKey: "test-secret"}
	generator, err := NewJWTGenerator(config, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(config)
	require.NoError(t, err)

	token, err := generator.GenerateToken("")
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	_, err = validator.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContextRoundTrip(t *testing.T) {
	ctx := SetUserInContext(context.Background(), &Claims{UserID: "user-1", Email: "a@example.com"})

	claims, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
