package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "viacarona/pkg/domain-errors"
)

var (
	fixedNow  = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	accountID = uuid.New()
	expiresIn = time.Hour
)

func newService() *JWTService {
	return NewJWTService("test-signing-key", "test-issuer", "test-audience").
		WithClock(func() time.Time { return fixedNow })
}

func Test_IssueSessionToken(t *testing.T) {
	svc := newService()
	token, err := svc.IssueSessionToken(accountID, "ana@example.com", expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), claims.AccountID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, fixedNow.Add(expiresIn).Equal(claims.ExpiresAt.Time))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := newService().ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	svc := newService()
	token, err := svc.IssueSessionToken(accountID, "ana@example.com", -time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	token, err := newService().IssueSessionToken(accountID, "ana@example.com", expiresIn)
	require.NoError(t, err)

	other := NewJWTService("other-key", "test-issuer", "test-audience").
		WithClock(func() time.Time { return fixedNow })
	_, err = other.ValidateToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	token, err := newService().IssueSessionToken(accountID, "ana@example.com", expiresIn)
	require.NoError(t, err)

	other := NewJWTService("test-signing-key", "test-issuer", "someone-else").
		WithClock(func() time.Time { return fixedNow })
	_, err = other.ValidateToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}

func Test_ExpiresAt(t *testing.T) {
	token, err := newService().IssueSessionToken(accountID, "ana@example.com", expiresIn)
	require.NoError(t, err)

	exp, ok := ExpiresAt(token)
	require.True(t, ok)
	assert.True(t, fixedNow.Add(expiresIn).Equal(exp))

	_, ok = ExpiresAt("opaque-session-token")
	assert.False(t, ok)
}
