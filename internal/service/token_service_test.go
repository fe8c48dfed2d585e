package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenServiceVerify(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "coursedesk"})
	signed := signToken(t, "secret", jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "coursedesk",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
}

func TestTokenServiceVerifyRejectsBadSignature(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"})
	signed := signToken(t, "other-secret", jwt.RegisteredClaims{Subject: "u1"})

	_, err := svc.Verify(signed)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(t, err))
}

func TestTokenServiceVerifyRejectsExpired(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"})
	signed := signToken(t, "secret", jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := svc.Verify(signed)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(t, err))
}

func TestTokenServiceVerifyRejectsWrongIssuer(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "coursedesk"})
	signed := signToken(t, "secret", jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := svc.Verify(signed)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(t, err))
}

func TestTokenServiceVerifyRejectsMissingSubject(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"})
	signed := signToken(t, "secret", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := svc.Verify(signed)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(t, err))
}
