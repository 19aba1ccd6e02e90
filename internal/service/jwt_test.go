package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	tok, err := GenerateJWT("0xabc")
	require.NoError(t, err)

	wallet, err := ParseJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", wallet)
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	InitJWT("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"wallet": "0xabc",
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})
	s, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"wallet": "0xabc",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	s, err = foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = ParseJWT(s)
	assert.Error(t, err)
}
