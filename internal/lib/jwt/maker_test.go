package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)

	token, err := maker.GenerateToken("partneradmin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "partneradmin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)
	other := NewMaker("other_secret", time.Hour)

	token, err := maker.GenerateToken("partneradmin", "admin")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewMaker("test_secret", -time.Minute)

	token, err := maker.GenerateToken("partneradmin", "admin")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)

	_, err := maker.ParseToken("not.a.token")
	assert.Error(t, err)
}
