package oauth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestInspectAccessToken(t *testing.T) {
	issued := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	expires := issued.Add(time.Hour)

	token := signedToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"iss":   "https://auth.everp.co.kr",
		"aud":   "everp-ios",
		"iat":   issued.Unix(),
		"exp":   expires.Unix(),
		"scope": "erp.user.profile offline_access",
	})

	claims, err := InspectAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "https://auth.everp.co.kr", claims.Issuer)
	assert.Equal(t, []string{"everp-ios"}, claims.Audience)
	assert.Equal(t, []string{"erp.user.profile", "offline_access"}, claims.Scopes)
	assert.True(t, claims.IssuedAt.Equal(issued))
	assert.True(t, claims.ExpiresAt.Equal(expires))

	assert.False(t, claims.Expired(issued))
	assert.Equal(t, time.Hour, claims.ExpiresIn(issued))
	assert.True(t, claims.Expired(expires.Add(time.Second)))
	assert.Zero(t, claims.ExpiresIn(expires.Add(time.Second)))
}

func TestInspectAccessToken_ExpiredTokenStillDecodes(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
		"scp": []string{"erp.user.profile"},
	})

	claims, err := InspectAccessToken(token)
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))
	assert.Equal(t, []string{"erp.user.profile"}, claims.Scopes)
}

func TestInspectAccessToken_Opaque(t *testing.T) {
	for _, token := range []string{"opaque-token", "a.b", "not.a.jwt"} {
		_, err := InspectAccessToken(token)
		assert.True(t, errors.Is(err, ErrOpaqueToken), "token %q: %v", token, err)
	}
}

func TestAccessTokenClaims_NoExpiry(t *testing.T) {
	claims := &AccessTokenClaims{}
	assert.False(t, claims.Expired(time.Now()))
	assert.Zero(t, claims.ExpiresIn(time.Now()))
}
