package oauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by InspectAccessToken for tokens that are not JWTs.
var ErrOpaqueToken = errors.New("access token is not a JWT")

// AccessTokenClaims is the display-only view of a JWT access token.
//
// The signature is NOT verified. Nothing here may be used for an authorization
// decision; the gateway remains the only judge of a token.
type AccessTokenClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// InspectAccessToken decodes the claims of a JWT access token without
// verifying it.
func InspectAccessToken(token string) (*AccessTokenClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	out := &AccessTokenClaims{}
	out.Subject, _ = claims.GetSubject()
	out.Issuer, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil {
		out.Audience = aud
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	switch scope := claims["scope"].(type) {
	case string:
		out.Scopes = strings.Fields(scope)
	case []interface{}:
		for _, s := range scope {
			if str, ok := s.(string); ok {
				out.Scopes = append(out.Scopes, str)
			}
		}
	}
	if out.Scopes == nil {
		if scp, ok := claims["scp"].([]interface{}); ok {
			for _, s := range scp {
				if str, ok := s.(string); ok {
					out.Scopes = append(out.Scopes, str)
				}
			}
		}
	}

	return out, nil
}

// Expired reports whether the token carries an expiry that lies before now.
func (c *AccessTokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ExpiresIn returns the time left until expiry, or 0 when the token has none
// or has already expired.
func (c *AccessTokenClaims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() || now.After(c.ExpiresAt) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
