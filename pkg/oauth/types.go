package oauth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Redacted replaces secret values wherever a token would otherwise be printed.
const Redacted = "[REDACTED]"

// TokenResponse is the JSON body of a successful token endpoint response.
//
// SECURITY: String, GoString and LogValue never include token values, so a
// TokenResponse may be passed to fmt or slog without leaking credentials.
type TokenResponse struct {
	// AccessToken is the bearer token. It is the only required member.
	AccessToken string `json:"access_token"`

	// RefreshToken is present when the server grants offline access.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// IDToken is the OIDC ID token, if the openid scope was granted.
	IDToken string `json:"id_token,omitempty"`

	// Scope is the granted scope, space separated.
	Scope string `json:"scope,omitempty"`
}

// ErrMissingAccessToken is wrapped in a DecodeError when a 2xx token response has no access_token.
var ErrMissingAccessToken = errors.New("token response has no access_token")

// Validate checks the members the client relies on.
func (t *TokenResponse) Validate() error {
	if t.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if t.ExpiresIn < 0 {
		return fmt.Errorf("token response has negative expires_in %d", t.ExpiresIn)
	}
	return nil
}

// Expiry returns the absolute expiry relative to issuedAt, or the zero time if
// the server did not send expires_in.
func (t *TokenResponse) Expiry(issuedAt time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return issuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Scopes returns the granted scope as a slice.
func (t *TokenResponse) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	return strings.Fields(t.Scope)
}

// Token converts the response to an oauth2.Token, e.g. for use with oauth2.StaticTokenSource.
func (t *TokenResponse) Token(issuedAt time.Time) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry(issuedAt),
	}
	if t.IDToken != "" {
		token = token.WithExtra(map[string]interface{}{
			"id_token": t.IDToken,
		})
	}
	return token
}

// String implements fmt.Stringer without exposing any token value.
func (t TokenResponse) String() string {
	return fmt.Sprintf("TokenResponse{type=%s expires_in=%d refresh=%t id_token=%t}",
		t.TokenType, t.ExpiresIn, t.RefreshToken != "", t.IDToken != "")
}

// GoString implements fmt.GoStringer for %#v.
func (t TokenResponse) GoString() string {
	return "oauth.TokenResponse{" + Redacted + "}"
}

// LogValue implements slog.LogValuer.
func (t TokenResponse) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("access_token", Redacted),
		slog.String("token_type", t.TokenType),
		slog.Int64("expires_in", t.ExpiresIn),
		slog.Bool("has_refresh_token", t.RefreshToken != ""),
		slog.Bool("has_id_token", t.IDToken != ""),
		slog.String("scope", t.Scope),
	)
}

// Metadata is OAuth 2.0 Authorization Server Metadata (RFC 8414), also served
// by OIDC discovery.
type Metadata struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	UserinfoEndpoint              string   `json:"userinfo_endpoint,omitempty"`
	EndSessionEndpoint            string   `json:"end_session_endpoint,omitempty"`
	RevocationEndpoint            string   `json:"revocation_endpoint,omitempty"`
	JwksURI                       string   `json:"jwks_uri,omitempty"`
	ScopesSupported               []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported        []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported           []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// SupportsPKCE returns true if the server supports S256 PKCE.
// Servers that do not advertise any method are assumed to support it.
func (m *Metadata) SupportsPKCE() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == CodeChallengeMethodS256 {
			return true
		}
	}
	return len(m.CodeChallengeMethodsSupported) == 0
}

// AuthChallenge is the parsed content of a WWW-Authenticate response header.
type AuthChallenge struct {
	// Scheme is the authentication scheme, normally "Bearer".
	Scheme string

	// Realm is the protection realm.
	Realm string

	// Scope lists the scopes the resource requires, space separated.
	Scope string

	// Error is the RFC 6750 error code, e.g. "invalid_token".
	Error string

	// ErrorDescription is the human-readable description sent with Error.
	ErrorDescription string
}

// IsInvalidToken reports whether the resource rejected the token itself,
// as opposed to a missing or insufficient scope.
func (c *AuthChallenge) IsInvalidToken() bool {
	return c != nil && c.Error == "invalid_token"
}
