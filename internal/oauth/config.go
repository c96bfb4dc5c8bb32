package oauth

import (
	"net/url"
	"strings"

	pkgoauth "everp/pkg/oauth"
)

// AuthorizationConfig is the immutable description of one public client
// registration: where to send the user, where to exchange the code, and which
// redirect URI identifies the callback.
//
// Construct it with NewAuthorizationConfig. The redirect URI is parsed once at
// construction; endpoints are checked when they are used.
type AuthorizationConfig struct {
	authorizationEndpoint string
	tokenEndpoint         string
	clientID              string
	redirectURI           string
	scopes                []string

	redirect *url.URL
}

// NewAuthorizationConfig validates and returns a configuration.
// A redirect URI that does not parse or has no scheme is a *ConfigurationError.
func NewAuthorizationConfig(authorizationEndpoint, tokenEndpoint, clientID, redirectURI string, scopes []string) (*AuthorizationConfig, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, &ConfigurationError{Field: "client_id", Reason: "must not be empty"}
	}

	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return nil, &ConfigurationError{Field: "redirect_uri", Value: redirectURI, Reason: err.Error()}
	}
	if redirect.Scheme == "" {
		return nil, &ConfigurationError{Field: "redirect_uri", Value: redirectURI, Reason: "a scheme is required"}
	}
	if redirect.RawQuery != "" || redirect.Fragment != "" {
		return nil, &ConfigurationError{Field: "redirect_uri", Value: redirectURI, Reason: "query and fragment are not allowed"}
	}

	return &AuthorizationConfig{
		authorizationEndpoint: authorizationEndpoint,
		tokenEndpoint:         tokenEndpoint,
		clientID:              clientID,
		redirectURI:           redirectURI,
		scopes:                append([]string(nil), scopes...),
		redirect:              redirect,
	}, nil
}

// WithEndpoints returns a copy of c that uses the given endpoints, e.g. the
// ones found by discovery.
func (c *AuthorizationConfig) WithEndpoints(authorizationEndpoint, tokenEndpoint string) *AuthorizationConfig {
	clone := *c
	clone.authorizationEndpoint = authorizationEndpoint
	clone.tokenEndpoint = tokenEndpoint
	clone.scopes = append([]string(nil), c.scopes...)
	return &clone
}

func (c *AuthorizationConfig) AuthorizationEndpoint() string { return c.authorizationEndpoint }
func (c *AuthorizationConfig) TokenEndpoint() string         { return c.tokenEndpoint }
func (c *AuthorizationConfig) ClientID() string              { return c.clientID }
func (c *AuthorizationConfig) RedirectURI() string           { return c.redirectURI }

// Scopes returns a copy of the requested scopes.
func (c *AuthorizationConfig) Scopes() []string {
	return append([]string(nil), c.scopes...)
}

// RedirectScheme is the lowercased scheme of the redirect URI, e.g. "everp-ios" or "http".
func (c *AuthorizationConfig) RedirectScheme() string {
	return c.redirect.Scheme
}

// RedirectHost is the host (with port, if any) of the redirect URI. It is
// empty for redirect URIs without an authority.
func (c *AuthorizationConfig) RedirectHost() string {
	return c.redirect.Host
}

// RedirectPath is the path of the redirect URI. For opaque URIs such as
// "everp:callback" the opaque part is the path.
func (c *AuthorizationConfig) RedirectPath() string {
	return redirectPath(c.redirect)
}

// IsLoopbackRedirect reports whether the redirect URI targets an http listener
// on this machine.
func (c *AuthorizationConfig) IsLoopbackRedirect() bool {
	if c.redirect.Scheme != "http" {
		return false
	}
	switch c.redirect.Hostname() {
	case "127.0.0.1", "localhost", "::1":
		return true
	}
	return false
}

// AuthorizationURL builds the URL the user is sent to for one attempt.
func (c *AuthorizationConfig) AuthorizationURL(codeChallenge, state string) (string, error) {
	pair := &pkgoauth.PKCEPair{
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: pkgoauth.CodeChallengeMethodS256,
	}
	authURL, err := pkgoauth.BuildAuthorizationURL(c.authorizationEndpoint, c.clientID, c.redirectURI,
		state, strings.Join(c.scopes, " "), pair)
	if err != nil {
		return "", &ConfigurationError{Field: "authorization_endpoint", Value: c.authorizationEndpoint, Reason: err.Error()}
	}
	return authURL, nil
}

// validateTokenEndpoint checks the token endpoint before a request is made.
func (c *AuthorizationConfig) validateTokenEndpoint() error {
	u, err := url.Parse(c.tokenEndpoint)
	if err != nil {
		return &ConfigurationError{Field: "token_endpoint", Value: c.tokenEndpoint, Reason: err.Error()}
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return &ConfigurationError{Field: "token_endpoint", Value: c.tokenEndpoint, Reason: "an http(s) URL with a host is required"}
	}
	return nil
}

// MatchesRedirect reports whether u is addressed to this client's redirect
// URI: scheme must match, host must match when the redirect URI has one, and
// path must match exactly. Query and fragment are ignored.
func (c *AuthorizationConfig) MatchesRedirect(u *url.URL) bool {
	if u == nil {
		return false
	}
	if !strings.EqualFold(u.Scheme, c.redirect.Scheme) {
		return false
	}
	if c.redirect.Host != "" && u.Host != c.redirect.Host {
		return false
	}
	return redirectPath(u) == redirectPath(c.redirect)
}

func redirectPath(u *url.URL) string {
	if u.Path == "" && u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}
