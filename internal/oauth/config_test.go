package oauth

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, redirectURI string) *AuthorizationConfig {
	t.Helper()
	cfg, err := NewAuthorizationConfig(
		"https://auth.example.com/oauth2/authorize",
		"https://auth.example.com/oauth2/token",
		"app-1",
		redirectURI,
		[]string{"profile"},
	)
	require.NoError(t, err)
	return cfg
}

func TestNewAuthorizationConfig(t *testing.T) {
	t.Run("derives redirect parts", func(t *testing.T) {
		cfg := newTestConfig(t, "everp-ios://callback")

		assert.Equal(t, "everp-ios", cfg.RedirectScheme())
		assert.Equal(t, "callback", cfg.RedirectHost())
		assert.Equal(t, "", cfg.RedirectPath())
		assert.False(t, cfg.IsLoopbackRedirect())
	})

	t.Run("loopback redirect", func(t *testing.T) {
		cfg := newTestConfig(t, "http://127.0.0.1:8765/callback")

		assert.Equal(t, "http", cfg.RedirectScheme())
		assert.Equal(t, "127.0.0.1:8765", cfg.RedirectHost())
		assert.Equal(t, "/callback", cfg.RedirectPath())
		assert.True(t, cfg.IsLoopbackRedirect())
	})

	t.Run("opaque redirect", func(t *testing.T) {
		cfg := newTestConfig(t, "everp:callback")

		assert.Equal(t, "", cfg.RedirectHost())
		assert.Equal(t, "callback", cfg.RedirectPath())
	})

	invalid := []struct {
		name        string
		clientID    string
		redirectURI string
		field       string
	}{
		{name: "no scheme", clientID: "app-1", redirectURI: "callback", field: "redirect_uri"},
		{name: "unparsable", clientID: "app-1", redirectURI: "://bad", field: "redirect_uri"},
		{name: "query in redirect", clientID: "app-1", redirectURI: "app://callback?x=1", field: "redirect_uri"},
		{name: "empty client id", clientID: " ", redirectURI: "app://callback", field: "client_id"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthorizationConfig("https://a/authorize", "https://a/token", tt.clientID, tt.redirectURI, nil)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestAuthorizationConfig_ScopesAreCopied(t *testing.T) {
	scopes := []string{"erp.user.profile"}
	cfg, err := NewAuthorizationConfig("https://a/authorize", "https://a/token", "id", "app://callback", scopes)
	require.NoError(t, err)

	scopes[0] = "mutated"
	got := cfg.Scopes()
	got[0] = "mutated-again"

	assert.Equal(t, []string{"erp.user.profile"}, cfg.Scopes())
}

func TestAuthorizationConfig_WithEndpoints(t *testing.T) {
	cfg := newTestConfig(t, "app://callback")
	other := cfg.WithEndpoints("https://idp.test/authorize", "https://idp.test/token")

	assert.Equal(t, "https://idp.test/token", other.TokenEndpoint())
	assert.Equal(t, "https://auth.example.com/oauth2/token", cfg.TokenEndpoint())
	assert.Equal(t, cfg.ClientID(), other.ClientID())
	assert.Equal(t, cfg.RedirectURI(), other.RedirectURI())
}

func TestAuthorizationConfig_AuthorizationURL(t *testing.T) {
	cfg := newTestConfig(t, "app://callback")

	raw, err := cfg.AuthorizationURL("chal", "st")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth.example.com", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	assert.Equal(t, "app-1", u.Query().Get("client_id"))
	assert.Equal(t, "app://callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "profile", u.Query().Get("scope"))

	broken := cfg.WithEndpoints("::not a url", cfg.TokenEndpoint())
	_, err = broken.AuthorizationURL("chal", "st")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "authorization_endpoint", cfgErr.Field)
}

func TestAuthorizationConfig_MatchesRedirect(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		incoming string
		want     bool
	}{
		{name: "exact custom scheme", redirect: "app://callback", incoming: "app://callback?code=1&state=2", want: true},
		{name: "scheme case", redirect: "app://callback", incoming: "APP://callback?code=1", want: true},
		{name: "different scheme", redirect: "app://callback", incoming: "other://callback?code=1", want: false},
		{name: "different host", redirect: "app://callback", incoming: "app://other-path?code=1", want: false},
		{name: "extra path", redirect: "app://callback", incoming: "app://callback/extra?code=1", want: false},
		{name: "loopback exact", redirect: "http://127.0.0.1:8765/callback", incoming: "http://127.0.0.1:8765/callback?code=1", want: true},
		{name: "loopback wrong port", redirect: "http://127.0.0.1:8765/callback", incoming: "http://127.0.0.1:9999/callback?code=1", want: false},
		{name: "loopback wrong path", redirect: "http://127.0.0.1:8765/callback", incoming: "http://127.0.0.1:8765/callbacks", want: false},
		{name: "https page", redirect: "app://callback", incoming: "https://auth.example.com/login", want: false},
		{name: "opaque", redirect: "everp:callback", incoming: "everp:callback?code=1", want: true},
		{name: "opaque different", redirect: "everp:callback", incoming: "everp:other?code=1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t, tt.redirect)
			u, err := url.Parse(tt.incoming)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MatchesRedirect(u))
		})
	}

	assert.False(t, newTestConfig(t, "app://callback").MatchesRedirect(nil))
}
