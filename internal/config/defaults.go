package config

import "time"

const (
	DefaultAuthBaseURL           = "https://auth.everp.co.kr"
	DefaultAuthorizationEndpoint = DefaultAuthBaseURL + "/oauth2/authorize"
	DefaultTokenEndpoint         = DefaultAuthBaseURL + "/oauth2/token"
	DefaultLogoutEndpoint        = DefaultAuthBaseURL + "/logout"

	DefaultGatewayURL = "https://api.everp.co.kr"

	// DefaultClientID is the public client registered for the everp apps.
	DefaultClientID    = "everp-ios"
	DefaultRedirectURI = "everp-ios://callback"

	DefaultTokenStoreBackend = "keyring"
	DefaultLogLevel          = "info"

	DefaultRequestTimeout = 30 * time.Second
)

// DefaultScopes are requested when the configuration names none.
var DefaultScopes = []string{"erp.user.profile", "offline_access"}

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() EverpConfig {
	return EverpConfig{
		Auth: AuthConfig{
			AuthorizationEndpoint: DefaultAuthorizationEndpoint,
			TokenEndpoint:         DefaultTokenEndpoint,
			LogoutEndpoint:        DefaultLogoutEndpoint,
			ClientID:              DefaultClientID,
			RedirectURI:           DefaultRedirectURI,
			Scopes:                append([]string(nil), DefaultScopes...),
			Timeout:               DefaultRequestTimeout,
		},
		Gateway: GatewayConfig{
			BaseURL: DefaultGatewayURL,
			Timeout: DefaultRequestTimeout,
		},
		TokenStore: TokenStoreConfig{
			Backend: DefaultTokenStoreBackend,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}
