package config

import "time"

// EverpConfig is the top-level configuration of the everp CLI.
type EverpConfig struct {
	Auth       AuthConfig       `yaml:"auth"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	TokenStore TokenStoreConfig `yaml:"tokenStore"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AuthConfig describes the authorization server and this client's registration.
type AuthConfig struct {
	// Issuer enables metadata discovery when set. Discovered endpoints
	// replace AuthorizationEndpoint and TokenEndpoint.
	Issuer string `yaml:"issuer,omitempty"`

	AuthorizationEndpoint string   `yaml:"authorizationEndpoint,omitempty"`
	TokenEndpoint         string   `yaml:"tokenEndpoint,omitempty"`
	LogoutEndpoint        string   `yaml:"logoutEndpoint,omitempty"`
	ClientID              string   `yaml:"clientId,omitempty"`
	RedirectURI           string   `yaml:"redirectUri,omitempty"`
	Scopes                []string `yaml:"scopes,omitempty"`

	// Timeout bounds each request to the authorization server.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// GatewayConfig describes the ERP API gateway.
type GatewayConfig struct {
	BaseURL string        `yaml:"baseUrl,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// TokenStoreConfig selects where the access token is kept.
type TokenStoreConfig struct {
	// Backend is one of keyring, file or memory.
	Backend string `yaml:"backend,omitempty"`

	// Dir overrides the directory of the file backend.
	Dir string `yaml:"dir,omitempty"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
