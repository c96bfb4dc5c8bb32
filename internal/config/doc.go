// Package config loads the everp CLI configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. built-in defaults (GetDefaultConfig)
//  2. config.yaml in the configuration directory
//  3. a .env file in the configuration directory or the working directory
//  4. EVERP_* environment variables
//
// The default configuration directory is $XDG_CONFIG_HOME/everp, usually
// ~/.config/everp. The --config-path flag selects another directory.
//
// # Example config.yaml
//
//	auth:
//	  issuer: https://auth.everp.co.kr
//	  clientId: everp-ios
//	  redirectUri: http://127.0.0.1:8765/callback
//	  scopes: [erp.user.profile, offline_access]
//	gateway:
//	  baseUrl: https://api.everp.co.kr
//	  timeout: 15s
//	tokenStore:
//	  backend: file
//	logging:
//	  level: debug
//
// # Environment variables
//
//	EVERP_AUTH_ISSUER, EVERP_AUTHORIZATION_ENDPOINT, EVERP_TOKEN_ENDPOINT,
//	EVERP_LOGOUT_ENDPOINT, EVERP_CLIENT_ID, EVERP_REDIRECT_URI,
//	EVERP_SCOPES (space separated), EVERP_GATEWAY_URL, EVERP_TOKEN_STORE,
//	EVERP_TOKEN_DIR, EVERP_LOG_LEVEL
//
// Validate reports every problem at once as a ConfigurationErrorCollection.
package config
