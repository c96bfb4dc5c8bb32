// Package oauth provides the protocol-level building blocks of the everp
// OAuth 2.0 public client.
//
// # Core Components
//
//   - PKCE: verifier generation and S256 challenge derivation (RFC 7636)
//   - State: anti-CSRF state generation with a 32 byte safety floor
//   - TokenResponse: token endpoint response with redacting fmt/slog output
//   - Metadata: authorization server metadata (RFC 8414)
//   - AuthChallenge: parsed WWW-Authenticate header (RFC 6750)
//   - HTTPError, DecodeError: errors shared by every HTTP client in the module
//
// # Usage
//
//	pair, err := oauth.GeneratePKCE()
//	state, err := oauth.GenerateState(oauth.DefaultStateBytes)
//
// The verifier in a PKCEPair must never be persisted or logged. It leaves the
// authorization flow only when the code is exchanged.
package oauth
