// Package oauth implements the client side of the OAuth 2.0 Authorization Code
// flow with PKCE for the everp CLI.
//
// The package is a public client: it holds no client secret. A single
// authorization attempt is driven by a FlowController and completed by an
// ExchangeClient:
//
//  1. FlowController.Start generates a fresh PKCE pair and state and returns
//     the authorization URL.
//  2. A browser surface shows the URL and hands every navigation to
//     FlowController.HandleRedirect.
//  3. HandleRedirect ignores navigations that are not addressed to the
//     redirect URI, validates state on the one that is, and passes the code
//     and verifier to a CodeHandler exactly once.
//  4. The CodeHandler calls ExchangeClient.ExchangeCode and gives the access
//     token to the session.
//
// # Components
//
//   - AuthorizationConfig: immutable client registration and redirect matching
//   - FlowController: per-attempt state machine holding the verifier and state
//   - ExchangeClient: code and refresh token grants
//   - LogoutClient: best-effort remote logout with a bearer token
//   - Discoverer: optional RFC 8414 / OIDC endpoint discovery
//   - InspectAccessToken: unverified JWT claims, for display only
//   - RedactedToken: access token wrapper that never prints its value
//
// # Security
//
// Verifiers, state values, codes and tokens are never logged. Token values
// only leave the process in the Authorization header of a request or the
// body of a token request. The state check uses a constant-time comparison.
package oauth
